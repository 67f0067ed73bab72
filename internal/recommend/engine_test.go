// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package recommend

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmahajan3105/movieapp-sub009/internal/coalesce"
)

type fakeCompleter struct {
	response string
	err      error
	calls    atomic.Int32
	block    chan struct{} // if non-nil, Complete waits on it
}

func (f *fakeCompleter) Complete(ctx context.Context, _, _ string) (string, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.response, f.err
}

type fakeMemory struct {
	mu       sync.Mutex
	profile  *TasteProfile
	recorded [][]string
	block    chan struct{} // if non-nil, Record waits on it
}

func (f *fakeMemory) Profile(_ context.Context, _ string) (*TasteProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile, nil
}

func (f *fakeMemory) Record(_ context.Context, _ string, genres []string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, genres)
	return nil
}

func (f *fakeMemory) recordedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recorded)
}

func newTestEngine(t *testing.T, ai Completer, finder Finder, searcher Searcher, memory TasteMemory) *Engine {
	t.Helper()
	enricher := NewEnricher(finder, searcher, zerolog.Nop())
	group := coalesce.NewGroup[*Response]("test-ai", time.Minute)
	return NewEngine(DefaultWeights(), Options{}, enricher, ai, memory, group, zerolog.Nop())
}

func TestRecommend_EndToEnd(t *testing.T) {
	ai := &fakeCompleter{response: `{"recommendations":[
		{"title":"Heat","year":1995,"reason":"tense heist classic","confidence":0.9},
		{"title":"Nowhere To Be Found","year":2099},
		{"title":"Ronin","year":1998,"reason":"gritty heist chases"}
	]}`}
	finder := &fakeFinder{records: map[string]MovieRecord{
		"Heat":  {ID: "m1", Title: "Heat", Year: 1995, Genres: []string{"Crime"}, Rating: 8.3, Popularity: 60},
		"Ronin": {ID: "m2", Title: "Ronin", Year: 1998, Genres: []string{"Action"}, Rating: 7.3, Popularity: 40},
	}}
	e := newTestEngine(t, ai, finder, &fakeSearcher{}, &fakeMemory{})

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1", Query: "heist thrillers"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if len(resp.Items) != 2 {
		t.Fatalf("resolved %d items, want 2 (unresolvable title dropped)", len(resp.Items))
	}
	if resp.Metadata.Suggested != 3 || resp.Metadata.Resolved != 2 {
		t.Errorf("metadata = %+v, want suggested 3, resolved 2", resp.Metadata)
	}
	// Heat leads on every signal (rank, confidence, rating, popularity).
	if resp.Items[0].Record.ID != "m1" {
		t.Errorf("top item = %s, want m1", resp.Items[0].Record.ID)
	}
	if resp.Items[0].Score <= resp.Items[1].Score {
		t.Errorf("items not sorted by score: %f <= %f", resp.Items[0].Score, resp.Items[1].Score)
	}
	if resp.Metadata.RequestID == "" {
		t.Error("request ID not generated")
	}
}

func TestRecommend_CoalescesIdenticalRequests(t *testing.T) {
	ai := &fakeCompleter{
		response: `{"recommendations":[{"title":"Heat"}]}`,
		block:    make(chan struct{}),
	}
	finder := &fakeFinder{records: map[string]MovieRecord{
		"Heat": {ID: "m1", Title: "Heat", Year: 1995},
	}}
	e := newTestEngine(t, ai, finder, &fakeSearcher{}, nil)

	req := Request{UserID: "u1", Intent: "discover", Query: "crime"}

	const callers = 5
	responses := make([]*Response, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			responses[idx], _ = e.Recommend(context.Background(), req)
		}(i)
	}

	for ai.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	// Give the remaining callers time to attach before releasing.
	time.Sleep(20 * time.Millisecond)
	close(ai.block)
	wg.Wait()

	if n := ai.calls.Load(); n != 1 {
		t.Errorf("AI invoked %d times for identical concurrent requests, want 1", n)
	}

	coalesced := 0
	for i, resp := range responses {
		if resp == nil {
			t.Fatalf("caller %d got nil response", i)
		}
		if len(resp.Items) != 1 || resp.Items[0].Record.ID != "m1" {
			t.Errorf("caller %d items = %+v", i, resp.Items)
		}
		if resp.Metadata.Coalesced {
			coalesced++
		}
	}
	if coalesced != callers-1 {
		t.Errorf("%d responses marked coalesced, want %d", coalesced, callers-1)
	}
}

func TestRecommend_DistinctRequestsNotCoalesced(t *testing.T) {
	ai := &fakeCompleter{response: `{"recommendations":[{"title":"Heat"}]}`}
	finder := &fakeFinder{records: map[string]MovieRecord{
		"Heat": {ID: "m1", Title: "Heat"},
	}}
	e := newTestEngine(t, ai, finder, &fakeSearcher{}, nil)

	_, _ = e.Recommend(context.Background(), Request{UserID: "u1", Query: "crime"})
	_, _ = e.Recommend(context.Background(), Request{UserID: "u2", Query: "crime"})

	if n := ai.calls.Load(); n != 2 {
		t.Errorf("AI invoked %d times for distinct users, want 2", n)
	}
}

func TestRecommend_MalformedAIOutput(t *testing.T) {
	ai := &fakeCompleter{response: "I would suggest some nice movies for you!"}
	e := newTestEngine(t, ai, &fakeFinder{}, &fakeSearcher{}, nil)

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1", Query: "anything"})
	if err != nil {
		t.Fatalf("malformed AI output must not error: %v", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("items = %+v, want empty", resp.Items)
	}
	if resp.Metadata.Suggested != 0 {
		t.Errorf("suggested = %d, want 0", resp.Metadata.Suggested)
	}
}

func TestRecommend_AIErrorPropagates(t *testing.T) {
	wantErr := errors.New("provider overloaded")
	ai := &fakeCompleter{err: wantErr}
	e := newTestEngine(t, ai, &fakeFinder{}, &fakeSearcher{}, nil)

	_, err := e.Recommend(context.Background(), Request{UserID: "u1", Query: "anything"})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want wrapped %v", err, wantErr)
	}
}

func TestRecommend_KLimit(t *testing.T) {
	ai := &fakeCompleter{response: `{"recommendations":[
		{"title":"Heat"},{"title":"Ronin"},{"title":"Alien"},{"title":"Contact"}
	]}`}
	finder := &fakeFinder{records: map[string]MovieRecord{
		"Heat":    {ID: "a", Title: "Heat"},
		"Ronin":   {ID: "b", Title: "Ronin"},
		"Alien":   {ID: "c", Title: "Alien"},
		"Contact": {ID: "d", Title: "Contact"},
	}}
	e := newTestEngine(t, ai, finder, &fakeSearcher{}, nil)

	resp, err := e.Recommend(context.Background(), Request{UserID: "u1", Query: "q", K: 2})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Errorf("items = %d, want 2 (K limit)", len(resp.Items))
	}
}

func TestRecommend_DetachedMemoryUpdate(t *testing.T) {
	ai := &fakeCompleter{response: `{"recommendations":[{"title":"Heat"}]}`}
	finder := &fakeFinder{records: map[string]MovieRecord{
		"Heat": {ID: "m1", Title: "Heat", Genres: []string{"Crime", "Thriller"}},
	}}
	memory := &fakeMemory{block: make(chan struct{})}
	e := newTestEngine(t, ai, finder, &fakeSearcher{}, memory)

	// The response must return while the memory update is still blocked.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Recommend(context.Background(), Request{UserID: "u1", Query: "crime"})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Recommend blocked on taste-memory update")
	}
	if memory.recordedCount() != 0 {
		t.Fatal("memory update completed before release; test cannot prove detachment")
	}

	close(memory.block)
	deadline := time.After(time.Second)
	for memory.recordedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("detached memory update never ran")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestRecommend_MemoryBoostRaisesScore(t *testing.T) {
	response := `{"recommendations":[{"title":"Heat"}]}`
	finder := func() *fakeFinder {
		return &fakeFinder{records: map[string]MovieRecord{
			"Heat": {ID: "m1", Title: "Heat", Genres: []string{"Crime"}},
		}}
	}

	without := newTestEngine(t, &fakeCompleter{response: response}, finder(), &fakeSearcher{}, &fakeMemory{})
	with := newTestEngine(t, &fakeCompleter{response: response}, finder(), &fakeSearcher{}, &fakeMemory{
		profile: &TasteProfile{
			Affinity:  map[string]float64{"crime": 1.0},
			UpdatedAt: time.Now(),
		},
	})

	base, err := without.Recommend(context.Background(), Request{UserID: "u1", Query: "q"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	boosted, err := with.Recommend(context.Background(), Request{UserID: "u1", Query: "q"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	if boosted.Items[0].Score <= base.Items[0].Score {
		t.Errorf("memory affinity did not raise score: %f <= %f",
			boosted.Items[0].Score, base.Items[0].Score)
	}
}

func TestFingerprint(t *testing.T) {
	a := Request{UserID: "u1", Intent: "similar", Query: "space operas", K: 10}
	b := Request{UserID: "u1", Intent: "similar", Query: "space operas", K: 25}
	c := Request{UserID: "u2", Intent: "similar", Query: "space operas"}

	if Fingerprint(a) != Fingerprint(b) {
		t.Error("K must not affect the fingerprint")
	}
	if Fingerprint(a) == Fingerprint(c) {
		t.Error("different users must not share a fingerprint")
	}
}

func TestYearRecency(t *testing.T) {
	tests := []struct {
		year, current int
		want          float64
	}{
		{2026, 2026, 1.0},
		{2001, 2026, 0.5},
		{1950, 2026, 0},
		{0, 2026, 0},
		{2030, 2026, 0}, // future years carry no recency signal
	}
	for _, tt := range tests {
		if got := yearRecency(tt.year, tt.current); !almostEqual(got, tt.want) {
			t.Errorf("yearRecency(%d, %d) = %f, want %f", tt.year, tt.current, got, tt.want)
		}
	}
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		text, query string
		want        float64
	}{
		{"a tense heist classic", "heist thrillers", 0.5},
		{"a tense heist thriller classic", "heist thriller", 1.0},
		{"romantic comedy", "heist", 0},
		{"", "heist", 0},
		{"anything", "", 0},
	}
	for _, tt := range tests {
		if got := tokenOverlap(tt.text, tt.query); !almostEqual(got, tt.want) {
			t.Errorf("tokenOverlap(%q, %q) = %f, want %f", tt.text, tt.query, got, tt.want)
		}
	}
}
