// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pmahajan3105/movieapp-sub009/internal/recommend"
)

func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		BaseURL:           serverURL,
		APIKey:            "test-key",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	})
}

func TestSearch(t *testing.T) {
	var gotQuery, gotYear, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotYear = r.URL.Query().Get("year")
		gotKey = r.URL.Query().Get("api_key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"id":603,"title":"The Matrix","release_date":"1999-03-31","overview":"A hacker learns the truth.","vote_average":8.2,"popularity":85.3},
			{"id":604,"title":"The Matrix Reloaded","release_date":"2003-05-15","overview":"Neo returns.","vote_average":7.0,"popularity":60.1}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	records, err := client.Search(context.Background(), "The Matrix", recommend.SearchOptions{Year: 1999, Limit: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotQuery != "The Matrix" {
		t.Errorf("query param = %q, want %q", gotQuery, "The Matrix")
	}
	if gotYear != "1999" {
		t.Errorf("year param = %q, want %q", gotYear, "1999")
	}
	if gotKey != "test-key" {
		t.Errorf("api_key param = %q, want %q", gotKey, "test-key")
	}

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	first := records[0]
	if first.ID != "tmdb:603" {
		t.Errorf("ID = %q, want %q", first.ID, "tmdb:603")
	}
	if first.Title != "The Matrix" {
		t.Errorf("Title = %q, want %q", first.Title, "The Matrix")
	}
	if first.Year != 1999 {
		t.Errorf("Year = %d, want 1999", first.Year)
	}
	if first.Rating != 8.2 {
		t.Errorf("Rating = %v, want 8.2", first.Rating)
	}
	if first.Popularity != 85.3 {
		t.Errorf("Popularity = %v, want 85.3", first.Popularity)
	}
}

func TestSearch_LimitTruncatesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"id":1,"title":"A","release_date":"2001-01-01"},
			{"id":2,"title":"B","release_date":"2002-01-01"},
			{"id":3,"title":"C","release_date":"2003-01-01"}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	records, err := client.Search(context.Background(), "anything", recommend.SearchOptions{Limit: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Title != "A" || records[1].Title != "B" {
		t.Errorf("records not in provider order: %q, %q", records[0].Title, records[1].Title)
	}
}

func TestSearch_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	records, err := client.Search(context.Background(), "nonexistent", recommend.SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}

func TestSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Search(context.Background(), "anything", recommend.SearchOptions{})
	if err == nil {
		t.Fatal("Search() error = nil, want error on 500")
	}
}

func TestSearch_BreakerOpensOnRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	// Drive 12 consecutive failures; the breaker trips at a 60% failure
	// rate over at least 10 observed requests.
	for i := 0; i < 12; i++ {
		_, _ = client.Search(context.Background(), "anything", recommend.SearchOptions{})
	}

	_, err := client.Search(context.Background(), "anything", recommend.SearchOptions{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("Search() error = %v, want ErrOpenState", err)
	}
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"1999-03-31", 1999},
		{"2024-01-01", 2024},
		{"", 0},
		{"bad", 0},
		{"abcd-01-01", 0},
	}
	for _, tt := range tests {
		if got := releaseYear(tt.date); got != tt.want {
			t.Errorf("releaseYear(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}
