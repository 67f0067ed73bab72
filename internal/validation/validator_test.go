// MovieApp - AI-Assisted Movie Recommendations
// Copyright 2026 P. Mahajan (pmahajan3105)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahajan3105/movieapp-sub009

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	UserID string `validate:"required"`
	Query  string `validate:"required,max=500"`
	K      int    `validate:"omitempty,min=1,max=50"`
}

func TestValidateStruct_Valid(t *testing.T) {
	req := sampleRequest{UserID: "u1", Query: "tense thrillers", K: 10}
	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("ValidateStruct() error = %v, want nil", err)
	}
}

func TestValidateStruct_MissingRequired(t *testing.T) {
	req := sampleRequest{Query: "tense thrillers"}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	if len(err.Fields) != 1 {
		t.Fatalf("len(Fields) = %d, want 1", len(err.Fields))
	}
	if err.Fields[0].Field != "UserID" || err.Fields[0].Tag != "required" {
		t.Errorf("unexpected field error: %+v", err.Fields[0])
	}
	if want := "UserID is required"; err.Fields[0].Message != want {
		t.Errorf("Message = %q, want %q", err.Fields[0].Message, want)
	}
}

func TestValidateStruct_MultipleFailures(t *testing.T) {
	req := sampleRequest{K: 99}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	if len(err.Fields) != 3 {
		t.Fatalf("len(Fields) = %d, want 3: %v", len(err.Fields), err)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() = %q, want joined messages", err.Error())
	}
}

func TestValidateStruct_RangeMessages(t *testing.T) {
	req := sampleRequest{UserID: "u1", Query: "q", K: 51}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() = nil, want error")
	}
	if want := "K must be at most 50"; err.Fields[0].Message != want {
		t.Errorf("Message = %q, want %q", err.Fields[0].Message, want)
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() returned different instances")
	}
}
