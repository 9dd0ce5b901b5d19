package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/madinabek/flowershop-backend/pkg/errors"
)

type samplePayload struct {
	Variety string `json:"variety" validate:"required"`
	Qty     int    `json:"qty" validate:"required,min=1"`
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"variety":"red naomi","qty":25}`))

	var payload samplePayload
	if err := DecodeJSONBody(req, &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Variety != "red naomi" || payload.Qty != 25 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"variety":"peony","qty":2,"color":"pink"}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"qty":0}`))

	var payload samplePayload
	err := DecodeJSONBody(req, &payload)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if _, ok := details["variety"]; !ok {
		t.Fatalf("expected variety in details: %v", details)
	}
	if _, ok := details["qty"]; !ok {
		t.Fatalf("expected qty in details: %v", details)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=50", nil)
	got, err := ParseQueryInt(req, "limit", 25, 1, 100)
	if err != nil || got != 50 {
		t.Fatalf("expected 50, got %d (%v)", got, err)
	}

	req = httptest.NewRequest("GET", "/", nil)
	got, err = ParseQueryInt(req, "limit", 25, 1, 100)
	if err != nil || got != 25 {
		t.Fatalf("expected default 25, got %d (%v)", got, err)
	}

	req = httptest.NewRequest("GET", "/?limit=abc", nil)
	if _, err = ParseQueryInt(req, "limit", 25, 1, 100); err == nil {
		t.Fatalf("expected error for non-numeric limit")
	}

	req = httptest.NewRequest("GET", "/?limit=500", nil)
	if _, err = ParseQueryInt(req, "limit", 25, 1, 100); err == nil {
		t.Fatalf("expected error for out of range limit")
	}
}
