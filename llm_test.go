package questionforge

import (
	"errors"
	"math"
	"testing"
)

func TestExtractJSONObjectPlain(t *testing.T) {
	in := `{"text": "hello", "options": ["a"]}`
	got, err := ExtractJSONObject(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != in {
		t.Fatalf("expected the object unchanged, got %q", got)
	}
}

func TestExtractJSONObjectSkipsSurroundingProse(t *testing.T) {
	in := "Sure! Here is your question:\n\n" +
		`{"text": "hello"}` +
		"\n\nLet me know if you'd like another."
	got, err := ExtractJSONObject(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"text": "hello"}` {
		t.Fatalf("prose not stripped, got %q", got)
	}
}

func TestExtractJSONObjectStripsCodeFence(t *testing.T) {
	in := "```json\n{\"text\": \"hello\"}\n```"
	got, err := ExtractJSONObject(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"text": "hello"}` {
		t.Fatalf("fence not stripped, got %q", got)
	}
}

func TestExtractJSONObjectHandlesNestingAndStrings(t *testing.T) {
	// Braces inside string values must not affect balancing.
	in := `{"solution": "use {braces} freely \" here", "meta": {"depth": 2}} trailing`
	got, err := ExtractJSONObject(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"solution": "use {braces} freely \" here", "meta": {"depth": 2}}`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractJSONObjectNoObject(t *testing.T) {
	_, err := ExtractJSONObject("I could not produce a question this time.")
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestExtractJSONObjectUnbalanced(t *testing.T) {
	_, err := ExtractJSONObject(`{"text": "truncated mid-`)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestCallCostPricesTokensSeparately(t *testing.T) {
	cfg := &Config{InputCostPerMTok: 2.5, OutputCostPerMTok: 10}

	got := callCost(cfg, Completion{InputTokens: 1_000_000})
	if math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("one million input tokens should cost 2.5, got %v", got)
	}

	got = callCost(cfg, Completion{InputTokens: 400_000, OutputTokens: 100_000})
	if math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("expected 2.0, got %v", got)
	}

	if got := callCost(cfg, Completion{}); got != 0 {
		t.Fatalf("an empty completion costs nothing, got %v", got)
	}
}
