package questionforge

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestVerifier(client *stubClient) *AnswerVerifier {
	return NewAnswerVerifier(client, testConfig(), zerolog.Nop())
}

func TestNeedsVerificationGating(t *testing.T) {
	cases := map[string]bool{
		"vocabulary-synonyms":          true,
		"vocabulary-antonyms":          true,
		"verbal-analogies":             true,
		"logical-deduction-select-two": true,
		"language-decoding":            true,
		"numerical-sequencing":         true,
		"reading-inference":            false,
		"creative-writing-prompt":      false,
	}
	for subSkill, want := range cases {
		if got := NeedsVerification(subSkill); got != want {
			t.Fatalf("NeedsVerification(%q) = %v, want %v", subSkill, got, want)
		}
	}
}

func TestVerifyParsesYesVerdict(t *testing.T) {
	client := &stubClient{responses: []stubResponse{
		textCompletion("VERDICT: YES\nREASONING: The chain of orderings is valid."),
	}}
	v := newTestVerifier(client)

	result, cost := v.Verify(context.Background(), validSynonymQuestion())
	if !result.IsCorrect {
		t.Fatalf("expected a YES verdict, got %+v", result)
	}
	if result.Reasoning != "The chain of orderings is valid." {
		t.Fatalf("reasoning not captured, got %q", result.Reasoning)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 call, got %d", client.calls)
	}
	if math.Abs(cost-perCallCost()) > 1e-9 {
		t.Fatalf("expected cost %v, got %v", perCallCost(), cost)
	}
}

func TestVerifyCleanNoIsNotRetried(t *testing.T) {
	client := &stubClient{responses: []stubResponse{
		textCompletion("VERDICT: NO\nREASONING: Option B is also a synonym of the target."),
	}}
	v := newTestVerifier(client)

	result, _ := v.Verify(context.Background(), validSynonymQuestion())
	if result.IsCorrect {
		t.Fatalf("expected a NO verdict")
	}
	if !strings.Contains(result.Reasoning, "also a synonym") {
		t.Fatalf("reasoning not captured, got %q", result.Reasoning)
	}
	// A NO is a content judgment, not a fault: one call only.
	if client.calls != 1 {
		t.Fatalf("a clean NO must not be retried, got %d calls", client.calls)
	}
}

func TestVerifyFailsClosedOnUnparseableOutput(t *testing.T) {
	client := &stubClient{responses: []stubResponse{
		textCompletion("The answer looks right to me."),
	}}
	v := newTestVerifier(client)

	result, _ := v.Verify(context.Background(), validSynonymQuestion())
	if result.IsCorrect {
		t.Fatalf("unparseable verifier output must fail closed")
	}
	if !strings.Contains(result.Reasoning, "VERDICT") {
		t.Fatalf("reasoning should explain the parse failure, got %q", result.Reasoning)
	}
	if client.calls != 1 {
		t.Fatalf("unparseable output must not be retried, got %d calls", client.calls)
	}
}

func TestVerifyRetriesTransportErrorOnce(t *testing.T) {
	client := &stubClient{responses: []stubResponse{
		{err: fmt.Errorf("completion request failed: timeout")},
		textCompletion("VERDICT: YES\nREASONING: Independently confirmed."),
	}}
	v := newTestVerifier(client)

	result, _ := v.Verify(context.Background(), validSynonymQuestion())
	if !result.IsCorrect {
		t.Fatalf("expected success after transport retry, got %+v", result)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", client.calls)
	}
}

func TestVerifyFailsClosedWhenTransportKeepsFailing(t *testing.T) {
	client := &stubClient{responses: []stubResponse{
		{err: fmt.Errorf("completion request failed: timeout")},
	}}
	v := newTestVerifier(client)

	result, _ := v.Verify(context.Background(), validSynonymQuestion())
	if result.IsCorrect {
		t.Fatalf("persistent transport failure must fail closed")
	}
	if client.calls != verifyAttempts {
		t.Fatalf("expected %d calls, got %d", verifyAttempts, client.calls)
	}
	if !strings.Contains(result.Reasoning, "verification call failed") {
		t.Fatalf("reasoning should report the transport failure, got %q", result.Reasoning)
	}
}

func TestVerifyPromptRestatesQuestion(t *testing.T) {
	client := &stubClient{responses: []stubResponse{
		textCompletion("VERDICT: YES\nREASONING: Confirmed."),
	}}
	v := newTestVerifier(client)

	q := validSynonymQuestion()
	v.Verify(context.Background(), q)

	prompt := client.prompts[0]
	if !strings.Contains(prompt, q.Text) {
		t.Fatalf("prompt must restate the question text")
	}
	for _, opt := range q.Options {
		if !strings.Contains(prompt, opt) {
			t.Fatalf("prompt must list every option, missing %q", opt)
		}
	}
	if !strings.Contains(prompt, "Claimed correct answer: calm") {
		t.Fatalf("prompt must state the claimed answer:\n%s", prompt)
	}
	if !strings.Contains(prompt, "VERDICT") {
		t.Fatalf("prompt must ask for the two-line verdict format")
	}
}
