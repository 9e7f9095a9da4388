package questionforge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// objectiveStems mark sub-skills whose correct answer can be externally
// adjudicated by an independent deterministic query. Subjective sub-skills
// (e.g. reading inference) are never sent to the verifier.
var objectiveStems = []string{
	"vocab", "math", "calculation", "logic", "analog",
	"decod", "anagram", "sequenc", "deduction",
}

// NeedsVerification reports whether a sub-skill key is objectively checkable.
func NeedsVerification(subSkill string) bool {
	key := strings.ToLower(subSkill)
	for _, stem := range objectiveStems {
		if strings.Contains(key, stem) {
			return true
		}
	}
	return false
}

const verifyAttempts = 2

var (
	verdictRe   = regexp.MustCompile(`(?im)^\s*VERDICT:\s*(YES|NO)\b`)
	reasoningRe = regexp.MustCompile(`(?im)^\s*REASONING:\s*(.+)$`)
)

// AnswerVerifier issues one independent temperature-zero confirmatory call
// asking whether the stated answer is truly and uniquely correct.
type AnswerVerifier struct {
	client CompletionClient
	cfg    *Config
	log    zerolog.Logger
}

// NewAnswerVerifier creates a verifier sharing the pipeline's client.
func NewAnswerVerifier(client CompletionClient, cfg *Config, log zerolog.Logger) *AnswerVerifier {
	return &AnswerVerifier{client: client, cfg: cfg, log: log}
}

// Verify checks the question's stated answer. It retries only transport
// errors, with linear backoff; a clean NO verdict is a content judgment and
// is never retried. On transport or parse failure it fails closed and
// reports the question incorrect. The second return value is the accumulated
// cost of every call made.
func (v *AnswerVerifier) Verify(ctx context.Context, q *Question) (VerifyResult, float64) {
	prompt := v.buildPrompt(q)
	var cost float64

	for attempt := 1; attempt <= verifyAttempts; attempt++ {
		comp, err := v.client.Complete(ctx, prompt, 0, 400)
		cost += callCost(v.cfg, comp)
		if err != nil {
			v.log.Warn().Err(err).Int("attempt", attempt).Str("question_id", q.ID).
				Msg("verification call failed")
			if attempt < verifyAttempts {
				sleepCtx(ctx, time.Duration(attempt)*time.Second)
				continue
			}
			return VerifyResult{IsCorrect: false, Reasoning: fmt.Sprintf("verification call failed: %v", err)}, cost
		}

		verdict := verdictRe.FindStringSubmatch(comp.Text)
		if verdict == nil {
			// Unparseable output is not a transport failure worth retrying.
			return VerifyResult{IsCorrect: false, Reasoning: "verifier response had no VERDICT line"}, cost
		}

		reasoning := ""
		if m := reasoningRe.FindStringSubmatch(comp.Text); m != nil {
			reasoning = strings.TrimSpace(m[1])
		}
		return VerifyResult{
			IsCorrect: strings.EqualFold(verdict[1], "YES"),
			Reasoning: reasoning,
		}, cost
	}

	return VerifyResult{IsCorrect: false, Reasoning: "verification attempts exhausted"}, cost
}

func (v *AnswerVerifier) buildPrompt(q *Question) string {
	var sb strings.Builder

	sb.WriteString("You are checking a multiple-choice test question for correctness.\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", q.Text)
	sb.WriteString("Options:\n")
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "%c) %s\n", 'A'+i, opt)
	}
	fmt.Fprintf(&sb, "\nClaimed correct answer: %s\n", q.CorrectAnswer)
	fmt.Fprintf(&sb, "Claimed solution: %s\n\n", q.Solution)

	sb.WriteString("Is the claimed answer truly correct, and is it the ONLY correct option?\n")
	sb.WriteString("Work through the question independently before answering.\n\n")
	sb.WriteString("Reply with exactly two lines:\n")
	sb.WriteString("VERDICT: YES or NO\n")
	sb.WriteString("REASONING: one sentence explaining your verdict\n")

	return sb.String()
}

// sleepCtx sleeps for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
