package questionforge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxAttempts bounds the end-to-end generation cycles per logical request.
const MaxAttempts = 3

// attemptBackoff is the pause after a failed attempt before re-prompting.
const attemptBackoff = 500 * time.Millisecond

// Generator drives the full pipeline for one request at a time: build the
// prompt, call the completion service, run the validation stages in order and
// retry on any stage failure up to MaxAttempts.
//
// The generator owns no shared state beyond the injected DiversityTracker,
// which must not be shared with concurrent callers (see DiversityTracker).
type Generator struct {
	client   CompletionClient
	registry *TemplateRegistry
	tracker  *DiversityTracker
	verifier *AnswerVerifier
	cfg      *Config
	log      zerolog.Logger
	llmLog   *LLMLogger
}

// NewGenerator wires the pipeline together.
func NewGenerator(client CompletionClient, registry *TemplateRegistry, tracker *DiversityTracker, cfg *Config, log zerolog.Logger) *Generator {
	return &Generator{
		client:   client,
		registry: registry,
		tracker:  tracker,
		verifier: NewAnswerVerifier(client, cfg, log),
		cfg:      cfg,
		log:      log,
	}
}

// SetLLMLogger attaches an optional prompt/response transcript log.
func (g *Generator) SetLLMLogger(l *LLMLogger) {
	g.llmLog = l
}

// SetVerifierClient routes confirmatory calls through a separate client, so
// verification can run on a different model than generation.
func (g *Generator) SetVerifierClient(client CompletionClient) {
	g.verifier = NewAnswerVerifier(client, g.cfg, g.log)
}

// GenerateQuestion produces one validated question for the request. The
// returned error is non-nil only when no template is registered for the
// sub-skill; every per-attempt failure is folded into the result, and an
// exhausted request reports the last attempt's error message.
func (g *Generator) GenerateQuestion(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	tmpl, err := g.registry.Resolve(req.SubSkill)
	if err != nil {
		return GenerationResult{}, err
	}

	start := time.Now()
	var totalCost float64
	var lastErr string

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		outcome, q, msg, cost := g.attempt(ctx, req, tmpl)
		totalCost += cost

		if outcome == outcomeSuccess {
			g.tracker.Track(q)
			g.log.Info().
				Str("sub_skill", req.SubSkill).
				Str("question_id", q.ID).
				Int("attempt", attempt).
				Float64("cost", totalCost).
				Msg("question accepted")
			if g.llmLog != nil {
				g.llmLog.LogAttempt(attempt, outcome.String(), q.ID)
			}
			return GenerationResult{
				Success:  true,
				Question: q,
				Attempts: attempt,
				Elapsed:  time.Since(start),
				Cost:     totalCost,
			}, nil
		}

		lastErr = msg
		g.log.Warn().
			Str("sub_skill", req.SubSkill).
			Int("attempt", attempt).
			Str("outcome", outcome.String()).
			Str("reason", msg).
			Msg("attempt rejected")
		if g.llmLog != nil {
			g.llmLog.LogAttempt(attempt, outcome.String(), msg)
		}
		if attempt < MaxAttempts {
			sleepCtx(ctx, time.Duration(attempt)*attemptBackoff)
		}
	}

	return GenerationResult{
		Success:  false,
		Error:    lastErr,
		Attempts: MaxAttempts,
		Elapsed:  time.Since(start),
		Cost:     totalCost,
	}, nil
}

// attempt runs one full generation cycle: prompt, complete, decode,
// quick-check, duplicate-check, verify. The returned cost covers every
// completion call the attempt made, whether or not it succeeded.
func (g *Generator) attempt(ctx context.Context, req GenerationRequest, tmpl *Template) (attemptOutcome, *Question, string, float64) {
	guidance := g.tracker.BuildGuidance()
	prompt, err := tmpl.Render(req, guidance.Text)
	if err != nil {
		return outcomeValidation, nil, fmt.Sprintf("prompt render failed: %v", err), 0
	}

	if g.llmLog != nil {
		g.llmLog.LogRequest("generator", prompt)
	}

	comp, err := g.client.Complete(ctx, prompt, g.cfg.Temperature, g.cfg.MaxTokens)
	cost := callCost(g.cfg, comp)
	if err != nil {
		return outcomeTransport, nil, err.Error(), cost
	}
	if g.llmLog != nil {
		g.llmLog.LogResponse("generator", comp.Text)
	}

	q, err := g.decodeQuestion(comp.Text, req)
	if err != nil {
		// Decode failures are transport-class: retry, don't patch.
		return outcomeTransport, nil, err.Error(), cost
	}

	if check := QuickCheck(q, tmpl); !check.Valid() {
		return outcomeValidation, nil, "quick validation failed: " + strings.Join(check.Errors, "; "), cost
	}

	if g.tracker.IsDuplicate(q) {
		return outcomeDuplicate, nil, "near-duplicate of a recently accepted question", cost
	}

	if tmpl.NeedsVerification {
		verdict, vcost := g.verifier.Verify(ctx, q)
		cost += vcost
		if !verdict.IsCorrect {
			return outcomeVerification, nil, "answer verification failed: " + verdict.Reasoning, cost
		}
	}

	return outcomeSuccess, q, "", cost
}

// decodeQuestion parses the first balanced JSON object in the response into a
// Question. Only structural failures (no object, bad JSON, wrong types) are
// errors here; missing fields are left for QuickCheck so one pass reports
// every content defect.
func (g *Generator) decodeQuestion(text string, req GenerationRequest) (*Question, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Text          string   `json:"text"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"correct_answer"`
		Solution      string   `json:"solution"`
		PassageTopic  string   `json:"passage_topic"`
		PassageText   string   `json:"passage_text"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return &Question{
		ID:            uuid.NewString(),
		Text:          payload.Text,
		Options:       payload.Options,
		CorrectAnswer: payload.CorrectAnswer,
		Solution:      payload.Solution,
		SubSkill:      req.SubSkill,
		Difficulty:    req.Difficulty,
		Product:       req.Product,
		PassageTopic:  payload.PassageTopic,
		PassageText:   payload.PassageText,
		CreatedAt:     time.Now(),
	}, nil
}
