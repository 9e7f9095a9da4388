package questionforge

import "time"

// GenerationRequest describes one question to produce. It fully determines
// which template is used and is discarded after the call.
type GenerationRequest struct {
	Product    string `json:"product"`    // e.g. "vic-selective"
	Section    string `json:"section"`    // e.g. "verbal-reasoning"
	SubSkill   string `json:"sub_skill"`  // e.g. "vocabulary-synonyms"
	Difficulty int    `json:"difficulty"` // 1-3
	YearLevel  int    `json:"year_level"` // target school year
}

// Question is a candidate item parsed from the completion service. A failed
// question is discarded, never patched; every attempt produces a fresh one.
type Question struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"` // must equal one option verbatim
	Solution      string    `json:"solution"`
	SubSkill      string    `json:"sub_skill"`
	Difficulty    int       `json:"difficulty"`
	Product       string    `json:"product"`
	PassageTopic  string    `json:"passage_topic,omitempty"`
	PassageText   string    `json:"passage_text,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidationResult accumulates every defect found in a candidate question.
// Zero errors means acceptance; any error means rejection.
type ValidationResult struct {
	Errors []string `json:"errors"`
}

// Valid reports whether the question passed every check.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// VerifyResult is the answer verifier's judgment on a candidate question.
type VerifyResult struct {
	IsCorrect bool   `json:"is_correct"`
	Reasoning string `json:"reasoning"`
}

// GenerationResult is the only thing returned to batch callers: the final
// aggregate outcome plus attempt/latency/cost telemetry. Failed attempts are
// not free — their cost is included.
type GenerationResult struct {
	Success  bool          `json:"success"`
	Question *Question     `json:"question,omitempty"`
	Error    string        `json:"error,omitempty"`
	Attempts int           `json:"attempts"`
	Elapsed  time.Duration `json:"elapsed"`
	Cost     float64       `json:"cost"` // USD across all calls for this request
}

// attemptOutcome tags why a single generation attempt ended, so retry policy,
// logging and the final error message all branch on the same value.
type attemptOutcome int

const (
	outcomeSuccess attemptOutcome = iota
	outcomeTransport
	outcomeValidation
	outcomeDuplicate
	outcomeVerification
)

func (o attemptOutcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeTransport:
		return "transport"
	case outcomeValidation:
		return "validation"
	case outcomeDuplicate:
		return "duplicate"
	case outcomeVerification:
		return "verification"
	default:
		return "unknown"
	}
}
