package questionforge

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TemplateExample is one worked example spliced into the prompt.
type TemplateExample struct {
	Question    string
	Options     []string
	Answer      string
	Explanation string
}

// Template defines a question archetype for one sub-skill. Templates are
// registered once at process start and are read-only thereafter.
type Template struct {
	Type              string
	Skeleton          string
	Examples          []TemplateExample
	Requirements      []string // plain-language, for human review only
	NeedsVerification bool
	SelectTwo         bool
	// Placeholders lists every [NAME] token the skeleton uses, so tests can
	// verify that Render supplies all of them.
	Placeholders       []string
	DifficultyGuidance map[int]string
	// SentenceCount scales the decoding-puzzle length by difficulty tier.
	SentenceCount map[int]int
}

// ErrTemplateNotFound is returned when a sub-skill has no registered template.
var ErrTemplateNotFound = errors.New("no template registered for sub-skill")

// TemplateRegistry maps sub-skill keys to templates. Static after boot.
type TemplateRegistry struct {
	templates map[string]*Template
}

// Resolve looks up the template for a sub-skill key.
func (r *TemplateRegistry) Resolve(subSkill string) (*Template, error) {
	t, ok := r.templates[subSkill]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, subSkill)
	}
	return t, nil
}

// SubSkills returns the registered sub-skill keys in sorted order.
func (r *TemplateRegistry) SubSkills() []string {
	keys := make([]string, 0, len(r.templates))
	for k := range r.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render fills the skeleton's placeholders. All branching lives in the
// per-template guidance tables; this is pure string substitution.
func (t *Template) Render(req GenerationRequest, diversityGuidance string) (string, error) {
	values := map[string]string{
		"DIFFICULTY":          difficultyDescriptor(req.Difficulty),
		"DIFFICULTY_GUIDANCE": t.DifficultyGuidance[req.Difficulty],
		"EXAMPLES":            formatExamples(t.Examples),
		"DIVERSITY_GUIDANCE":  diversityGuidance,
		"YEAR_LEVEL":          strconv.Itoa(req.YearLevel),
	}
	if t.SentenceCount != nil {
		values["SENTENCE_COUNT"] = strconv.Itoa(t.SentenceCount[req.Difficulty])
	}

	out := t.Skeleton
	for _, name := range t.Placeholders {
		v, ok := values[name]
		if !ok || v == "" {
			return "", fmt.Errorf("template %s: no value for placeholder [%s]", t.Type, name)
		}
		out = strings.ReplaceAll(out, "["+name+"]", v)
	}
	return out, nil
}

func difficultyDescriptor(tier int) string {
	switch tier {
	case 1:
		return "foundation"
	case 2:
		return "intermediate"
	default:
		return "advanced"
	}
}

func formatExamples(examples []TemplateExample) string {
	var sb strings.Builder
	for i, ex := range examples {
		fmt.Fprintf(&sb, "Example %d:\n", i+1)
		fmt.Fprintf(&sb, "Question: %s\n", ex.Question)
		sb.WriteString("Options:\n")
		for j, opt := range ex.Options {
			fmt.Fprintf(&sb, "  %c) %s\n", 'A'+j, opt)
		}
		fmt.Fprintf(&sb, "Correct answer: %s\n", ex.Answer)
		fmt.Fprintf(&sb, "Solution: %s\n\n", ex.Explanation)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// outputContract is appended to every skeleton so the model replies with a
// single decodable JSON object.
const outputContract = `
Respond with a single JSON object and nothing else:
{"text": "...", "options": ["...", "...", "...", "...", "..."], "correct_answer": "...", "solution": "..."}
The correct_answer value must match one of the options exactly. The solution
must be one or two sentences. Use Australian English spelling throughout.`

// NewTemplateRegistry registers every built-in template.
func NewTemplateRegistry() *TemplateRegistry {
	r := &TemplateRegistry{templates: make(map[string]*Template)}
	for _, t := range []*Template{
		synonymTemplate(),
		antonymTemplate(),
		analogyTemplate(),
		selectTwoTemplate(),
		decodingTemplate(),
		sequencingTemplate(),
		readingInferenceTemplate(),
	} {
		r.templates[t.Type] = t
	}
	return r
}

func synonymTemplate() *Template {
	return &Template{
		Type:              "vocabulary-synonyms",
		NeedsVerification: true,
		Placeholders:      []string{"DIFFICULTY", "DIFFICULTY_GUIDANCE", "EXAMPLES", "DIVERSITY_GUIDANCE", "YEAR_LEVEL"},
		Skeleton: `Write one [DIFFICULTY] multiple-choice synonym question for a Year [YEAR_LEVEL]
selective-entry test candidate.

The question names a target word and asks which option is closest in meaning.
Provide exactly 5 options. Exactly one option must be a true synonym of the
target word; the other four must be plausible but wrong (related field,
near-miss sense, antonym, or similar-sounding word).

[DIFFICULTY_GUIDANCE]

The solution must use the fixed format: "Both 'X' and 'Y' mean Z."

[EXAMPLES]

[DIVERSITY_GUIDANCE]
` + outputContract,
		Examples: []TemplateExample{
			{
				Question:    "Which word is closest in meaning to 'frugal'?",
				Options:     []string{"thrifty", "wealthy", "generous", "careless", "hungry"},
				Answer:      "thrifty",
				Explanation: "Both 'frugal' and 'thrifty' mean careful about spending money.",
			},
			{
				Question:    "Which word is closest in meaning to 'candid'?",
				Options:     []string{"frank", "secretive", "sweet", "hidden", "polite"},
				Answer:      "frank",
				Explanation: "Both 'candid' and 'frank' mean open and honest in speech.",
			},
		},
		Requirements: []string{
			"Target word must suit the stated year level",
			"Distractors must not be synonyms of each other",
			"Solution follows the \"Both 'X' and 'Y' mean Z.\" format",
		},
		DifficultyGuidance: map[int]string{
			1: "Use a common target word a capable Year 5 reader would know. Distractors should differ clearly in meaning.",
			2: "Use a less common target word. At least one distractor should share a context with the target (e.g. both describe people).",
			3: "Use a sophisticated target word with a subtle near-miss distractor that differs only in connotation or degree.",
		},
	}
}

func antonymTemplate() *Template {
	return &Template{
		Type:              "vocabulary-antonyms",
		NeedsVerification: true,
		Placeholders:      []string{"DIFFICULTY", "DIFFICULTY_GUIDANCE", "EXAMPLES", "DIVERSITY_GUIDANCE", "YEAR_LEVEL"},
		Skeleton: `Write one [DIFFICULTY] multiple-choice antonym question for a Year [YEAR_LEVEL]
selective-entry test candidate.

The question names a target word and asks which option is most nearly opposite
in meaning. Provide exactly 5 options with exactly one true antonym; include
one synonym of the target as a trap distractor.

[DIFFICULTY_GUIDANCE]

[EXAMPLES]

[DIVERSITY_GUIDANCE]
` + outputContract,
		Examples: []TemplateExample{
			{
				Question:    "Which word is most nearly opposite in meaning to 'expand'?",
				Options:     []string{"contract", "enlarge", "explode", "measure", "stretch"},
				Answer:      "contract",
				Explanation: "To expand is to grow larger, while to contract is to become smaller.",
			},
		},
		Requirements: []string{
			"Exactly one option is a genuine antonym",
			"Include a synonym of the target word as a distractor",
		},
		DifficultyGuidance: map[int]string{
			1: "Use an everyday target word with an unmistakable opposite.",
			2: "Use a moderately difficult target word; the synonym trap should be tempting.",
			3: "Use an advanced target word where the antonym relationship is one of degree or register, not a simple reversal.",
		},
	}
}

func analogyTemplate() *Template {
	return &Template{
		Type:              "verbal-analogies",
		NeedsVerification: true,
		Placeholders:      []string{"DIFFICULTY", "DIFFICULTY_GUIDANCE", "EXAMPLES", "DIVERSITY_GUIDANCE", "YEAR_LEVEL"},
		Skeleton: `Write one [DIFFICULTY] verbal analogy question for a Year [YEAR_LEVEL]
selective-entry test candidate, in the form "A is to B as C is to ?".

Provide exactly 5 options. The relationship between A and B must be a single
clear one (part-whole, worker-tool, cause-effect, category-member, degree) and
the correct option must complete the same relationship for C.

[DIFFICULTY_GUIDANCE]

[EXAMPLES]

[DIVERSITY_GUIDANCE]
` + outputContract,
		Examples: []TemplateExample{
			{
				Question:    "Sculptor is to chisel as surgeon is to ?",
				Options:     []string{"scalpel", "hospital", "patient", "medicine", "gloves"},
				Answer:      "scalpel",
				Explanation: "A sculptor's characteristic cutting tool is a chisel, and a surgeon's is a scalpel.",
			},
		},
		Requirements: []string{
			"The A:B relationship must be nameable in one phrase",
			"Distractors should be associated with C but fail the relationship",
		},
		DifficultyGuidance: map[int]string{
			1: "Use a concrete, familiar relationship such as part-whole or worker-tool.",
			2: "Use a functional or causal relationship; at least two distractors should be strongly associated with C.",
			3: "Use an abstract relationship such as degree or sequence, where the trap options mirror a different but plausible relationship.",
		},
	}
}

func selectTwoTemplate() *Template {
	return &Template{
		Type:              "logical-deduction-select-two",
		NeedsVerification: true,
		SelectTwo:         true,
		Placeholders:      []string{"DIFFICULTY", "DIFFICULTY_GUIDANCE", "EXAMPLES", "DIVERSITY_GUIDANCE", "YEAR_LEVEL"},
		Skeleton: `Write one [DIFFICULTY] logical deduction question for a Year [YEAR_LEVEL]
selective-entry test candidate.

Present five numbered statements (1-5) inside the question text, then ask which
two statements together prove the stated conclusion. The options must be
exactly 5 pair tokens of the form "N & M" (for example "1 & 3"), and the
correct answer must be the one pair that is jointly sufficient. No other pair
may be sufficient.

[DIFFICULTY_GUIDANCE]

[EXAMPLES]

[DIVERSITY_GUIDANCE]
` + outputContract,
		Examples: []TemplateExample{
			{
				Question: "Conclusion: Priya finished ahead of Tom.\n" +
					"1. Priya finished ahead of Sam.\n" +
					"2. Tom finished behind Lena.\n" +
					"3. Sam finished ahead of Tom.\n" +
					"4. Lena finished ahead of Priya.\n" +
					"5. Tom finished ahead of Sam.\n" +
					"Which two statements together prove the conclusion?",
				Options:     []string{"1 & 3", "2 & 4", "1 & 5", "3 & 4", "2 & 5"},
				Answer:      "1 & 3",
				Explanation: "Statement 1 places Priya ahead of Sam and statement 3 places Sam ahead of Tom, so Priya finished ahead of Tom.",
			},
		},
		Requirements: []string{
			"Exactly one pair of statements is jointly sufficient",
			"Each statement must be usable on its own terms with no outside knowledge",
		},
		DifficultyGuidance: map[int]string{
			1: "Use a two-step ordering chain over four named people.",
			2: "Use five named people and include one statement that is true but redundant.",
			3: "Use a mix of ordering and conditional statements so the sufficient pair is not the obvious adjacent chain.",
		},
	}
}

func decodingTemplate() *Template {
	return &Template{
		Type:              "language-decoding",
		NeedsVerification: true,
		Placeholders:      []string{"DIFFICULTY", "DIFFICULTY_GUIDANCE", "EXAMPLES", "DIVERSITY_GUIDANCE", "YEAR_LEVEL", "SENTENCE_COUNT"},
		Skeleton: `Write one [DIFFICULTY] invented-language decoding question for a Year [YEAR_LEVEL]
selective-entry test candidate.

Invent a small made-up language. Give [SENTENCE_COUNT] sentences in the
invented language with their English translations inside the question text,
then ask for the invented-language word or phrase for a new English expression
that can be deduced from the given sentences. Provide exactly 5 options.

The mapping must be fully determined: every invented word needed for the
answer must appear in the given sentences, and word order rules must be
consistent.

[DIFFICULTY_GUIDANCE]

[EXAMPLES]

[DIVERSITY_GUIDANCE]
` + outputContract,
		Examples: []TemplateExample{
			{
				Question: "In an invented language:\n" +
					"\"mira tolo\" means \"red bird\"\n" +
					"\"mira keth\" means \"red stone\"\n" +
					"\"zan tolo\" means \"small bird\"\n" +
					"What is \"small stone\"?",
				Options:     []string{"zan keth", "keth zan", "mira zan", "tolo keth", "zan mira"},
				Answer:      "zan keth",
				Explanation: "'zan' means small and 'keth' means stone, and adjectives come first in the given sentences.",
			},
		},
		Requirements: []string{
			"Every word in the correct answer is deducible from the given sentences",
			"Invented words must not resemble real offensive words",
		},
		DifficultyGuidance: map[int]string{
			1: "Use direct word-for-word mapping with English word order.",
			2: "Reverse the word order in the invented language so candidates must notice the rule.",
			3: "Include an affix or particle whose meaning must be isolated by comparing sentences.",
		},
		SentenceCount: map[int]int{1: 3, 2: 4, 3: 5},
	}
}

func sequencingTemplate() *Template {
	return &Template{
		Type:              "numerical-sequencing",
		NeedsVerification: true,
		Placeholders:      []string{"DIFFICULTY", "DIFFICULTY_GUIDANCE", "EXAMPLES", "DIVERSITY_GUIDANCE", "YEAR_LEVEL"},
		Skeleton: `Write one [DIFFICULTY] number sequence question for a Year [YEAR_LEVEL]
selective-entry test candidate.

Give a sequence of five or six numbers governed by a single consistent rule and
ask for the next number. Provide exactly 5 options. Distractors should come
from applying a nearby but wrong rule (wrong step, off-by-one term, sign slip).

[DIFFICULTY_GUIDANCE]

[EXAMPLES]

[DIVERSITY_GUIDANCE]
` + outputContract,
		Examples: []TemplateExample{
			{
				Question:    "What is the next number in the sequence 3, 6, 12, 24, 48, ... ?",
				Options:     []string{"96", "72", "60", "54", "100"},
				Answer:      "96",
				Explanation: "Each term doubles the one before it, so the next term is 48 x 2 = 96.",
			},
		},
		Requirements: []string{
			"Exactly one rule fits all given terms",
			"All arithmetic must be checkable by hand",
		},
		DifficultyGuidance: map[int]string{
			1: "Use a single-operation rule (constant difference or constant ratio).",
			2: "Use a two-step rule such as multiply then add, or an alternating pattern.",
			3: "Use a second-order rule such as differences that themselves form a sequence.",
		},
	}
}

func readingInferenceTemplate() *Template {
	return &Template{
		Type:              "reading-inference",
		NeedsVerification: false, // no single externally-checkable answer
		Placeholders:      []string{"DIFFICULTY", "DIFFICULTY_GUIDANCE", "EXAMPLES", "DIVERSITY_GUIDANCE", "YEAR_LEVEL"},
		Skeleton: `Write one [DIFFICULTY] reading inference question for a Year [YEAR_LEVEL]
selective-entry test candidate.

Write a short passage of 80-120 words on an engaging topic, then ask what can
best be inferred from it. Provide exactly 5 options. The correct option must be
supported by the passage without being stated outright; the others must be
stated facts, over-reaches, or contradictions.

[DIFFICULTY_GUIDANCE]

[EXAMPLES]

[DIVERSITY_GUIDANCE]

Also include "passage_topic" (two or three words) and "passage_text" fields in
the JSON object.
` + outputContract,
		Examples: []TemplateExample{
			{
				Question: "Passage: Although the harbour markets opened at dawn, Mei's stall stayed " +
					"shuttered until mid-morning. When she finally raised the awning, her baskets held " +
					"half the usual catch, and she waved away questions about the weather with a tired " +
					"smile.\nWhat can best be inferred about Mei's morning?",
				Options: []string{
					"Her fishing trip had been unusually difficult",
					"The markets opened later than normal",
					"She had decided to stop selling fish",
					"The weather had been perfect for fishing",
					"Her stall was the largest at the markets",
				},
				Answer:      "Her fishing trip had been unusually difficult",
				Explanation: "The late opening, the half-empty baskets and her tiredness together suggest a hard trip, though the passage never says so directly.",
			},
		},
		Requirements: []string{
			"The correct option must require inference, not recall",
			"Passage topics should rotate across settings and cultures",
		},
		DifficultyGuidance: map[int]string{
			1: "The inference should follow from one clear clue in the passage.",
			2: "The inference should combine two separate clues.",
			3: "The inference should rest on tone and implication, with a stated-fact distractor that quotes the passage almost verbatim.",
		},
	}
}
