package questionforge

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultOptionCount = 5
	maxSolutionChars   = 300 // solutions are a 1-2 sentence convention
	minQuestionChars   = 10
)

// hallucinationPhrases are first-person or self-correcting fragments that a
// clean question never contains. Any match is a hard rejection.
var hallucinationPhrases = []string{
	"let me recalculate",
	"let me reconsider",
	"actually,",
	"my mistake",
	"i apologize",
	"i apologise",
	"upon reflection",
	"on second thought",
	"i made an error",
	"correction:",
	"wait,",
}

// wrongLocaleRe matches American spellings as whole words. House style is
// Australian English.
var wrongLocaleRe = regexp.MustCompile(`(?i)\b(color|colors|colored|colorful|center|centers|favorite|favorites|organize|organizes|organized|realize|realizes|realized|theater|theaters|neighbor|neighbors|gray|traveling|traveled|jewelry|defense|license[sd]?)\b`)

// placeholderRe matches a bracket-delimited ALL-CAPS token, which signals a
// template substitution bug rather than a content defect.
var placeholderRe = regexp.MustCompile(`\[[A-Z][A-Z_]*\]`)

// pairTokenRe matches the "N & M" select-two option convention.
var pairTokenRe = regexp.MustCompile(`^\d+ & \d+$`)

// QuickCheck runs the full battery of structural and lexical checks on a
// candidate question. Every check runs even after an earlier failure, so one
// call surfaces every defect at once. Deterministic, side-effect-free, no
// network — always the first filter.
func QuickCheck(q *Question, tmpl *Template) ValidationResult {
	var result ValidationResult
	add := func(format string, args ...interface{}) {
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	text := strings.TrimSpace(q.Text)
	answer := strings.TrimSpace(q.CorrectAnswer)
	solution := strings.TrimSpace(q.Solution)

	// 1. Presence.
	if text == "" {
		add("question text is empty")
	}
	if len(q.Options) == 0 {
		add("options are missing")
	}
	if answer == "" {
		add("correct_answer is missing")
	}
	if solution == "" {
		add("solution is missing")
	}

	// 2. Option-count contract for the template family.
	if len(q.Options) > 0 && len(q.Options) != defaultOptionCount {
		add("expected exactly %d options, got %d", defaultOptionCount, len(q.Options))
	}
	if tmpl.SelectTwo {
		for _, opt := range q.Options {
			if !pairTokenRe.MatchString(strings.TrimSpace(opt)) {
				add("select-two option %q is not an \"N & M\" pair token", opt)
			}
		}
		if answer != "" && !pairTokenRe.MatchString(answer) {
			add("select-two correct_answer %q is not an \"N & M\" pair token", answer)
		}
	}

	// 3. Correct answer must appear verbatim among the options.
	if answer != "" && len(q.Options) > 0 && !containsOption(q.Options, answer) {
		add("correct_answer %q does not match any option", answer)
	}

	// 4-5. Duplicate and empty options.
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		trimmed := strings.TrimSpace(opt)
		if trimmed == "" {
			add("option is empty")
			continue
		}
		if seen[trimmed] {
			add("duplicate option %q", trimmed)
		}
		seen[trimmed] = true
	}

	// 6. Hallucination-phrase scan over everything the candidate wrote.
	blob := strings.ToLower(text + " " + solution + " " + strings.Join(q.Options, " "))
	for _, phrase := range hallucinationPhrases {
		if strings.Contains(blob, phrase) {
			add("hallucination phrase %q detected", phrase)
		}
	}

	// 7. Solution length cap.
	if len(solution) > maxSolutionChars {
		add("solution is %d characters, limit is %d", len(solution), maxSolutionChars)
	}

	// 8. Minimum question length.
	if text != "" && len(text) < minQuestionChars {
		add("question text is too short (%d characters)", len(text))
	}

	// 9. Locale-consistency scan.
	if m := wrongLocaleRe.FindString(text + " " + solution + " " + strings.Join(q.Options, " ")); m != "" {
		add("American spelling %q, house style is Australian English", m)
	}

	// 10. Unresolved-placeholder scan.
	if m := placeholderRe.FindString(text + " " + solution); m != "" {
		add("unresolved template placeholder %s", m)
	}

	return result
}

func containsOption(options []string, answer string) bool {
	for _, opt := range options {
		if strings.TrimSpace(opt) == answer {
			return true
		}
	}
	return false
}
