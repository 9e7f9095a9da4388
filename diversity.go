package questionforge

import (
	"fmt"
	"strings"
)

const (
	windowCap      = 50  // rolling window of accepted items
	nameSetCap     = 100 // recently-seen proper names
	topicSetCap    = 50  // recently-seen passage topics
	pruneWindow    = 30  // membership window used when a set overflows
	compareRecent  = 10  // how many recent items the duplicate check consults
	guidanceNames  = 10  // names listed in the prompt guidance
	guidanceTopics = 5   // topics listed in the prompt guidance
	dupThreshold   = 0.9 // Jaccard similarity at or above this is a duplicate
)

// namePool is a fixed rotation of culturally varied given names suggested to
// the model one at a time, round-robin, so the whole pool gets coverage.
var namePool = []string{
	"Amelia", "Wei", "Priya", "Kofi", "Sofia", "Hamza", "Mei", "Lachlan",
	"Aisha", "Mateo", "Yuki", "Fatima", "Noah", "Zara", "Ravi", "Ingrid",
	"Tane", "Leila", "Dmitri", "Chloe", "Sanjay", "Nia", "Oliver", "Amara",
	"Hiro", "Freya", "Omar", "Isla", "Tariq", "Elena", "Jin", "Matilda",
	"Kwame", "Saskia", "Arjun", "Greta", "Malik", "Hana", "Sione", "Ruby",
	"Anwar", "Lucia", "Bao", "Eamon", "Indira", "Stefan", "Ayla", "Marco",
	"Tamsin", "Khalid",
}

// DiversityTracker keeps bounded in-process memory of recently accepted items
// and supplies avoid-these guidance for the next prompt.
//
// It is process-local and carries no lock: a tracker must be owned by a
// single sequential caller. Callers that drive requests concurrently must
// serialize access or partition one tracker per worker.
type DiversityTracker struct {
	window   []*Question // FIFO, oldest first, at most windowCap
	names    []string    // insertion-ordered, at most nameSetCap
	topics   []string    // insertion-ordered, at most topicSetCap
	nameIdx  int         // rotation pointer into namePool
	poolNorm map[string]string
}

// NewDiversityTracker creates an empty tracker.
func NewDiversityTracker() *DiversityTracker {
	t := &DiversityTracker{poolNorm: make(map[string]string, len(namePool))}
	for _, n := range namePool {
		t.poolNorm[strings.ToLower(n)] = n
	}
	return t
}

// Reset clears all diversity state for reuse across unrelated batches.
func (t *DiversityTracker) Reset() {
	t.window = nil
	t.names = nil
	t.topics = nil
	t.nameIdx = 0
}

// SuggestName returns the pool entry at the rotation pointer and advances the
// pointer. Deterministic round-robin, not random, so the whole pool is
// eventually covered.
func (t *DiversityTracker) SuggestName() string {
	name := namePool[t.nameIdx%len(namePool)]
	t.nameIdx = (t.nameIdx + 1) % len(namePool)
	return name
}

// Guidance is a snapshot of recent usage rendered for the next prompt.
type Guidance struct {
	RecentNames   []string
	RecentTopics  []string
	SuggestedName string
	Text          string
}

// BuildGuidance snapshots the most recent names and topics and renders the
// avoid-these instruction block.
func (t *DiversityTracker) BuildGuidance() Guidance {
	g := Guidance{
		RecentNames:   lastN(t.names, guidanceNames),
		RecentTopics:  lastN(t.topics, guidanceTopics),
		SuggestedName: t.SuggestName(),
	}

	var sb strings.Builder
	sb.WriteString("Diversity requirements:\n")
	if len(g.RecentNames) > 0 {
		fmt.Fprintf(&sb, "- Do NOT use these recently used names: %s\n", strings.Join(g.RecentNames, ", "))
	}
	if len(g.RecentTopics) > 0 {
		fmt.Fprintf(&sb, "- Do NOT reuse these recent topics or scenarios: %s\n", strings.Join(g.RecentTopics, ", "))
	}
	fmt.Fprintf(&sb, "- If the question needs a person's name, prefer %q.\n", g.SuggestedName)
	sb.WriteString("- Choose a fresh scenario, not a variation of a recent one.")
	g.Text = sb.String()
	return g
}

// IsDuplicate reports whether the candidate's question text is
// near-identical to any of the most recently accepted items. The comparison
// is recency-biased: only the last few window entries are consulted, not the
// full retained window.
func (t *DiversityTracker) IsDuplicate(candidate *Question) bool {
	recent := t.window
	if len(recent) > compareRecent {
		recent = recent[len(recent)-compareRecent:]
	}
	candTokens := tokenSet(candidate.Text)
	for _, q := range recent {
		if jaccard(candTokens, tokenSet(q.Text)) >= dupThreshold {
			return true
		}
	}
	return false
}

// Track records an accepted item: appends it to the rolling window, harvests
// pool names appearing in its text, and records its topic tag. Never called
// for rejected candidates and never rolled back.
func (t *DiversityTracker) Track(q *Question) {
	t.window = append(t.window, q)
	if len(t.window) > windowCap {
		t.window = t.window[len(t.window)-windowCap:]
	}

	for _, tok := range strings.FieldsFunc(q.Text, isTokenBoundary) {
		if canonical, ok := t.poolNorm[strings.ToLower(tok)]; ok {
			t.names = appendUnique(t.names, canonical)
		}
	}
	if len(t.names) > nameSetCap {
		t.names = t.pruneToRecentWindow(t.names, t.recentNameMembership())
	}

	if q.PassageTopic != "" {
		t.topics = appendUnique(t.topics, q.PassageTopic)
		if len(t.topics) > topicSetCap {
			t.topics = t.pruneToRecentWindow(t.topics, t.recentTopicMembership())
		}
	}
}

// recentNameMembership collects pool names appearing in the last pruneWindow
// accepted items.
func (t *DiversityTracker) recentNameMembership() map[string]bool {
	member := make(map[string]bool)
	for _, q := range lastNQuestions(t.window, pruneWindow) {
		for _, tok := range strings.FieldsFunc(q.Text, isTokenBoundary) {
			if canonical, ok := t.poolNorm[strings.ToLower(tok)]; ok {
				member[canonical] = true
			}
		}
	}
	return member
}

func (t *DiversityTracker) recentTopicMembership() map[string]bool {
	member := make(map[string]bool)
	for _, q := range lastNQuestions(t.window, pruneWindow) {
		if q.PassageTopic != "" {
			member[q.PassageTopic] = true
		}
	}
	return member
}

func (t *DiversityTracker) pruneToRecentWindow(entries []string, member map[string]bool) []string {
	kept := entries[:0]
	for _, e := range entries {
		if member[e] {
			kept = append(kept, e)
		}
	}
	return kept
}

// tokenSet lowercases and splits text into word tokens, dropping tokens of
// length <= 2 as a stopword approximation.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), isTokenBoundary) {
		if len(tok) > 2 {
			set[tok] = true
		}
	}
	return set
}

// jaccard is intersection-over-union of two token sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if b[tok] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func isTokenBoundary(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '\'')
}

func appendUnique(entries []string, v string) []string {
	for _, e := range entries {
		if e == v {
			return entries
		}
	}
	return append(entries, v)
}

func lastN(entries []string, n int) []string {
	if len(entries) <= n {
		return append([]string(nil), entries...)
	}
	return append([]string(nil), entries[len(entries)-n:]...)
}

func lastNQuestions(window []*Question, n int) []*Question {
	if len(window) <= n {
		return window
	}
	return window[len(window)-n:]
}
