package questionforge

import (
	"fmt"
	"strings"
	"testing"
)

func trackedQuestion(text, topic string) *Question {
	return &Question{
		ID:            "q",
		Text:          text,
		Options:       []string{"one", "two", "three", "four", "five"},
		CorrectAnswer: "one",
		Solution:      "Because.",
		PassageTopic:  topic,
	}
}

func TestSuggestNameRoundRobin(t *testing.T) {
	tracker := NewDiversityTracker()

	first := tracker.SuggestName()
	second := tracker.SuggestName()
	if first == second {
		t.Fatalf("expected rotation, got %q twice", first)
	}

	// A full cycle returns to the start.
	for i := 0; i < len(namePool)-2; i++ {
		tracker.SuggestName()
	}
	if got := tracker.SuggestName(); got != first {
		t.Fatalf("expected pool to wrap to %q, got %q", first, got)
	}
}

func TestIsDuplicateEmptyWindow(t *testing.T) {
	tracker := NewDiversityTracker()
	q := trackedQuestion("Which word is closest in meaning to 'tranquil'?", "")
	if tracker.IsDuplicate(q) {
		t.Fatalf("empty window must never report a duplicate")
	}
}

func TestIsDuplicateIdenticalText(t *testing.T) {
	tracker := NewDiversityTracker()
	text := "The curious wombat wandered beneath eucalyptus branches searching quietly for water"
	tracker.Track(trackedQuestion(text, ""))

	if !tracker.IsDuplicate(trackedQuestion(text, "")) {
		t.Fatalf("identical text must be reported as a duplicate")
	}
	if tracker.IsDuplicate(trackedQuestion("An entirely different puzzle about number sequences and their governing rules", "")) {
		t.Fatalf("unrelated text must not be reported as a duplicate")
	}
}

func TestIsDuplicateOnlyConsultsRecentWindow(t *testing.T) {
	tracker := NewDiversityTracker()
	old := "The lighthouse keeper counted seabirds every morning before breakfast without fail"
	tracker.Track(trackedQuestion(old, ""))

	// Push the old item out of the recency-biased comparison scope. The
	// retained window is larger; this asymmetry is deliberate.
	for i := 0; i < compareRecent; i++ {
		tracker.Track(trackedQuestion(fmt.Sprintf("Filler question number %d about completely unrelated subject matter entirely", i), ""))
	}

	if tracker.IsDuplicate(trackedQuestion(old, "")) {
		t.Fatalf("items outside the last %d should not be consulted", compareRecent)
	}
	if len(tracker.window) != compareRecent+1 {
		t.Fatalf("expected the older item to still be retained in the window, len=%d", len(tracker.window))
	}
}

func TestBoundedMemoryAfterManyItems(t *testing.T) {
	tracker := NewDiversityTracker()
	for i := 0; i < 200; i++ {
		name := namePool[i%len(namePool)]
		text := fmt.Sprintf("%s solved puzzle number %d about %s today", name, i, strings.Repeat("x", i%7+3))
		tracker.Track(trackedQuestion(text, fmt.Sprintf("topic-%d", i)))
	}

	if len(tracker.window) > windowCap {
		t.Fatalf("window grew to %d, cap is %d", len(tracker.window), windowCap)
	}
	if len(tracker.names) > nameSetCap {
		t.Fatalf("name set grew to %d, cap is %d", len(tracker.names), nameSetCap)
	}
	if len(tracker.topics) > topicSetCap {
		t.Fatalf("topic set grew to %d, cap is %d", len(tracker.topics), topicSetCap)
	}
}

func TestBuildGuidanceSnapshotsRecentUsage(t *testing.T) {
	tracker := NewDiversityTracker()
	tracker.Track(trackedQuestion("Priya and Kofi shared their findings about tidal patterns", "tidal patterns"))

	g := tracker.BuildGuidance()
	if g.SuggestedName == "" {
		t.Fatalf("expected a suggested name")
	}
	if !strings.Contains(g.Text, "Priya") || !strings.Contains(g.Text, "Kofi") {
		t.Fatalf("guidance text should list recent names, got:\n%s", g.Text)
	}
	if !strings.Contains(g.Text, "tidal patterns") {
		t.Fatalf("guidance text should list recent topics, got:\n%s", g.Text)
	}
	if !strings.Contains(g.Text, g.SuggestedName) {
		t.Fatalf("guidance text should carry the suggested name")
	}
}

func TestResetClearsState(t *testing.T) {
	tracker := NewDiversityTracker()
	tracker.Track(trackedQuestion("Amelia charted the river crossing before sunrise", "river crossing"))
	tracker.SuggestName()

	tracker.Reset()

	if len(tracker.window) != 0 || len(tracker.names) != 0 || len(tracker.topics) != 0 {
		t.Fatalf("reset must clear all state")
	}
	if got := tracker.SuggestName(); got != namePool[0] {
		t.Fatalf("reset must rewind the name rotation, got %q", got)
	}
}

func TestJaccardTokenFiltering(t *testing.T) {
	// Tokens of length <= 2 are dropped before comparison.
	a := tokenSet("an ox is by me in the paddock")
	if a["an"] || a["ox"] || a["is"] {
		t.Fatalf("short tokens must be filtered, got %v", a)
	}
	if !a["the"] || !a["paddock"] {
		t.Fatalf("long tokens must be kept, got %v", a)
	}

	same := tokenSet("the paddock")
	if got := jaccard(same, same); got != 1.0 {
		t.Fatalf("identical sets must score 1.0, got %v", got)
	}
	if got := jaccard(tokenSet("alpha beta gamma"), tokenSet("delta epsilon zeta")); got != 0 {
		t.Fatalf("disjoint sets must score 0, got %v", got)
	}
}
