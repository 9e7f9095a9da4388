package questionforge

import (
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *ItemStore {
	t.Helper()
	store, err := OpenItemStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return store
}

func storedQuestion(id string) *Question {
	q := validSynonymQuestion()
	q.ID = id
	q.Product = "vic-selective"
	q.Difficulty = 2
	q.CreatedAt = time.Now()
	return q
}

func TestItemStoreInsertAndGet(t *testing.T) {
	store := openTestStore(t)

	q := storedQuestion("item-1")
	if err := store.InsertItem(q); err != nil {
		t.Fatalf("insert: %v", err)
	}

	item, err := store.GetItem("item-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item.ReviewStatus != "pending" {
		t.Fatalf("new items must start pending, got %q", item.ReviewStatus)
	}
	if item.Text != q.Text || item.CorrectAnswer != q.CorrectAnswer {
		t.Fatalf("round-trip mismatch: %+v", item)
	}

	options, err := JSONToOptions(item.Options)
	if err != nil {
		t.Fatalf("decode options: %v", err)
	}
	if len(options) != 5 || options[0] != "calm" {
		t.Fatalf("options round-trip mismatch: %v", options)
	}
}

func TestItemStoreGetMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetItem("nope"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected a not-found error, got %v", err)
	}
}

func TestItemStoreReviewFlow(t *testing.T) {
	store := openTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := store.InsertItem(storedQuestion(id)); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	if err := store.SetReviewStatus("a", "approved"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := store.SetReviewStatus("b", "rejected"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := store.SetReviewStatus("ghost", "approved"); err == nil {
		t.Fatalf("updating a missing item must fail")
	}

	pending, err := store.ListItems("pending", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "c" {
		t.Fatalf("expected only item c pending, got %+v", pending)
	}

	approved, err := store.CountByStatus("approved")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if approved != 1 {
		t.Fatalf("expected 1 approved, got %d", approved)
	}
}

func TestItemStoreListTopics(t *testing.T) {
	store := openTestStore(t)

	q := storedQuestion("r1")
	q.SubSkill = "reading-inference"
	q.PassageTopic = "tidal patterns"
	if err := store.InsertItem(q); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// Plain vocabulary items carry no topic and must not appear.
	if err := store.InsertItem(storedQuestion("v1")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	topics, err := store.ListTopics()
	if err != nil {
		t.Fatalf("list topics: %v", err)
	}
	if len(topics) != 1 || topics[0] != "tidal patterns" {
		t.Fatalf("expected only the reading topic, got %v", topics)
	}
}

func TestItemStoreBatchTelemetry(t *testing.T) {
	store := openTestStore(t)

	batch := &BatchRecord{
		ID:        "batch-1",
		Product:   "vic-selective",
		StartedAt: time.Now(),
		Requested: 10,
	}
	if err := store.CreateBatch(batch); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if err := store.FinishBatch("batch-1", 8, 2, 0.42); err != nil {
		t.Fatalf("finish batch: %v", err)
	}
}
