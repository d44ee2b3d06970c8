package lobby

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testParticipant(id string) Participant {
	return Participant{ConnectionID: id, Username: id}
}

func queuedIDs(q *Queue) []string {
	var ids []string
	for _, entry := range q.Snapshot() {
		ids = append(ids, entry.Participant.ConnectionID)
	}
	return ids
}

func TestQueueIsFIFO(t *testing.T) {
	q := NewQueue()

	for i, id := range []string{"a", "b", "c", "d"} {
		position, _, err := q.Enqueue(testParticipant(id))
		if err != nil {
			t.Fatalf("Enqueue(%q) returned unexpected error: %v", id, err)
		}
		if position != i+1 {
			t.Errorf("Enqueue(%q) position = %d, want %d", id, position, i+1)
		}
	}

	first, second, ok := q.PopPair()
	if !ok {
		t.Fatal("PopPair() returned ok = false with four entries queued")
	}
	if first.Participant.ConnectionID != "a" || second.Participant.ConnectionID != "b" {
		t.Errorf("PopPair() = (%q, %q), want (a, b)",
			first.Participant.ConnectionID, second.Participant.ConnectionID)
	}

	if diff := cmp.Diff([]string{"c", "d"}, queuedIDs(q)); diff != "" {
		t.Errorf("remaining queue mismatch; diff:\n%s", diff)
	}
}

func TestQueueRejectsDuplicates(t *testing.T) {
	q := NewQueue()

	if _, _, err := q.Enqueue(testParticipant("a")); err != nil {
		t.Fatalf("Enqueue() returned unexpected error: %v", err)
	}
	if _, _, err := q.Enqueue(testParticipant("a")); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("second Enqueue() error = %v, want ErrAlreadyQueued", err)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
}

func TestQueueDequeue(t *testing.T) {
	q := NewQueue()

	for _, id := range []string{"a", "b", "c"} {
		if _, _, err := q.Enqueue(testParticipant(id)); err != nil {
			t.Fatalf("Enqueue(%q) returned unexpected error: %v", id, err)
		}
	}

	if err := q.Dequeue("b"); err != nil {
		t.Fatalf("Dequeue(b) returned unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "c"}, queuedIDs(q)); diff != "" {
		t.Errorf("queue mismatch after Dequeue; diff:\n%s", diff)
	}

	if err := q.Dequeue("b"); !errors.Is(err, ErrNotQueued) {
		t.Errorf("Dequeue() of absent id error = %v, want ErrNotQueued", err)
	}
}

func TestQueuePopPairRequiresTwo(t *testing.T) {
	q := NewQueue()

	if _, _, ok := q.PopPair(); ok {
		t.Error("PopPair() on an empty queue returned ok = true")
	}

	if _, _, err := q.Enqueue(testParticipant("a")); err != nil {
		t.Fatalf("Enqueue() returned unexpected error: %v", err)
	}
	if _, _, ok := q.PopPair(); ok {
		t.Error("PopPair() with one entry returned ok = true")
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d after failed PopPair, want 1", q.Len())
	}
}

func TestQueuePushFrontRestoresOrdering(t *testing.T) {
	q := NewQueue()

	for _, id := range []string{"a", "b", "c"} {
		if _, _, err := q.Enqueue(testParticipant(id)); err != nil {
			t.Fatalf("Enqueue(%q) returned unexpected error: %v", id, err)
		}
	}

	first, _, ok := q.PopPair()
	if !ok {
		t.Fatal("PopPair() returned ok = false")
	}

	// The popped survivor goes back to the head, ahead of later arrivals.
	q.PushFront(first)
	if diff := cmp.Diff([]string{"a", "c"}, queuedIDs(q)); diff != "" {
		t.Errorf("queue mismatch after PushFront; diff:\n%s", diff)
	}
}
