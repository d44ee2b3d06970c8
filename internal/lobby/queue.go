package lobby

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrAlreadyQueued is returned when a participant joins the queue twice.
	ErrAlreadyQueued = errors.New("already in queue")
	// ErrNotQueued is returned when removing a participant who is not queued.
	ErrNotQueued = errors.New("not in queue")
)

// QueueEntry is one waiting participant and the time they joined.
type QueueEntry struct {
	Participant Participant
	JoinTime    time.Time
}

// Queue is the strictly FIFO matchmaking queue. Pairing is order-preserving:
// the two oldest entries are always matched first.
type Queue struct {
	mu      sync.Mutex
	entries []QueueEntry
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends the participant to the queue, reporting their 1-based
// position and join time.
func (q *Queue) Enqueue(p Participant) (position int, joined time.Time, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, entry := range q.entries {
		if entry.Participant.ConnectionID == p.ConnectionID {
			return 0, time.Time{}, ErrAlreadyQueued
		}
	}

	entry := QueueEntry{Participant: p, JoinTime: time.Now()}
	q.entries = append(q.entries, entry)
	return len(q.entries), entry.JoinTime, nil
}

// Dequeue removes the participant holding connectionID from the queue.
func (q *Queue) Dequeue(connectionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, entry := range q.entries {
		if entry.Participant.ConnectionID == connectionID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotQueued
}

// PopPair removes and returns the two oldest entries. ok is false, and the
// queue is unmodified, when fewer than two participants are waiting.
func (q *Queue) PopPair() (first, second QueueEntry, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) < 2 {
		return QueueEntry{}, QueueEntry{}, false
	}

	first, second = q.entries[0], q.entries[1]
	q.entries = q.entries[2:]
	return first, second, true
}

// PushFront returns a popped entry to the head of the queue with its original
// join time, preserving oldest-first ordering.
func (q *Queue) PushFront(entry QueueEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append([]QueueEntry{entry}, q.entries...)
}

// Len returns the number of waiting participants.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Snapshot returns a copy of the queue contents in FIFO order.
func (q *Queue) Snapshot() []QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]QueueEntry, len(q.entries))
	copy(entries, q.entries)
	return entries
}
