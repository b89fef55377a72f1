package economy

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// maxJournal bounds the in-memory trade journal.
const maxJournal = 1000

// EventKind categorizes journal entries.
type EventKind string

const (
	EventBuy     EventKind = "buy"
	EventSell    EventKind = "sell"
	EventRestock EventKind = "restock"
)

// Event is one journal entry. Price is the unit price for trades and 0 for
// restocks; Quantity is the units moved.
type Event struct {
	ID       string    `json:"id" db:"id"`
	Tick     uint64    `json:"tick" db:"tick"`
	Kind     EventKind `json:"kind" db:"kind"`
	Shop     string    `json:"shop" db:"shop"`
	ItemID   int       `json:"item_id" db:"item_id"`
	Quantity int       `json:"quantity" db:"quantity"`
	Price    int       `json:"price" db:"price"`
}

type journal struct {
	mu      sync.Mutex
	events  []Event
	pending int    // entries not yet drained
	dropped uint64 // undrained entries pushed out of the window
}

func (j *journal) record(e Event) Event {
	e.ID = uuid.NewString()

	j.mu.Lock()
	defer j.mu.Unlock()

	j.events = append(j.events, e)
	if len(j.events) > maxJournal {
		j.events = j.events[len(j.events)-maxJournal:]
	}
	j.pending++
	if j.pending > len(j.events) {
		j.pending = len(j.events)
		j.dropped++
		if j.dropped == 1 || j.dropped%100 == 0 {
			slog.Warn("journal full, undrained events dropped", "dropped", j.dropped, "window", maxJournal)
		}
	}
	return e
}

// recent returns up to limit of the newest entries, newest last.
func (j *journal) recent(limit int) []Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	start := 0
	if limit > 0 && len(j.events) > limit {
		start = len(j.events) - limit
	}
	out := make([]Event, len(j.events)-start)
	copy(out, j.events[start:])
	return out
}

func (j *journal) droppedCount() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.dropped
}

// drain returns the entries recorded since the previous drain.
func (j *journal) drain() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Event, j.pending)
	copy(out, j.events[len(j.events)-j.pending:])
	j.pending = 0
	return out
}
