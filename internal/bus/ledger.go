package bus

import "sync"

// ProcessedLedger records event ids that have already been dispatched so
// redelivered messages are skipped instead of relying on every handler being
// naturally idempotent. At-least-once brokers will redeliver; counter
// mutations in particular must not run twice.
type ProcessedLedger interface {
	// MarkIfNew records the event id and reports whether it was unseen.
	MarkIfNew(eventID string) bool
}

// memoryLedger keeps a bounded FIFO set of seen event ids. Old entries are
// evicted once capacity is reached; redeliveries arrive close to the original
// so a bounded window is sufficient.
type memoryLedger struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	order    []string
	capacity int
}

// DefaultLedgerCapacity bounds the in-memory processed-message window.
const DefaultLedgerCapacity = 8192

// NewMemoryLedger creates a bounded in-memory ledger. A capacity of zero or
// less falls back to DefaultLedgerCapacity.
func NewMemoryLedger(capacity int) ProcessedLedger {
	if capacity <= 0 {
		capacity = DefaultLedgerCapacity
	}
	return &memoryLedger{
		seen:     make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

func (l *memoryLedger) MarkIfNew(eventID string) bool {
	if eventID == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[eventID]; ok {
		return false
	}

	if len(l.order) >= l.capacity {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.seen, oldest)
	}

	l.seen[eventID] = struct{}{}
	l.order = append(l.order, eventID)
	return true
}

// NopLedger treats every delivery as new. Useful when the transport already
// guarantees deduplication or in tests that exercise redelivery paths.
type NopLedger struct{}

func (NopLedger) MarkIfNew(string) bool { return true }
