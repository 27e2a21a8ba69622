package room

import (
	"slices"
	"sync"

	"github.com/sketchroom/go-sketchroom/internal/types"
)

// OperationLog is the append-only, arrival-ordered buffer of drawing
// operations for the active room. Arrival order at the log is the replay
// order; operation timestamps are advisory. The log is cleared as a whole on
// every room transition and never compacted mid-session. A future sync
// transport consumes it as a producer-consumer queue.
type OperationLog struct {
	mu  sync.RWMutex
	ops []types.DrawingOperation
}

func NewOperationLog() *OperationLog {
	return &OperationLog{}
}

func (l *OperationLog) Append(op types.DrawingOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *OperationLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = nil
}

func (l *OperationLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ops)
}

// Snapshot returns a copy of the log in replay order.
func (l *OperationLog) Snapshot() []types.DrawingOperation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.ops)
}
