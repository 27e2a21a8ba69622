package room

import (
	"fmt"
	"testing"

	"github.com/sketchroom/go-sketchroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func op(id string, ts int64) types.DrawingOperation {
	return types.DrawingOperation{
		ID:        id,
		Kind:      types.OpDraw,
		Points:    []types.Point{{X: 1, Y: 2}},
		Color:     "#000000",
		BrushSize: 3,
		UserID:    "u1",
		Timestamp: ts,
	}
}

func TestOperationLogOrder(t *testing.T) {
	l := NewOperationLog()

	// Appended out of timestamp order on purpose: arrival order wins.
	l.Append(op("a", 300))
	l.Append(op("b", 100))
	l.Append(op("c", 200))

	require.Equal(t, 3, l.Len())

	snap := l.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "a", snap[0].ID)
	assert.Equal(t, "b", snap[1].ID)
	assert.Equal(t, "c", snap[2].ID)
}

func TestOperationLogClear(t *testing.T) {
	l := NewOperationLog()
	for i := range 3 {
		l.Append(op(fmt.Sprintf("op-%d", i), int64(i)))
	}
	require.Equal(t, 3, l.Len())

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Snapshot())
}

func TestOperationLogSnapshotIsCopy(t *testing.T) {
	l := NewOperationLog()
	l.Append(op("a", 1))

	snap := l.Snapshot()
	snap[0].ID = "mutated"

	assert.Equal(t, "a", l.Snapshot()[0].ID, "expected snapshot mutation not to reach the log")
}
