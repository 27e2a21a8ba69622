package testutil

import (
	"testing"

	"github.com/rs/zerolog"
)

// TestLogger returns a zerolog logger that writes through t.Log, so output
// is attached to the failing test instead of interleaved on stderr.
func TestLogger(t *testing.T) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).With().Timestamp().Logger()
}
