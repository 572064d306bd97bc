// Package audit records item movements in and out of a disk network.
package audit

import (
	"github.com/rs/zerolog"

	"github.com/diskmesh/diskmesh/internal/storage"
)

// Logger provides structured audit logging for item movements.
// The zero Logger discards everything.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a new audit logger from a zerolog.Logger.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

// LogDeposit logs an item deposit.
// origin: position the deposit was made at
// typeID: item type deposited
// requested: units offered
// stored: units absorbed by the network
func (l *Logger) LogDeposit(origin string, typeID, requested, stored int) {
	if l == nil {
		return
	}
	level := zerolog.InfoLevel
	if stored < requested {
		level = zerolog.WarnLevel
	}

	l.logger.WithLevel(level).
		Str("event_type", "deposit").
		Str("origin", origin).
		Int("type", typeID).
		Int("requested", requested).
		Int("stored", stored).
		Int("returned", requested-stored).
		Msg("Deposit event")
}

// LogWithdrawal logs the reconciliation of a closed reader session.
// A shortfall is logged at warn level with the per-identity breakdown.
func (l *Logger) LogWithdrawal(readerID string, report storage.Report) {
	if l == nil {
		return
	}
	short := report.TotalShortfall()
	level := zerolog.InfoLevel
	if short > 0 {
		level = zerolog.WarnLevel
	}

	event := l.logger.WithLevel(level).
		Str("event_type", "withdrawal").
		Str("reader_id", readerID).
		Int("removed", report.TotalRemoved()).
		Int("disks_written", report.DisksWritten)

	if short > 0 {
		d := zerolog.Dict()
		for id, n := range report.Shortfall {
			d = d.Int(id.String(), n)
		}
		event = event.Int("shortfall", short).Dict("missing", d)
	}

	event.Msg("Withdrawal event")
}

// LogDropBox logs a drop box being emptied into its network.
func (l *Logger) LogDropBox(origin string, moved int) {
	if l == nil {
		return
	}
	l.logger.Info().
		Str("event_type", "dropbox").
		Str("origin", origin).
		Int("moved", moved).
		Msg("Drop box event")
}
