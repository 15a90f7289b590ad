package pvlog

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors events to an slog.Logger. Useful during
// development to watch client traffic on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter writing to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("pv", event.PV),
		slog.String("category", event.Category.String()),
	}

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Op != nil:
		attrs = append(attrs,
			slog.String("op", event.Op.Kind.String()),
			slog.String("data_type", event.Op.DataType.String()),
			slog.Int("count", event.Op.Count),
			slog.Duration("duration", event.Op.Duration),
		)
	case event.Monitor != nil:
		attrs = append(attrs,
			slog.String("data_type", event.Monitor.DataType.String()),
			slog.Int("count", event.Monitor.Count),
		)
	case event.Access != nil:
		attrs = append(attrs,
			slog.Bool("read", event.Access.Read),
			slog.Bool("write", event.Access.Write),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_op", event.Error.Op),
			slog.String("error_msg", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "pv", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
