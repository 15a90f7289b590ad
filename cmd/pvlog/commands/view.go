// Package commands implements the pvlog CLI commands.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/epics-tools/cago/pkg/pvlog"
)

// BuildFilter assembles a reader filter from command-line flag values.
func BuildFilter(session, pvName, category, timeStart, timeEnd string) (pvlog.Filter, error) {
	filter := pvlog.Filter{
		SessionID: session,
		PV:        pvName,
	}
	if category != "" {
		c, ok := pvlog.ParseCategory(category)
		if !ok {
			return pvlog.Filter{}, fmt.Errorf("invalid category: %s (must be state, op, monitor, access, or error)", category)
		}
		filter.Category = &c
	}
	if timeStart != "" {
		t, err := time.Parse(time.RFC3339, timeStart)
		if err != nil {
			return pvlog.Filter{}, fmt.Errorf("invalid time-start: %w", err)
		}
		filter.TimeStart = &t
	}
	if timeEnd != "" {
		t, err := time.Parse(time.RFC3339, timeEnd)
		if err != nil {
			return pvlog.Filter{}, fmt.Errorf("invalid time-end: %w", err)
		}
		filter.TimeEnd = &t
	}
	return filter, nil
}

// RunView executes the view command.
func RunView(path string, filter pvlog.Filter, output io.Writer) error {
	reader, err := pvlog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		FormatEvent(output, event)
	}
	return nil
}

// FormatEvent writes a human-readable representation of the event to w.
func FormatEvent(w io.Writer, event pvlog.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	session := shortenSessionID(event.SessionID)
	fmt.Fprintf(w, "%s [%s] %-7s %s\n", ts, session, event.Category, event.PV)

	switch {
	case event.StateChange != nil:
		formatStateChange(w, event.StateChange)
	case event.Op != nil:
		formatOp(w, event.Op)
	case event.Monitor != nil:
		fmt.Fprintf(w, "  Type: %s  Count: %d\n", event.Monitor.DataType, event.Monitor.Count)
	case event.Access != nil:
		fmt.Fprintf(w, "  Read: %v  Write: %v\n", event.Access.Read, event.Access.Write)
	case event.Error != nil:
		fmt.Fprintf(w, "  Op: %s\n  Message: %s\n", event.Error.Op, event.Error.Message)
	}

	fmt.Fprintln(w)
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChange(w io.Writer, sc *pvlog.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatOp(w io.Writer, op *pvlog.OpEvent) {
	fmt.Fprintf(w, "  %s  Type: %s  Count: %d\n", op.Kind, op.DataType, op.Count)
	if op.Duration > 0 {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(op.Duration))
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}
