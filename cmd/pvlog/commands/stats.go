package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/epics-tools/cago/pkg/pvlog"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[pvlog.Category]int
	PVs              map[string]*PVStats
	Sessions         map[string]int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// PVStats holds statistics for a single variable.
type PVStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Gets      int
	Puts      int
	Monitors  int
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := pvlog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[pvlog.Category]int),
		PVs:              make(map[string]*PVStats),
		Sessions:         make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		stats.Sessions[event.SessionID]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		ps, ok := stats.PVs[event.PV]
		if !ok {
			ps = &PVStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.PVs[event.PV] = ps
		}
		ps.Events++
		if event.Timestamp.After(ps.LastSeen) {
			ps.LastSeen = event.Timestamp
		}

		if event.Op != nil {
			switch event.Op.Kind {
			case pvlog.OpGet:
				ps.Gets++
			case pvlog.OpPut:
				ps.Puts++
			}
		}
		if event.Monitor != nil {
			ps.Monitors++
		}
		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Client Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Sessions:     %d\n", len(stats.Sessions))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []pvlog.Category{
		pvlog.CategoryState, pvlog.CategoryOp, pvlog.CategoryMonitor,
		pvlog.CategoryAccess, pvlog.CategoryError,
	} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-9s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Variables: %d\n", len(stats.PVs))
	if len(stats.PVs) > 0 {
		names := make([]string, 0, len(stats.PVs))
		for name := range stats.PVs {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w)
		for _, name := range names {
			ps := stats.PVs[name]
			duration := ps.LastSeen.Sub(ps.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  %s: %d events, duration %s\n", name, ps.Events, duration)
			if ps.Gets > 0 || ps.Puts > 0 || ps.Monitors > 0 {
				fmt.Fprintf(w, "      gets=%d puts=%d monitors=%d\n", ps.Gets, ps.Puts, ps.Monitors)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
