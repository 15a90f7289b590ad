package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/epics-tools/cago/pkg/dbr"
	"github.com/epics-tools/cago/pkg/pvlog"
)

func createTestCaptureFile(t *testing.T, events []pvlog.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pvlog")
	logger, err := pvlog.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestViewFormatsEvents(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	events := []pvlog.Event{
		{
			Timestamp: ts, SessionID: "aaaa-bbbb-cccc", PV: "sim:temperature",
			Category:    pvlog.CategoryState,
			StateChange: &pvlog.StateChangeEvent{NewState: "CONNECTED"},
		},
		{
			Timestamp: ts.Add(time.Second), SessionID: "aaaa-bbbb-cccc", PV: "sim:temperature",
			Category: pvlog.CategoryOp,
			Op:       &pvlog.OpEvent{Kind: pvlog.OpGet, DataType: dbr.TimeDouble, Count: 1, Duration: 2 * time.Millisecond},
		},
	}

	path := createTestCaptureFile(t, events)

	var buf bytes.Buffer
	if err := RunView(path, pvlog.Filter{}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "sim:temperature") {
		t.Error("expected variable name in output")
	}
	if !strings.Contains(output, "-> CONNECTED") {
		t.Error("expected state transition in output")
	}
	if !strings.Contains(output, "GET") {
		t.Error("expected GET op in output")
	}
	if !strings.Contains(output, "TIME_DOUBLE") {
		t.Error("expected data type in output")
	}
}

func TestViewAppliesFilter(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	events := []pvlog.Event{
		{Timestamp: ts, PV: "sim:a", Category: pvlog.CategoryMonitor,
			Monitor: &pvlog.MonitorEvent{DataType: dbr.TimeDouble, Count: 1}},
		{Timestamp: ts, PV: "sim:b", Category: pvlog.CategoryMonitor,
			Monitor: &pvlog.MonitorEvent{DataType: dbr.TimeLong, Count: 1}},
	}

	path := createTestCaptureFile(t, events)

	var buf bytes.Buffer
	if err := RunView(path, pvlog.Filter{PV: "sim:a"}, &buf); err != nil {
		t.Fatalf("RunView: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "sim:a") {
		t.Error("expected sim:a in output")
	}
	if strings.Contains(output, "sim:b") {
		t.Error("sim:b should have been filtered out")
	}
}

func TestBuildFilter(t *testing.T) {
	filter, err := BuildFilter("", "sim:a", "monitor", "", "")
	if err != nil {
		t.Fatalf("BuildFilter: %v", err)
	}
	if filter.PV != "sim:a" {
		t.Errorf("PV = %q, want sim:a", filter.PV)
	}
	if filter.Category == nil || *filter.Category != pvlog.CategoryMonitor {
		t.Errorf("Category = %v, want MONITOR", filter.Category)
	}

	if _, err := BuildFilter("", "", "bogus", "", ""); err == nil {
		t.Error("BuildFilter accepted an invalid category")
	}

	if _, err := BuildFilter("", "", "", "not-a-time", ""); err == nil {
		t.Error("BuildFilter accepted an invalid time")
	}
}

func TestStatsAggregates(t *testing.T) {
	start := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	events := []pvlog.Event{
		{Timestamp: start, SessionID: "s1", PV: "sim:a", Category: pvlog.CategoryState,
			StateChange: &pvlog.StateChangeEvent{NewState: "CONNECTED"}},
		{Timestamp: start.Add(time.Second), SessionID: "s1", PV: "sim:a", Category: pvlog.CategoryOp,
			Op: &pvlog.OpEvent{Kind: pvlog.OpGet, DataType: dbr.TimeDouble}},
		{Timestamp: start.Add(2 * time.Second), SessionID: "s1", PV: "sim:a", Category: pvlog.CategoryOp,
			Op: &pvlog.OpEvent{Kind: pvlog.OpPut, DataType: dbr.Double}},
		{Timestamp: start.Add(3 * time.Second), SessionID: "s2", PV: "sim:b", Category: pvlog.CategoryError,
			Error: &pvlog.ErrorEvent{Op: "get", Message: "timeout"}},
	}

	path := createTestCaptureFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Total Events: 4",
		"Sessions:     2",
		"Variables: 2",
		"gets=1 puts=1",
		"Errors: 1",
		"STATE:",
		"OP:",
		"ERROR:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestFilterWritesNewFile(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	events := []pvlog.Event{
		{Timestamp: ts, PV: "sim:a", Category: pvlog.CategoryMonitor,
			Monitor: &pvlog.MonitorEvent{DataType: dbr.TimeDouble, Count: 1}},
		{Timestamp: ts, PV: "sim:b", Category: pvlog.CategoryMonitor,
			Monitor: &pvlog.MonitorEvent{DataType: dbr.TimeLong, Count: 1}},
		{Timestamp: ts, PV: "sim:a", Category: pvlog.CategoryState,
			StateChange: &pvlog.StateChangeEvent{NewState: "CONNECTED"}},
	}

	path := createTestCaptureFile(t, events)
	out := filepath.Join(t.TempDir(), "filtered.pvlog")

	if err := RunFilter(path, out, pvlog.Filter{PV: "sim:a"}); err != nil {
		t.Fatalf("RunFilter: %v", err)
	}

	reader, err := pvlog.NewReader(out)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err != nil {
			break
		}
		if event.PV != "sim:a" {
			t.Errorf("unexpected variable %q in filtered file", event.PV)
		}
		count++
	}
	if count != 2 {
		t.Errorf("filtered file has %d events, want 2", count)
	}
}
