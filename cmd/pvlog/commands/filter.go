package commands

import (
	"fmt"
	"io"

	"github.com/epics-tools/cago/pkg/pvlog"
)

// RunFilter reads events matching the filter from path and writes them
// to output as a new capture file.
func RunFilter(path, output string, filter pvlog.Filter) error {
	reader, err := pvlog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	writer, err := pvlog.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer writer.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		writer.Log(event)
		count++
	}

	fmt.Printf("Wrote %d events to %s\n", count, output)
	return nil
}
