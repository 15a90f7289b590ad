// Command pvlog is a tool for viewing and analyzing client capture
// files.
//
// Capture files are created by running pvsh or pvbatch with the
// -record flag.
//
// Usage:
//
//	pvlog <command> [flags] <file.pvlog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	pvlog view session.pvlog
//
//	# View only monitor updates
//	pvlog view -category monitor session.pvlog
//
//	# Filter by variable and save to new file
//	pvlog filter -pv sim:temperature -o filtered.pvlog session.pvlog
//
//	# Show statistics
//	pvlog stats session.pvlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/epics-tools/cago/cmd/pvlog/commands"
)

const usage = `pvlog - Client Capture Analyzer

Usage:
  pvlog <command> [flags] <file.pvlog>

Commands:
  view     View capture file in human-readable format
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "pvlog <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pvlog view - View capture file in human-readable format

Usage:
  pvlog view [flags] <file.pvlog>

Flags:
`)
		fs.PrintDefaults()
	}

	pvName := fs.String("pv", "", "Filter by variable name")
	category := fs.String("category", "", "Filter by category (state, op, monitor, access, error)")
	session := fs.String("session", "", "Filter by session ID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := commands.BuildFilter(*session, *pvName, *category, "", "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := commands.RunView(fs.Arg(0), filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pvlog filter - Filter capture file and write to new file

Usage:
  pvlog filter [flags] <file.pvlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	pvName := fs.String("pv", "", "Filter by variable name")
	category := fs.String("category", "", "Filter by category (state, op, monitor, access, error)")
	session := fs.String("session", "", "Filter by session ID")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := commands.BuildFilter(*session, *pvName, *category, *timeStart, *timeEnd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := commands.RunFilter(fs.Arg(0), *output, filter); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pvlog stats - Show statistics about the capture file

Usage:
  pvlog stats <file.pvlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
