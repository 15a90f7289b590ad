// Command pvsh is an interactive shell for working with process
// variables against a built-in simulated server.
//
// Usage:
//
//	pvsh [flags]
//
// Flags:
//
//	-log-level string  Log level: debug, info, warn, error (default "warn")
//	-record string     Write a client capture file (.pvlog)
//	-simulate          Animate the simulated variables (default true)
//
// Examples:
//
//	# Start the shell
//	pvsh
//
//	# Record a capture for later analysis with pvlog
//	pvsh -record session.pvlog
//
//	# Verbose client logging
//	pvsh -log-level debug
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epics-tools/cago/cmd/pvsh/interactive"
	"github.com/epics-tools/cago/pkg/dbr"
	"github.com/epics-tools/cago/pkg/pv"
	"github.com/epics-tools/cago/pkg/pvlog"
	"github.com/epics-tools/cago/pkg/sim"
)

func main() {
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	record := flag.String("record", "", "Write a client capture file (.pvlog)")
	simulate := flag.Bool("simulate", true, "Animate the simulated variables")
	flag.Parse()

	prov := sim.NewProvider()
	if err := addDemoVariables(prov); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up simulated server: %v\n", err)
		os.Exit(1)
	}

	baseOpts := pv.Options{}
	if *record != "" {
		capture, err := pvlog.NewFileLogger(*record)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open capture file: %v\n", err)
			os.Exit(1)
		}
		defer capture.Close()
		baseOpts.EventLog = capture
	}

	shell, err := interactive.New(prov, prov, baseOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start shell: %v\n", err)
		os.Exit(1)
	}

	// Log output goes through readline so it does not mangle the prompt.
	logger := slog.New(slog.NewTextHandler(shell.Stdout(), &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if *simulate {
		go animate(ctx, prov)
	}

	shell.Run(ctx, cancel)
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// addDemoVariables declares the simulated server's variables.
func addDemoVariables(prov *sim.Provider) error {
	vars := map[string]sim.Config{
		"sim:temperature": {
			Type:      dbr.Double,
			Value:     21.5,
			Units:     "degC",
			Precision: 1,
			Limits: &sim.Limits{
				LowerDisp: -10, UpperDisp: 60,
				LowerWarning: 0, UpperWarning: 40,
				LowerAlarm: -5, UpperAlarm: 50,
				LowerCtrl: -10, UpperCtrl: 60,
			},
		},
		"sim:pressure": {
			Type:      dbr.Double,
			Value:     1.013,
			Units:     "bar",
			Precision: 3,
			Limits: &sim.Limits{
				LowerDisp: 0, UpperDisp: 10,
				LowerCtrl: 0, UpperCtrl: 10,
			},
		},
		"sim:mode": {
			Type:     dbr.Enum,
			Value:    uint16(0),
			EnumStrs: []string{"Off", "Standby", "Running", "Fault"},
		},
		"sim:message": {
			Type:  dbr.Char,
			Value: []byte("ready\x00\x00\x00\x00\x00"),
		},
		"sim:waveform": {
			Type:  dbr.Double,
			Value: []float64{0, 0, 0, 0, 0},
		},
		"sim:counter": {
			Type:  dbr.Long,
			Value: int32(0),
		},
		"sim:readonly": {
			Type:   dbr.Long,
			Value:  int32(42),
			Rights: dbr.ReadOnly,
		},
	}
	for name, cfg := range vars {
		if err := prov.Add(name, cfg); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// animate drives the simulated variables so monitors have something to
// show.
func animate(ctx context.Context, prov *sim.Provider) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var tick int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		tick++

		_ = prov.SetValue("sim:counter", int32(tick))
		_ = prov.SetValue("sim:temperature", 21.5+2*math.Sin(float64(tick)/10))

		wave := make([]float64, 5)
		for i := range wave {
			wave[i] = math.Sin(float64(tick+i) / 5)
		}
		_ = prov.SetValue("sim:waveform", wave)
	}
}
