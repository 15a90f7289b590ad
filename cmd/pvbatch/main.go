// Command pvbatch runs batch reads and writes from a YAML job file
// against a built-in simulated server.
//
// Usage:
//
//	pvbatch [flags] <job.yaml>
//
// Flags:
//
//	-raises  Fail if any variable does not connect
//
// A job file declares the simulated variables, the reads and the
// writes:
//
//	timeout: 5s
//	wait: all
//	variables:
//	  sim:temperature:
//	    type: double
//	    value: 21.5
//	    units: degC
//	  sim:mode:
//	    type: enum
//	    value: 1
//	    enum_strs: [Off, On, Fault]
//	puts:
//	  - pv: sim:temperature
//	    value: 19.0
//	gets:
//	  - sim:temperature
//	  - sim:mode
//
// Writes run before reads, so a job can verify its own effect.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/epics-tools/cago/pkg/pv"
)

func main() {
	raises := flag.Bool("raises", false, "Fail if any variable does not connect")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `pvbatch - Batch reads and writes from a YAML job file

Usage:
  pvbatch [flags] <job.yaml>

Flags:
`)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: job file path required")
		flag.Usage()
		os.Exit(1)
	}

	job, err := LoadJob(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	failed, err := run(job, *raises)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}

func run(job *Job, raises bool) (failed bool, err error) {
	prov, err := job.Provider()
	if err != nil {
		return false, err
	}
	ctx := context.Background()

	if len(job.Puts) > 0 {
		names := make([]string, len(job.Puts))
		values := make([]any, len(job.Puts))
		for i, p := range job.Puts {
			names[i] = p.PV
			values[i] = p.Value
		}

		mode, err := job.WaitMode()
		if err != nil {
			return false, err
		}
		statuses, err := pv.PutMany(ctx, prov, names, values, pv.PutManyOptions{
			Wait:              mode,
			ConnectionTimeout: job.Timeout,
			PutTimeout:        job.Timeout,
		})
		if err != nil {
			return false, err
		}
		for i, status := range statuses {
			if status == 1 {
				fmt.Printf("put %s <- %v\n", names[i], values[i])
			} else {
				fmt.Printf("put %s FAILED\n", names[i])
				failed = true
			}
		}
	}

	if len(job.Gets) > 0 {
		results, err := pv.GetMany(ctx, prov, job.Gets, pv.GetManyOptions{
			AsString: job.AsString,
			Timeout:  job.Timeout,
			Raises:   raises,
		})
		if err != nil {
			return false, err
		}
		for i, value := range results {
			if value == nil {
				fmt.Printf("get %s FAILED\n", job.Gets[i])
				failed = true
				continue
			}
			fmt.Printf("get %s = %v\n", job.Gets[i], value)
		}
	}

	return failed, nil
}
