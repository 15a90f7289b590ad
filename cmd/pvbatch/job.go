package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/epics-tools/cago/pkg/dbr"
	"github.com/epics-tools/cago/pkg/pv"
	"github.com/epics-tools/cago/pkg/sim"
)

// Job is one batch job file: the simulated variables to serve, the
// reads and writes to perform against them, and how to wait.
type Job struct {
	// Variables declares the simulated server's variables.
	Variables map[string]Variable `yaml:"variables"`

	// Gets lists the variable names to read.
	Gets []string `yaml:"gets"`

	// Puts lists the writes to perform.
	Puts []Put `yaml:"puts"`

	// Wait selects the put blocking mode: none, each or all.
	Wait string `yaml:"wait"`

	// Timeout bounds the batch operations.
	Timeout time.Duration `yaml:"timeout"`

	// AsString formats read results as display text.
	AsString bool `yaml:"as_string"`
}

// Variable declares one simulated variable in a job file.
type Variable struct {
	Type         string        `yaml:"type"`
	Value        any           `yaml:"value"`
	Count        int           `yaml:"count"`
	EnumStrs     []string      `yaml:"enum_strs"`
	Units        string        `yaml:"units"`
	Precision    int16         `yaml:"precision"`
	Rights       string        `yaml:"rights"`
	ConnectDelay time.Duration `yaml:"connect_delay"`
}

// Put is one write in a job file.
type Put struct {
	PV    string `yaml:"pv"`
	Value any    `yaml:"value"`
}

// LoadJob reads and validates a job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}

	if len(job.Gets) == 0 && len(job.Puts) == 0 {
		return nil, fmt.Errorf("job file declares neither gets nor puts")
	}
	if _, err := job.WaitMode(); err != nil {
		return nil, err
	}
	for name, v := range job.Variables {
		if _, err := parseFieldType(v.Type); err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
	}
	if job.Timeout <= 0 {
		job.Timeout = 5 * time.Second
	}
	return &job, nil
}

// WaitMode returns the parsed put blocking mode.
func (j *Job) WaitMode() (pv.WaitMode, error) {
	switch j.Wait {
	case "", "each":
		return pv.WaitEach, nil
	case "none":
		return pv.WaitNone, nil
	case "all":
		return pv.WaitAll, nil
	default:
		return 0, fmt.Errorf("invalid wait mode %q (must be none, each, or all)", j.Wait)
	}
}

// Provider builds the simulated server the job runs against.
func (j *Job) Provider() (*sim.Provider, error) {
	prov := sim.NewProvider()
	for name, v := range j.Variables {
		cfg, err := v.config()
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		if err := prov.Add(name, cfg); err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
	}
	return prov, nil
}

func (v Variable) config() (sim.Config, error) {
	typ, err := parseFieldType(v.Type)
	if err != nil {
		return sim.Config{}, err
	}

	value := v.Value
	if typ == dbr.Char {
		// Char waveforms are declared as text in job files.
		if s, ok := value.(string); ok {
			value = []byte(s)
		}
	}

	cfg := sim.Config{
		Type:         typ,
		Value:        value,
		Count:        v.Count,
		EnumStrs:     v.EnumStrs,
		Units:        v.Units,
		Precision:    v.Precision,
		ConnectDelay: v.ConnectDelay,
	}

	switch v.Rights {
	case "", "rw", "read/write":
		cfg.Rights = dbr.ReadWrite
	case "ro", "read-only":
		cfg.Rights = dbr.ReadOnly
	default:
		return sim.Config{}, fmt.Errorf("invalid rights %q (must be rw or ro)", v.Rights)
	}
	return cfg, nil
}

func parseFieldType(s string) (dbr.FieldType, error) {
	switch s {
	case "string":
		return dbr.String, nil
	case "int", "short":
		return dbr.Int, nil
	case "float":
		return dbr.Float, nil
	case "enum":
		return dbr.Enum, nil
	case "char":
		return dbr.Char, nil
	case "long":
		return dbr.Long, nil
	case "", "double":
		return dbr.Double, nil
	default:
		return 0, fmt.Errorf("invalid type %q", s)
	}
}
