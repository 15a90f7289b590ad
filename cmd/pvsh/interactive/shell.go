// Package interactive provides the interactive command loop for pvsh.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/epics-tools/cago/pkg/channel"
	"github.com/epics-tools/cago/pkg/pv"
	"github.com/epics-tools/cago/pkg/sim"
)

// Shell handles interactive mode for pvsh. Handles are created lazily
// on first use and kept for the life of the session.
type Shell struct {
	provider channel.Provider
	sim      *sim.Provider
	baseOpts pv.Options
	rl       *readline.Instance

	mu       sync.Mutex
	handles  map[string]*pv.PV
	monitors map[string]int
}

// New creates a new interactive shell. simProv may be nil when the
// provider has no server-side controls.
func New(provider channel.Provider, simProv *sim.Provider, baseOpts pv.Options) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pvsh> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Shell{
		provider: provider,
		sim:      simProv,
		baseOpts: baseOpts,
		rl:       rl,
		handles:  make(map[string]*pv.PV),
		monitors: make(map[string]int),
	}, nil
}

// Stdout returns a writer that properly coordinates with the readline
// input. Use this for log output to avoid interfering with the prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()
	defer s.closeHandles()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "get", "g":
			s.cmdGet(ctx, args)

		case "put", "p":
			s.cmdPut(ctx, args)

		case "monitor", "m":
			s.cmdMonitor(ctx, args)

		case "unmonitor", "um":
			s.cmdUnmonitor(args)

		case "info", "i":
			s.cmdInfo(ctx, args)

		case "rights":
			s.cmdRights(args)

		case "list", "ls":
			s.cmdList()

		case "set":
			s.cmdSet(args)

		case "down":
			s.cmdServerState(args, false)

		case "up":
			s.cmdServerState(args, true)

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
pvsh Commands:
  Client:
    get <pv> [-s]      - Read a value (-s formats enums/char data as text)
    put <pv> <value>   - Write a value (numbers, text, or several values)
    monitor <pv>       - Print every update of a variable
    unmonitor <pv>     - Stop printing updates
    info <pv>          - Show type, value, metadata and limits
    rights <pv>        - Show access rights

  Simulated server:
    list               - List simulated variables
    set <pv> <value>   - Change a value server-side (triggers monitors)
    down <pv>          - Take a variable's server down
    up <pv>            - Bring a variable's server back up

  General:
    help               - Show this help
    quit               - Exit`)
}

// handle returns the cached handle for name, creating one on first use.
func (s *Shell) handle(name string) (*pv.PV, error) {
	s.mu.Lock()
	p, ok := s.handles[name]
	s.mu.Unlock()
	if ok {
		return p, nil
	}

	opts := s.baseOpts
	p, err := pv.New(s.provider, name, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.handles[name] = p
	s.mu.Unlock()
	return p, nil
}

func (s *Shell) closeHandles() {
	s.mu.Lock()
	handles := s.handles
	s.handles = make(map[string]*pv.PV)
	s.mu.Unlock()
	for _, p := range handles {
		_ = p.Disconnect()
	}
}

func (s *Shell) cmdGet(ctx context.Context, args []string) {
	asString := false
	var names []string
	for _, a := range args {
		if a == "-s" {
			asString = true
			continue
		}
		names = append(names, a)
	}
	if len(names) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: get <pv> [-s]")
		return
	}

	p, err := s.handle(names[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	value, err := p.Get(ctx, pv.GetOptions{AsString: asString, Timeout: 2 * time.Second})
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s = %v\n", names[0], value)
}

func (s *Shell) cmdPut(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: put <pv> <value...>")
		return
	}

	p, err := s.handle(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	value := parseValue(args[1:])
	if err := p.Put(ctx, value, pv.PutOptions{Wait: true, Timeout: 5 * time.Second}); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s <- %v\n", args[0], value)
}

func (s *Shell) cmdMonitor(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: monitor <pv>")
		return
	}
	name := args[0]

	s.mu.Lock()
	_, active := s.monitors[name]
	s.mu.Unlock()
	if active {
		fmt.Fprintf(s.rl.Stdout(), "Already monitoring %s\n", name)
		return
	}

	p, err := s.handle(name)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}

	out := s.rl.Stdout()
	index, err := p.AddCallback(ctx, func(u pv.Update) {
		stamp := ""
		if u.Meta.HasTimestamp {
			stamp = " @ " + u.Meta.Timestamp.Format("15:04:05.000")
		}
		fmt.Fprintf(out, "%s = %v%s\n", u.Meta.Name, u.Meta.Value, stamp)
	}, pv.CallbackOptions{RunNow: true})
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}

	s.mu.Lock()
	s.monitors[name] = index
	s.mu.Unlock()
}

func (s *Shell) cmdUnmonitor(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: unmonitor <pv>")
		return
	}
	name := args[0]

	s.mu.Lock()
	index, active := s.monitors[name]
	p := s.handles[name]
	delete(s.monitors, name)
	s.mu.Unlock()

	if !active || p == nil {
		fmt.Fprintf(s.rl.Stdout(), "Not monitoring %s\n", name)
		return
	}
	p.RemoveCallback(index)
	fmt.Fprintf(s.rl.Stdout(), "Stopped monitoring %s\n", name)
}

func (s *Shell) cmdInfo(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: info <pv>")
		return
	}
	p, err := s.handle(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	info, err := p.Info(ctx)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.rl.Stdout(), info)
}

func (s *Shell) cmdRights(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: rights <pv>")
		return
	}
	p, err := s.handle(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if err := p.WaitForConnection(context.Background(), 2*time.Second); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s: %s\n", args[0], p.Access())
}

func (s *Shell) cmdList() {
	if s.sim == nil {
		fmt.Fprintln(s.rl.Stdout(), "No simulated server attached")
		return
	}
	names := s.sim.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(s.rl.Stdout(), "  "+name)
	}
}

func (s *Shell) cmdSet(args []string) {
	if s.sim == nil {
		fmt.Fprintln(s.rl.Stdout(), "No simulated server attached")
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: set <pv> <value...>")
		return
	}
	if err := s.sim.SetValue(args[0], parseValue(args[1:])); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
	}
}

func (s *Shell) cmdServerState(args []string, up bool) {
	if s.sim == nil {
		fmt.Fprintln(s.rl.Stdout(), "No simulated server attached")
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: down|up <pv>")
		return
	}
	var err error
	if up {
		err = s.sim.Reconnect(args[0])
	} else {
		err = s.sim.Disconnect(args[0])
	}
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Error: %v\n", err)
	}
}

// parseValue interprets command arguments as a put value: a single
// number or word, or a list of numbers, or a list of words.
func parseValue(args []string) any {
	if len(args) == 1 {
		if n, err := strconv.ParseInt(args[0], 10, 32); err == nil {
			return int(n)
		}
		if f, err := strconv.ParseFloat(args[0], 64); err == nil {
			return f
		}
		return args[0]
	}

	floats := make([]float64, 0, len(args))
	for _, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return args
		}
		floats = append(floats, f)
	}
	return floats
}
