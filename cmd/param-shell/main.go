// Command param-shell is an interactive shell around a simulated Keithley
// 2601B. It exercises the parameter layer end to end: list parameters,
// get and set values, run sweeps, dump snapshots.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/liuyichao82/Qcodes/pkg/drivers/keithley2600"
	"github.com/liuyichao82/Qcodes/pkg/instrument"
	"github.com/liuyichao82/Qcodes/pkg/paramlog"
	"github.com/liuyichao82/Qcodes/pkg/parameter"
)

func main() {
	name := flag.String("name", "keithley", "instrument name")
	logFile := flag.String("log", "", "write parameter events to this CBOR file")
	verbose := flag.Bool("verbose", false, "log parameter events to the console")
	flag.Parse()

	if err := run(*name, *logFile, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(name, logFile string, verbose bool) error {
	var loggers []paramlog.Logger
	if verbose {
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		loggers = append(loggers, paramlog.NewSlogAdapter(slog.New(handler)))
	}
	if logFile != "" {
		fl, err := paramlog.NewFileLogger(logFile)
		if err != nil {
			return err
		}
		defer fl.Close()
		loggers = append(loggers, fl)
	}
	var opts []instrument.Option
	if len(loggers) > 0 {
		opts = append(opts, instrument.WithEventLogger(paramlog.NewMultiLogger(loggers...)))
	}

	k, _, err := keithley2600.NewSimulated(name, opts...)
	if err != nil {
		return err
	}
	defer k.Close()

	sh, err := newShell(k.Base)
	if err != nil {
		return err
	}
	defer sh.rl.Close()

	if idn, err := k.IDN(); err == nil {
		fmt.Printf("Connected to %s %s (serial %s, firmware %s)\n",
			idn.Vendor, idn.Model, idn.Serial, idn.Firmware)
	}
	sh.printHelp()
	return sh.run()
}

// shell drives the readline loop against one instrument.
type shell struct {
	inst *instrument.Base
	rl   *readline.Instance
}

func newShell(inst *instrument.Base) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          inst.Name() + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{inst: inst, rl: rl}, nil
}

func (s *shell) run() error {
	for {
		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return nil
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

		case "list", "l":
			s.cmdList()

		case "get", "g":
			s.cmdGet(args)

		case "set", "s":
			s.cmdSet(args)

		case "sweep":
			s.cmdSweep(args)

		case "snapshot", "snap":
			s.cmdSnapshot()

		case "exit", "quit", "q":
			return nil

		default:
			fmt.Printf("unknown command %q, try help\n", cmd)
		}
	}
}

func (s *shell) printHelp() {
	fmt.Println(`Commands:
  list                       list parameters
  get <param>                read a parameter
  set <param> <value>        write a parameter
  sweep <param> <start> <stop> <num>
                             set the parameter across a linear sweep
  snapshot                   dump the instrument snapshot as JSON
  exit                       leave the shell`)
}

func (s *shell) cmdList() {
	for _, name := range s.inst.ParameterNames() {
		p, err := s.inst.Parameter(name)
		if err != nil {
			continue
		}
		unit := p.Unit()
		if unit == "" {
			unit = "-"
		}
		fmt.Printf("  %-24s %-24s unit=%s\n", name, p.Label(), unit)
	}
}

func (s *shell) lookup(args []string) (*parameter.Parameter, bool) {
	if len(args) < 1 {
		fmt.Println("missing parameter name")
		return nil, false
	}
	p, err := s.inst.Parameter(args[0])
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return nil, false
	}
	return p, true
}

func (s *shell) cmdGet(args []string) {
	p, ok := s.lookup(args)
	if !ok {
		return
	}
	value, err := p.Get()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("%v %s\n", value, p.Unit())
}

func (s *shell) cmdSet(args []string) {
	p, ok := s.lookup(args)
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Println("missing value")
		return
	}
	if err := p.Set(parseValue(args[1])); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println("ok")
}

func (s *shell) cmdSweep(args []string) {
	p, ok := s.lookup(args)
	if !ok {
		return
	}
	if len(args) < 4 {
		fmt.Println("usage: sweep <param> <start> <stop> <num>")
		return
	}
	start, err1 := strconv.ParseFloat(args[1], 64)
	stop, err2 := strconv.ParseFloat(args[2], 64)
	num, err3 := strconv.Atoi(args[3])
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Println("usage: sweep <param> <start> <stop> <num>")
		return
	}

	sweep, err := p.Sweep(start, stop, parameter.WithNum(num))
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for _, v := range sweep.Values() {
		if err := p.Set(v); err != nil {
			fmt.Printf("error at %v: %v\n", v, err)
			return
		}
		fmt.Printf("  %s = %v %s\n", p.Name(), v, p.Unit())
	}
}

func (s *shell) cmdSnapshot() {
	snap := s.inst.Snapshot(true)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

// parseValue interprets a token as bool, number, or bare string.
func parseValue(token string) any {
	switch token {
	case "true", "on":
		return true
	case "false", "off":
		return false
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f
	}
	return token
}
