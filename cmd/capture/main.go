package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mgomes/bindcapture/capture"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return usageError()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "seq":
		return seqCommand(args[2:])
	case "repl":
		return runREPL()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	configPath := fs.String("config", "", "TOML file with default run settings")
	discipline := fs.String("discipline", "", "binding discipline: shared or per-iteration")
	iterations := fs.Int("n", 0, "number of loop iterations")
	captureAt := fs.Int("at", 0, "iteration index at which the callback is stored")
	quota := fs.Int("quota", 0, "maximum iterations to execute (0 = unlimited)")
	all := fs.Bool("all", false, "store a callback on every iteration")
	verbose := fs.Bool("verbose", false, "log each iteration")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "discipline":
			d, err := capture.ParseDiscipline(*discipline)
			if err != nil {
				flagErr = err
				return
			}
			cfg.Discipline = d
		case "n":
			cfg.Iterations = *iterations
		case "at":
			cfg.CaptureAt = *captureAt
		case "quota":
			cfg.StepQuota = *quota
		}
	})
	if flagErr != nil {
		return fmt.Errorf("capture run: %w", flagErr)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if *all {
		return runAll(cfg, logger)
	}
	return runSingle(cfg, logger)
}

func runSingle(cfg runConfig, logger *zap.Logger) error {
	if err := capture.CheckCaptureIndex(cfg.Iterations, cfg.CaptureAt); err != nil {
		return fmt.Errorf("capture run: %w", err)
	}
	loop := capture.Loop{
		Discipline: cfg.Discipline,
		Iterations: cfg.Iterations,
		Guard:      capture.AtIndex(cfg.CaptureAt),
		StepQuota:  cfg.StepQuota,
		Trace:      traceSteps(logger),
	}
	out, err := loop.Exec()
	if err != nil {
		return fmt.Errorf("capture run: %w", err)
	}
	value, err := out.Last()()
	if err != nil {
		return fmt.Errorf("invoke callback: %w", err)
	}
	logger.Info("run complete",
		zap.Stringer("discipline", cfg.Discipline),
		zap.Int("iterations", cfg.Iterations),
		zap.Int("capture_at", cfg.CaptureAt),
		zap.Int("observed", value),
	)
	fmt.Printf("callback() = %d\n", value)
	fmt.Println(formatFinal(out))
	return nil
}

func runAll(cfg runConfig, logger *zap.Logger) error {
	loop := capture.Loop{
		Discipline: cfg.Discipline,
		Iterations: cfg.Iterations,
		Guard:      capture.Every,
		StepQuota:  cfg.StepQuota,
		Trace:      traceSteps(logger),
	}
	out, err := loop.Exec()
	if err != nil {
		return fmt.Errorf("capture run: %w", err)
	}
	for i, cb := range out.Callbacks {
		value, err := cb()
		if err != nil {
			return fmt.Errorf("invoke callback %d: %w", out.CapturedAt[i], err)
		}
		fmt.Printf("callback[%d]() = %d\n", out.CapturedAt[i], value)
	}
	logger.Info("run complete",
		zap.Stringer("discipline", cfg.Discipline),
		zap.Int("iterations", cfg.Iterations),
		zap.Int("callbacks", len(out.Callbacks)),
	)
	fmt.Println(formatFinal(out))
	return nil
}

func formatFinal(out *capture.Outcome) string {
	if !out.FinalVisible {
		return "i after loop: not defined"
	}
	return fmt.Sprintf("i after loop = %d", out.Final)
}

func seqCommand(args []string) error {
	fs := flag.NewFlagSet("seq", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	configPath := fs.String("config", "", "TOML file with default run settings")
	iterations := fs.Int("n", 0, "number of loop iterations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "n" {
			cfg.Iterations = *iterations
		}
	})
	seq, err := capture.CollectSequence(cfg.Iterations)
	if err != nil {
		return fmt.Errorf("capture seq: %w", err)
	}
	fmt.Println(seq)
	return nil
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s <run|seq|repl|help> [flags]\n", prog)
	fmt.Fprintln(os.Stderr, "Flags (run):")
	fmt.Fprintln(os.Stderr, "  -config <file>")
	fmt.Fprintln(os.Stderr, "    TOML file with default settings")
	fmt.Fprintln(os.Stderr, "  -discipline shared|per-iteration")
	fmt.Fprintln(os.Stderr, "    binding discipline (default \"shared\")")
	fmt.Fprintln(os.Stderr, "  -n int")
	fmt.Fprintln(os.Stderr, "    number of loop iterations (default 3)")
	fmt.Fprintln(os.Stderr, "  -at int")
	fmt.Fprintln(os.Stderr, "    iteration index at which the callback is stored (default 2)")
	fmt.Fprintln(os.Stderr, "  -quota int")
	fmt.Fprintln(os.Stderr, "    maximum iterations to execute")
	fmt.Fprintln(os.Stderr, "  -all")
	fmt.Fprintln(os.Stderr, "    store a callback on every iteration")
	fmt.Fprintln(os.Stderr, "  -verbose")
	fmt.Fprintln(os.Stderr, "    log each iteration")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
