package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgomes/bindcapture/capture"
)

func TestRunCLIHelp(t *testing.T) {
	if err := runCLI([]string{"capture", "help"}); err != nil {
		t.Fatalf("runCLI help failed: %v", err)
	}
}

func TestRunCLIInvalidCommand(t *testing.T) {
	err := runCLI([]string{"capture", "unknown"})
	if err == nil {
		t.Fatalf("expected invalid command error")
	}
	if !strings.Contains(err.Error(), "invalid command") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunCLIWithoutCommand(t *testing.T) {
	err := runCLI([]string{"capture"})
	if err == nil {
		t.Fatalf("expected invalid command error")
	}
	if !strings.Contains(err.Error(), "invalid command") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunCommandDefaultsToSharedThreeTwo(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return runCommand(nil)
	})
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	if !strings.Contains(out, "callback() = 3") {
		t.Fatalf("unexpected stdout: %q", out)
	}
	if !strings.Contains(out, "i after loop = 3") {
		t.Fatalf("expected shared counter after loop: %q", out)
	}
}

func TestRunCommandPerIteration(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return runCommand([]string{"-discipline", "per-iteration", "-n", "5", "-at", "1"})
	})
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	if !strings.Contains(out, "callback() = 1") {
		t.Fatalf("unexpected stdout: %q", out)
	}
	if !strings.Contains(out, "i after loop: not defined") {
		t.Fatalf("per-iteration counter should not outlive the loop: %q", out)
	}
}

func TestRunCommandAllCallbacks(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return runCommand([]string{"-all", "-discipline", "let", "-n", "3"})
	})
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	for _, want := range []string{"callback[0]() = 0", "callback[1]() = 1", "callback[2]() = 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestRunCommandVerboseStillPrintsResult(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return runCommand([]string{"-verbose", "-n", "2", "-at", "0"})
	})
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	if !strings.Contains(out, "callback() = 2") {
		t.Fatalf("unexpected stdout: %q", out)
	}
}

func TestRunCommandRejectsOutOfRangeCapture(t *testing.T) {
	err := runCommand([]string{"-n", "0", "-at", "0"})
	if !errors.Is(err, capture.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRunCommandRejectsUnknownDiscipline(t *testing.T) {
	err := runCommand([]string{"-discipline", "const"})
	if !errors.Is(err, capture.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRunCommandAllRejectsHugeCount(t *testing.T) {
	err := runCommand([]string{"-all", "-n", "9223372036854775807"})
	if !errors.Is(err, capture.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRunCommandStepQuota(t *testing.T) {
	err := runCommand([]string{"-n", "10", "-at", "1", "-quota", "3"})
	if !errors.Is(err, capture.ErrStepQuotaExceeded) {
		t.Fatalf("expected ErrStepQuotaExceeded, got %v", err)
	}
}

func TestRunCommandReadsConfigFile(t *testing.T) {
	path := writeConfig(t, `discipline = "per-iteration"
iterations = 4
capture_at = 3
`)
	out, err := captureStdout(t, func() error {
		return runCommand([]string{"-config", path})
	})
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	if !strings.Contains(out, "callback() = 3") {
		t.Fatalf("unexpected stdout: %q", out)
	}

	out, err = captureStdout(t, func() error {
		return runCommand([]string{"-config", path, "-discipline", "shared"})
	})
	if err != nil {
		t.Fatalf("runCommand failed: %v", err)
	}
	if !strings.Contains(out, "callback() = 4") {
		t.Fatalf("flag should override config discipline: %q", out)
	}
}

func TestSeqCommand(t *testing.T) {
	out, err := captureStdout(t, func() error {
		return seqCommand([]string{"-n", "3"})
	})
	if err != nil {
		t.Fatalf("seqCommand failed: %v", err)
	}
	if got := strings.TrimSpace(out); got != "[0 1 2]" {
		t.Fatalf("unexpected stdout: %q", got)
	}

	for _, n := range []string{"-1", "9223372036854775807"} {
		if err := seqCommand([]string{"-n", n}); !errors.Is(err, capture.ErrInvalidArgument) {
			t.Fatalf("seq -n %s: expected ErrInvalidArgument, got %v", n, err)
		}
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w

	runErr := fn()
	_ = w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	if _, copyErr := io.Copy(&buf, r); copyErr != nil {
		t.Fatalf("read stdout: %v", copyErr)
	}
	_ = r.Close()
	return buf.String(), runErr
}
