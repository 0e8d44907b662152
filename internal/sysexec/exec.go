// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sysexec runs external processes behind an interface so that
// converters and container runtimes can be tested without spawning them.
package sysexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Executor abstracts process execution.
type Executor interface {
	// LookPath resolves a binary on PATH.
	LookPath(file string) (string, error)

	// RunSilent runs the command and discards its output.
	RunSilent(ctx context.Context, name string, args ...string) error

	// RunCombined runs the command and returns stdout and stderr
	// interleaved. A non-zero exit is reported as *ExitError.
	RunCombined(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExitError wraps a failed command together with its trimmed output.
type ExitError struct {
	Command string
	Output  string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Output)
}

func (e *ExitError) Unwrap() error { return e.Err }

// OS is the production executor backed by os/exec.
type OS struct{}

// Default is the shared production executor.
var Default Executor = OS{}

func (OS) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (OS) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (OS) RunCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return out.Bytes(), &ExitError{
			Command: name,
			Output:  strings.TrimSpace(out.String()),
			Err:     err,
		}
	}
	return out.Bytes(), nil
}
