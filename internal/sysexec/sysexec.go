// Package sysexec runs host commands with a timeout, optionally through sudo.
package sysexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultSudoPath = "/usr/bin/sudo"
	DefaultSudoUser = "root"
	DefaultMakeDB   = "/usr/bin/makedb"
)

type Runner struct {
	Timeout time.Duration
}

func New() *Runner {
	return &Runner{Timeout: 10 * time.Second}
}

// Run executes name with args, feeding stdin when it is non-nil, and returns
// stdout. A failing command's error carries its trimmed stderr.
func (r *Runner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %v: %w", name, args, ctxErr)
		}
		s := strings.TrimSpace(stderr.String())
		if s == "" {
			return nil, fmt.Errorf("%s %v: %w", name, args, err)
		}
		return nil, fmt.Errorf("%s %v: %s", name, args, s)
	}
	return stdout.Bytes(), nil
}

// SudoOptions controls privilege escalation for file and makedb commands.
type SudoOptions struct {
	Enabled bool   `yaml:"enabled"`
	User    string `yaml:"user,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

func (o SudoOptions) path() string {
	if o.Path == "" {
		return DefaultSudoPath
	}
	return o.Path
}

// SudoArgs wraps name and args in a non-interactive sudo invocation:
//
//	sudo -n [-u user] name args...
//
// When sudo is disabled the command is returned unchanged.
func (o SudoOptions) SudoArgs(name string, args ...string) (string, []string) {
	if !o.Enabled {
		return name, args
	}
	out := []string{"-n"}
	if o.User != "" {
		out = append(out, "-u", o.User)
	}
	out = append(out, name)
	return o.path(), append(out, args...)
}

// MakeDBArgs builds a quiet makedb invocation, run as o.User (root by default)
// when sudo is enabled.
func MakeDBArgs(o SudoOptions, makedb string, args ...string) (string, []string) {
	if makedb == "" {
		makedb = DefaultMakeDB
	}
	mk := append([]string{"--quiet"}, args...)
	if !o.Enabled {
		return makedb, mk
	}
	user := o.User
	if user == "" {
		user = DefaultSudoUser
	}
	return o.path(), append([]string{"-n", "-u", user, makedb}, mk...)
}
