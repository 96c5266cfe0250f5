package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

var ErrAuthBackend = errors.New("auth backend error")

const (
	DefaultSuPath    = "su"
	DefaultSuTimeout = 6 * time.Second
)

// suPrompt watches su's terminal output and answers the first password
// prompt.
type suPrompt struct {
	mu       sync.Mutex
	seen     strings.Builder
	answered bool
}

func (p *suPrompt) feed(chunk []byte, w io.Writer, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen.Write(chunk)
	if p.answered || !strings.Contains(strings.ToLower(p.seen.String()), "password") {
		return
	}
	p.answered = true
	_, _ = io.WriteString(w, password+"\n")
}

func (p *suPrompt) wasAnswered() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.answered
}

// verifyWithSu lets su(1) check the password of username on a PTY. It
// covers hashes the crypt package cannot check, such as yescrypt.
func (a *Authenticator) verifyWithSu(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || strings.HasPrefix(username, "-") {
		return false, ErrInvalidCredentials
	}
	path, timeout := a.SuPath, a.SuTimeout
	if path == "" {
		path = DefaultSuPath
	}
	if timeout <= 0 {
		timeout = DefaultSuTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "-s", "/bin/sh", "-c", "true", "--", username)
	tty, err := pty.Start(cmd)
	if err != nil {
		return false, fmt.Errorf("%w: start su: %v", ErrAuthBackend, err)
	}
	defer func() { _ = tty.Close() }()

	prompt := &suPrompt{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 4096)
		for {
			_ = tty.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
			n, rerr := tty.Read(buf)
			if n > 0 {
				prompt.feed(buf[:n], tty, password)
			}
			if rerr != nil {
				return
			}
		}
	}()

	werr := cmd.Wait()
	<-done
	switch {
	case werr == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, fmt.Errorf("%w: su timed out", ErrAuthBackend)
	case !prompt.wasAnswered():
		a.Log.Warn("auth: su exited without a password prompt for %s: %v", username, werr)
	}
	return false, nil
}
