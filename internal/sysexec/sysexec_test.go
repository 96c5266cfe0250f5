package sysexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSudoArgs(t *testing.T) {
	name, args := SudoOptions{}.SudoArgs("cat", "/etc/hosts")
	assert.Equal(t, "cat", name)
	assert.Equal(t, []string{"/etc/hosts"}, args)

	name, args = SudoOptions{Enabled: true}.SudoArgs("tee", "/etc/hosts")
	assert.Equal(t, DefaultSudoPath, name)
	assert.Equal(t, []string{"-n", "tee", "/etc/hosts"}, args)

	name, args = SudoOptions{Enabled: true, User: "admin", Path: "/bin/sudo"}.SudoArgs("rm", "-f", "/tmp/x")
	assert.Equal(t, "/bin/sudo", name)
	assert.Equal(t, []string{"-n", "-u", "admin", "rm", "-f", "/tmp/x"}, args)
}

func TestMakeDBArgs(t *testing.T) {
	name, args := MakeDBArgs(SudoOptions{}, "", "-u", "/var/lib/misc/hosts.db")
	assert.Equal(t, DefaultMakeDB, name)
	assert.Equal(t, []string{"--quiet", "-u", "/var/lib/misc/hosts.db"}, args)

	name, args = MakeDBArgs(SudoOptions{Enabled: true}, "/sbin/makedb", "-o", "/db", "-")
	assert.Equal(t, DefaultSudoPath, name)
	assert.Equal(t, []string{"-n", "-u", "root", "/sbin/makedb", "--quiet", "-o", "/db", "-"}, args)
}

func TestRunnerRun(t *testing.T) {
	r := New()
	out, err := r.Run(context.Background(), []byte("hello\n"), "cat")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	_, err = r.Run(context.Background(), nil, "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")

	r.Timeout = 50 * time.Millisecond
	_, err = r.Run(context.Background(), nil, "sleep", "5")
	assert.Error(t, err)
}
