package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceLine(t *testing.T) {
	valid := []struct {
		in   string
		want ServiceEntry
	}{
		{"ssh\t\t22/tcp", ServiceEntry{Service: "ssh", Port: 22, Protocol: "tcp", Aliases: []string{}}},
		{"smtp   25/tcp  mail  # mail transfer", ServiceEntry{Service: "smtp", Port: 25, Protocol: "tcp", Aliases: []string{"mail"}, Comment: "mail transfer"}},
	}
	for _, tc := range valid {
		got, ok := ParseServiceLine(tc.in)
		require.True(t, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	for _, in := range []string{"", "# ssh 22/tcp", "ssh", "ssh 22", "ssh 0/tcp", "ssh abc/tcp"} {
		_, ok := ParseServiceLine(in)
		assert.False(t, ok, in)
	}
}

func TestBuildServiceLine(t *testing.T) {
	e := ServiceEntry{Service: "smtp", Port: 25, Protocol: "tcp", Aliases: []string{"mail"}, Comment: "mail transfer"}
	assert.Equal(t, "smtp    25/tcp mail # mail transfer", BuildServiceLine(e))
	assert.Equal(t, "ssh    22/tcp", BuildServiceLine(ServiceEntry{Service: "ssh", Port: 22, Protocol: "tcp"}))
}

func TestSameService(t *testing.T) {
	a := ServiceEntry{Service: "domain", Port: 53, Protocol: "tcp"}
	assert.True(t, SameService(a, ServiceEntry{Service: "domain", Port: 53, Protocol: "tcp", Aliases: []string{"dns"}}))
	assert.False(t, SameService(a, ServiceEntry{Service: "domain", Port: 53, Protocol: "udp"}))
	assert.ErrorContains(t, ValidateService(ServiceEntry{Service: "x", Port: 70000, Protocol: "tcp"}), `"port"`)
}
