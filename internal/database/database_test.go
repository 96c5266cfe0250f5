package database

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/etcapi/internal/engine"
	"github.com/hnrobert/etcapi/internal/format"
	"github.com/hnrobert/etcapi/internal/hostfs"
	"github.com/hnrobert/etcapi/internal/sysexec"
)

func TestSpecDefaults(t *testing.T) {
	s, err := Spec{Format: FormatHosts, Backup: true}.WithDefaults("/var/lib/misc")
	require.NoError(t, err)
	assert.Equal(t, Spec{Name: "LinuxHostsFile", Format: "hosts", Backend: "file", File: "/etc/hosts", Backup: true, BackupFile: "/etc/hosts.bak"}, s)

	s, err = Spec{Format: FormatShadow, Backend: BackendMakeDB}.WithDefaults("/var/db")
	require.NoError(t, err)
	assert.Equal(t, "LinuxShadowDb", s.Name)
	assert.Equal(t, "/var/db/shadow.db", s.File)

	s, err = Spec{Format: FormatNsswitch}.WithDefaults("")
	require.NoError(t, err)
	assert.Equal(t, "LinuxNssFile", s.Name)

	s, err = Spec{Format: FormatGroup, Backend: BackendBolt}.WithDefaults("")
	require.NoError(t, err)
	assert.Equal(t, "BoltGroup", s.Bucket)

	_, err = Spec{Format: FormatNsswitch, Backend: BackendMakeDB}.WithDefaults("")
	assert.Error(t, err)
	_, err = Spec{Format: "fstab"}.WithDefaults("")
	assert.Error(t, err)
	_, err = Spec{Format: FormatHosts, Backend: "ldap"}.WithDefaults("")
	assert.Error(t, err)
}

func TestSetJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	set := NewSet(Deps{})
	defer set.Close()

	db, err := set.Open(Spec{Format: FormatHosts, Backend: BackendMemory, Backup: true, Lines: []string{"127.0.0.1\tlocalhost"}})
	require.NoError(t, err)
	assert.Equal(t, "MemoryHosts", db.Name())
	assert.Equal(t, []string{"MemoryHosts"}, set.Names())

	ok, err := db.Add(ctx, json.RawMessage(`{"address":"192.168.0.1","hostname":"test","aliases":["test"]}`), nil)
	require.NoError(t, err)
	require.True(t, ok)

	listed, err := db.List(ctx)
	require.NoError(t, err)
	b, err := json.Marshal(listed)
	require.NoError(t, err)
	var list []engine.DistinctEntry[format.HostEntry, int]
	require.NoError(t, json.Unmarshal(b, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "test", list[1].Entry.Hostname)

	cur, err := json.Marshal(list[1])
	require.NoError(t, err)
	ok, err = db.Replace(ctx, cur, json.RawMessage(`{"address":"192.168.0.1","hostname":"test","aliases":["t"]}`))
	require.NoError(t, err)
	require.True(t, ok)

	raw, err := db.ListRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, []RawLine[int]{{0, "127.0.0.1\tlocalhost"}, {1, "192.168.0.1\ttest t"}}, raw)

	cur, err = json.Marshal(engine.DistinctEntry[format.HostEntry, int]{Entry: format.HostEntry{Address: "192.168.0.1", Hostname: "test"}, Key: 1})
	require.NoError(t, err)
	ok, err = db.Delete(ctx, cur)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = db.Add(ctx, json.RawMessage(`{"address":`), nil)
	assert.True(t, errors.Is(err, ErrBadRequest))
	_, err = db.Delete(ctx, nil)
	assert.True(t, errors.Is(err, ErrBadRequest))
}

func TestSetAddAtKey(t *testing.T) {
	ctx := context.Background()
	set := NewSet(Deps{})
	db, err := set.Open(Spec{Format: FormatPasswd, Backend: BackendMemory, Lines: []string{"root:x:0:0:root:/root:/bin/sh", "bob:x:1001:1001::/home/bob:/bin/sh"}})
	require.NoError(t, err)

	ok, err := db.Add(ctx, json.RawMessage(`{"username":"alice","password":"x","uid":1000,"gid":1000,"gecos":"","home":"/home/alice","shell":"/bin/sh"}`), json.RawMessage(`1`))
	require.NoError(t, err)
	require.True(t, ok)

	users, err := Values[format.PasswdEntry](ctx, db)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[1].Name)

	_, err = Values[format.ShadowEntry](ctx, db)
	assert.Error(t, err)
}

func TestSetFilesAndBolt(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "hosts"), []byte("127.0.0.1\tlocalhost\n"), 0o644))

	set := NewSet(Deps{FS: hostfs.New(root, sysexec.SudoOptions{}, nil)})
	defer set.Close()
	require.NoError(t, set.OpenAll([]Spec{
		{Format: FormatHosts, Backup: true},
		{Format: FormatHosts, Backend: BackendBolt, File: "/var/lib/etcapi/test.db", Backup: true},
		{Format: FormatGroup, Backend: BackendBolt, File: "/var/lib/etcapi/test.db"},
	}))
	_, err := set.Open(Spec{Format: FormatHosts})
	assert.ErrorContains(t, err, "duplicate name")

	hosts, ok := set.Get("LinuxHostsFile")
	require.True(t, ok)
	assert.Equal(t, engine.StatusOnline, hosts.Status(ctx).State)
	ok, err = hosts.Add(ctx, json.RawMessage(`{"address":"10.0.0.1","hostname":"db","aliases":[]}`), nil)
	require.NoError(t, err)
	require.True(t, ok)
	b, err := os.ReadFile(filepath.Join(root, "etc", "hosts"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1\tlocalhost\n10.0.0.1\tdb\n", string(b))
	_, err = os.Stat(filepath.Join(root, "etc", "hosts.bak"))
	assert.NoError(t, err)

	bolt, ok := set.Get("BoltHosts")
	require.True(t, ok)
	ok, err = bolt.Add(ctx, json.RawMessage(`{"address":"10.0.0.2","hostname":"web","aliases":[]}`), json.RawMessage(`42`))
	require.NoError(t, err)
	require.True(t, ok)
	raw, err := bolt.ListRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, []RawLine[uint64]{{42, "10.0.0.2\tweb"}}, raw)

	groups, ok := set.ByFormat(FormatGroup)
	require.True(t, ok)
	n, err := groups.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTypedConstructors(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "nsswitch.conf"), []byte("hosts: files dns\n"), 0o644))
	fs := hostfs.New(root, sysexec.SudoOptions{}, nil)

	nss, err := NewNssFile(fs, Options{})
	require.NoError(t, err)
	assert.Equal(t, "LinuxNssFile", nss.Name())
	list, err := nss.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "hosts", list[0].Entry.Database)

	shadow, err := NewShadowFile(fs, Options{})
	require.NoError(t, err)
	_, err = shadow.List(ctx)
	assert.EqualError(t, err, "LinuxShadowFile is not online: error")
}
