package engine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/etcapi/internal/engine"
	"github.com/hnrobert/etcapi/internal/format"
	"github.com/hnrobert/etcapi/internal/storage"
)

type host struct {
	Addr string
	Name string
	Note string
}

var hostFormat = engine.Format[host]{
	Decode: func(line string) (host, bool) {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "#") {
			return host{}, false
		}
		f := strings.Fields(t)
		if len(f) < 2 {
			return host{}, false
		}
		h := host{Addr: f[0], Name: f[1]}
		if len(f) > 2 {
			h.Note = strings.Join(f[2:], " ")
		}
		return h, true
	},
	Encode: func(h host) string {
		if h.Note == "" {
			return h.Addr + " " + h.Name
		}
		return h.Addr + " " + h.Name + " " + h.Note
	},
	Validate: func(h host) error {
		if h.Addr == "" || strings.ContainsAny(h.Name, " #") || h.Name == "" {
			return fmt.Errorf("Invalid hosts entry: %q", h.Name)
		}
		return nil
	},
	Same: func(a, b host) bool { return a.Addr == b.Addr && a.Name == b.Name },
}

// fakeBackend is a positional line store that counts calls and can be told to
// misbehave.
type fakeBackend struct {
	lines  []string
	status engine.ServiceStatus

	loads, stores int
	dropWrites    bool
	storeErr      error
}

func newFake(lines ...string) *fakeBackend {
	return &fakeBackend{lines: lines, status: engine.Online()}
}

func (f *fakeBackend) Status(context.Context) engine.ServiceStatus { return f.status }

func (f *fakeBackend) Load(context.Context) (*engine.RawMap[int], error) {
	f.loads++
	return engine.LinesToRawMap(append([]string{}, f.lines...)), nil
}

func (f *fakeBackend) Store(_ context.Context, data *engine.RawMap[int]) error {
	f.stores++
	if f.storeErr != nil {
		f.lines = []string{"garbage"}
		return f.storeErr
	}
	if f.dropWrites {
		return nil
	}
	f.lines = data.Lines()
	return nil
}

type fakeBackup struct {
	b        *fakeBackend
	snap     []string
	creates  int
	restores int
	failOn   string
}

func (k *fakeBackup) Create(context.Context) error {
	k.creates++
	if k.failOn == "create" {
		return errors.New("disk full")
	}
	k.snap = append([]string{}, k.b.lines...)
	return nil
}

func (k *fakeBackup) Restore(context.Context) error {
	k.restores++
	if k.failOn == "restore" {
		return errors.New("read-only file system")
	}
	k.b.lines = append([]string{}, k.snap...)
	return nil
}

func newEngine(t *testing.T, b *fakeBackend, backup engine.BackupManager) *engine.Engine[host, int] {
	t.Helper()
	e, err := engine.New(engine.Config[host, int]{
		Name:    "testHosts",
		Format:  hostFormat,
		Backend: b,
		Keys:    engine.LineKeys{},
		Backup:  backup,
	})
	require.NoError(t, err)
	return e
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := engine.New(engine.Config[host, int]{Format: hostFormat, Backend: newFake(), Keys: engine.LineKeys{}})
	assert.Error(t, err)
	_, err = engine.New(engine.Config[host, int]{Name: "x", Format: hostFormat, Keys: engine.LineKeys{}})
	assert.Error(t, err)
	_, err = engine.New(engine.Config[host, int]{Name: "x", Backend: newFake(), Keys: engine.LineKeys{}})
	assert.Error(t, err)
}

func TestHostsScenario(t *testing.T) {
	ctx := context.Background()
	b := newFake("127.0.0.1 localhost")
	e := newEngine(t, b, nil)

	ok, err := e.Add(ctx, host{Addr: "192.168.0.1", Name: "test", Note: "test"})
	require.NoError(t, err)
	require.True(t, ok)

	list, err := e.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "test", list[1].Entry.Name)
	assert.Equal(t, 1, list[1].Key)

	ok, err = e.Delete(ctx, list[1])
	require.NoError(t, err)
	require.True(t, ok)

	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListSkipsNonEntries(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newFake("# header", "", "127.0.0.1 localhost", "broken", "::1 ip6-localhost"), nil)

	list, err := e.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Key)
	assert.Equal(t, 4, list[1].Key)

	entries, err := e.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, host{Addr: "::1", Name: "ip6-localhost"}, entries[4])

	raw, err := e.ListRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, raw.Len())
}

func TestAddDuplicateRejected(t *testing.T) {
	ctx := context.Background()
	b := newFake("127.0.0.1 localhost")
	e := newEngine(t, b, nil)

	h := host{Addr: "10.0.0.1", Name: "db"}
	ok, err := e.Add(ctx, h)
	require.NoError(t, err)
	require.True(t, ok)
	before := append([]string{}, b.lines...)

	_, err = e.Add(ctx, host{Addr: "10.0.0.1", Name: "db", Note: "other"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrEntryExists))
	assert.EqualError(t, err, "testHosts: Entry already exists")
	assert.Equal(t, before, b.lines)
}

func TestAddAtInsertsBeforeKey(t *testing.T) {
	ctx := context.Background()
	b := newFake("127.0.0.1 localhost", "10.0.0.2 two")
	e := newEngine(t, b, nil)

	ok, err := e.AddAt(ctx, host{Addr: "10.0.0.1", Name: "one"}, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"127.0.0.1 localhost", "10.0.0.1 one", "10.0.0.2 two"}, b.lines)

	ok, err = e.AddAt(ctx, host{Addr: "10.0.0.9", Name: "last"}, 99)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.9 last", b.lines[3])

	_, err = e.AddAt(ctx, host{Addr: "10.0.0.8", Name: "neg"}, -1)
	assert.True(t, errors.Is(err, engine.ErrInvalidKey))
}

func TestDeleteTwice(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newFake("127.0.0.1 localhost", "10.0.0.1 db"), nil)

	list, err := e.List(ctx)
	require.NoError(t, err)
	target := list[1]

	ok, err := e.Delete(ctx, target)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Delete(ctx, target)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaleReadDetected(t *testing.T) {
	ctx := context.Background()
	b := newFake("127.0.0.1 localhost", "10.0.0.1 db")
	e := newEngine(t, b, nil)

	list, err := e.List(ctx)
	require.NoError(t, err)
	target := list[1]

	// Someone else inserts a line above the entry.
	b.lines = []string{"127.0.0.1 localhost", "10.0.0.5 cache", "10.0.0.1 db"}
	stores := b.stores

	_, err = e.Delete(ctx, target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrChanged))
	assert.EqualError(t, err, "testHosts: might have been changed since the entry was read")
	assert.Equal(t, stores, b.stores)

	_, err = e.Replace(ctx, target, host{Addr: "10.0.0.1", Name: "db", Note: "primary"})
	assert.True(t, errors.Is(err, engine.ErrChanged))
	assert.Equal(t, []string{"127.0.0.1 localhost", "10.0.0.5 cache", "10.0.0.1 db"}, b.lines)
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	b := newFake("127.0.0.1 localhost", "10.0.0.1 db", "10.0.0.2 web")
	e := newEngine(t, b, nil)

	list, err := e.List(ctx)
	require.NoError(t, err)

	ok, err := e.Replace(ctx, list[1], host{Addr: "10.0.0.1", Name: "db", Note: "primary"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10.0.0.1 db primary", b.lines[1])

	_, err = e.Replace(ctx, list[1], host{Addr: "10.0.0.2", Name: "web"})
	assert.True(t, errors.Is(err, engine.ErrEntryExists))

	gone := engine.DistinctEntry[host, int]{Entry: host{Addr: "10.9.9.9", Name: "gone"}, Key: 1}
	_, err = e.Replace(ctx, gone, host{Addr: "10.9.9.9", Name: "gone"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrNotExist))
	assert.EqualError(t, err, "testHosts: Current entry does not exist")
}

func TestValidationPrecedesBackendAccess(t *testing.T) {
	ctx := context.Background()
	b := newFake("127.0.0.1 localhost")
	backup := &fakeBackup{b: b}
	e := newEngine(t, b, backup)

	_, err := e.Add(ctx, host{Addr: "10.0.0.1", Name: "bad name"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid hosts entry")

	list := []engine.DistinctEntry[host, int]{{Entry: host{Addr: "127.0.0.1", Name: "localhost"}, Key: 0}}
	_, err = e.Replace(ctx, list[0], host{Addr: "", Name: "localhost"})
	require.Error(t, err)

	assert.Zero(t, b.loads)
	assert.Zero(t, b.stores)
	assert.Zero(t, backup.creates)
}

func TestNotOnline(t *testing.T) {
	ctx := context.Background()
	b := newFake("127.0.0.1 localhost")
	b.status = engine.Failed(errors.New("no hosts file /etc/hosts found or write access denied"))
	e := newEngine(t, b, nil)

	_, err := e.List(ctx)
	require.Error(t, err)
	assert.EqualError(t, err, "testHosts is not online: error")
	assert.True(t, errors.Is(err, engine.ErrNotOnline))

	_, err = e.Add(ctx, host{Addr: "10.0.0.1", Name: "db"})
	assert.True(t, errors.Is(err, engine.ErrNotOnline))

	// Raw access bypasses the status gate.
	raw, err := e.ListRaw(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, raw.Len())
	assert.Zero(t, b.stores)
}

func TestBackupRollbackOnUnverifiedWrite(t *testing.T) {
	ctx := context.Background()
	b := newFake("127.0.0.1 localhost", "10.0.0.1 db")
	backup := &fakeBackup{b: b}
	e := newEngine(t, b, backup)
	before := append([]string{}, b.lines...)

	b.dropWrites = true
	ok, err := e.Add(ctx, host{Addr: "10.0.0.2", Name: "web"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, b.lines)
	assert.Equal(t, 1, backup.creates)
	assert.Equal(t, 1, backup.restores)

	list, err := e.List(ctx)
	require.NoError(t, err)
	ok, err = e.Delete(ctx, list[1])
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, b.lines)
	assert.Equal(t, 2, backup.restores)
}

func TestUnverifiedWriteWithoutBackup(t *testing.T) {
	ctx := context.Background()
	b := newFake("127.0.0.1 localhost")
	b.dropWrites = true
	e := newEngine(t, b, nil)

	ok, err := e.Add(ctx, host{Addr: "10.0.0.2", Name: "web"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackupFailures(t *testing.T) {
	ctx := context.Background()

	b := newFake("127.0.0.1 localhost")
	backup := &fakeBackup{b: b, failOn: "create"}
	e := newEngine(t, b, backup)
	_, err := e.Add(ctx, host{Addr: "10.0.0.2", Name: "web"})
	require.ErrorContains(t, err, "disk full")
	assert.Zero(t, b.stores)

	b = newFake("127.0.0.1 localhost")
	b.dropWrites = true
	backup = &fakeBackup{b: b, failOn: "restore"}
	e = newEngine(t, b, backup)
	_, err = e.Add(ctx, host{Addr: "10.0.0.2", Name: "web"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrRestoreFailed))
}

func TestStoreFailureRestores(t *testing.T) {
	ctx := context.Background()
	b := newFake("127.0.0.1 localhost")
	b.storeErr = errors.New("write /etc/hosts: no space left on device")
	backup := &fakeBackup{b: b}
	e := newEngine(t, b, backup)

	ok, err := e.Add(ctx, host{Addr: "10.0.0.2", Name: "web"})
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "no space left on device")
	assert.Equal(t, []string{"127.0.0.1 localhost"}, b.lines)
	assert.Equal(t, 1, backup.restores)
}

func newHostsFile(t *testing.T, lines ...string) (*engine.Engine[format.HostEntry, int], *storage.Memory) {
	t.Helper()
	m := storage.NewMemory(lines...)
	e, err := engine.New(engine.Config[format.HostEntry, int]{
		Name:    "LinuxHostsFile",
		Format:  format.Hosts,
		Backend: m,
		Keys:    engine.LineKeys{},
		Backup:  &storage.MemoryBackup{M: m},
	})
	require.NoError(t, err)
	return e, m
}

func TestAddKeepsCommentsThatDoNotRoundTrip(t *testing.T) {
	ctx := context.Background()
	e, m := newHostsFile(t, "127.0.0.1\tlocalhost")

	for _, h := range []format.HostEntry{
		{Address: "10.0.0.1", Hostname: "db", Comment: "see #42"},
		{Address: "10.0.0.2", Hostname: "web", Comment: "primary "},
	} {
		ok, err := e.Add(ctx, h)
		require.NoError(t, err)
		assert.True(t, ok, h.Comment)
	}
	assert.Equal(t, []string{
		"127.0.0.1\tlocalhost",
		"10.0.0.1\tdb # see #42",
		"10.0.0.2\tweb # primary ",
	}, m.Lines())

	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAddServiceWithHashInComment(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory("ssh    22/tcp")
	e, err := engine.New(engine.Config[format.ServiceEntry, int]{
		Name:    "LinuxServicesFile",
		Format:  format.Services,
		Backend: m,
		Keys:    engine.LineKeys{},
		Backup:  &storage.MemoryBackup{M: m},
	})
	require.NoError(t, err)

	ok, err := e.Add(ctx, format.ServiceEntry{Service: "legacy", Port: 9999, Protocol: "tcp", Comment: "old # keep "})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"ssh    22/tcp", "legacy    9999/tcp # old # keep "}, m.Lines())
}

func TestReplaceWithCommentChange(t *testing.T) {
	ctx := context.Background()
	e, m := newHostsFile(t, "127.0.0.1\tlocalhost", "10.0.0.1\tdb")

	list, err := e.List(ctx)
	require.NoError(t, err)
	ok, err := e.Replace(ctx, list[1], format.HostEntry{Address: "10.0.0.1", Hostname: "db", Comment: "see #42"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"127.0.0.1\tlocalhost", "10.0.0.1\tdb # see #42"}, m.Lines())
}

func TestReplaceOneOfDuplicateRecords(t *testing.T) {
	ctx := context.Background()
	e, m := newHostsFile(t, "127.0.0.1\tlocalhost", "10.0.0.1\tdb", "10.0.0.1\tdb # dup")

	list, err := e.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, 2, list[2].Key)

	ok, err := e.Replace(ctx, list[2], format.HostEntry{Address: "10.0.0.1", Hostname: "db", Comment: "new"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"127.0.0.1\tlocalhost", "10.0.0.1\tdb", "10.0.0.1\tdb # new"}, m.Lines())

	// Renaming onto an existing record is still refused.
	_, err = e.Replace(ctx, list[0], format.HostEntry{Address: "10.0.0.1", Hostname: "db"})
	assert.ErrorIs(t, err, engine.ErrEntryExists)
	assert.EqualError(t, err, "LinuxHostsFile: Entry already exists")
	assert.Equal(t, "127.0.0.1\tlocalhost", m.Lines()[0])
}
