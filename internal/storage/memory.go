package storage

import (
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/hnrobert/etcapi/internal/engine"
)

// Memory is a positional line store held in a btree. Every Store renumbers
// lines from zero, the way a file rewrite does.
type Memory struct {
	mu     sync.RWMutex
	tree   *btree.BTree
	status engine.ServiceStatus
}

type lineItem struct {
	idx  int
	line string
}

func (i *lineItem) Less(than btree.Item) bool {
	return i.idx < than.(*lineItem).idx
}

func NewMemory(lines ...string) *Memory {
	m := &Memory{tree: btree.New(32), status: engine.Online()}
	m.fill(lines)
	return m
}

// SetStatus overrides the reported status, e.g. to simulate an offline store.
func (m *Memory) SetStatus(s engine.ServiceStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = s
}

func (m *Memory) Status(context.Context) engine.ServiceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Memory) Load(context.Context) (*engine.RawMap[int], error) {
	return engine.LinesToRawMap(m.Lines()), nil
}

func (m *Memory) Store(_ context.Context, data *engine.RawMap[int]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fill(data.Lines())
	return nil
}

// Lines returns a copy of the stored lines.
func (m *Memory) Lines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, m.tree.Len())
	m.tree.Ascend(func(i btree.Item) bool {
		out = append(out, i.(*lineItem).line)
		return true
	})
	return out
}

func (m *Memory) fill(lines []string) {
	m.tree.Clear(false)
	for i, l := range lines {
		m.tree.ReplaceOrInsert(&lineItem{idx: i, line: l})
	}
}
