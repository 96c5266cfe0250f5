package engine

// RawMap is an insertion-ordered mapping from storage key to raw line.
// Iteration order is the canonical on-disk order.
type RawMap[K comparable] struct {
	keys []K
	vals map[K]string
}

func NewRawMap[K comparable]() *RawMap[K] {
	return &RawMap[K]{vals: map[K]string{}}
}

// LinesToRawMap keys lines by their zero-based position.
func LinesToRawMap(lines []string) *RawMap[int] {
	m := &RawMap[int]{keys: make([]int, 0, len(lines)), vals: make(map[int]string, len(lines))}
	for i, l := range lines {
		m.keys = append(m.keys, i)
		m.vals[i] = l
	}
	return m
}

func (m *RawMap[K]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *RawMap[K]) Get(k K) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.vals[k]
	return v, ok
}

// Set stores v at k. A new key is appended; an existing key keeps its position.
func (m *RawMap[K]) Set(k K, v string) {
	if m.vals == nil {
		m.vals = map[K]string{}
	}
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

func (m *RawMap[K]) Delete(k K) bool {
	if m == nil {
		return false
	}
	if _, ok := m.vals[k]; !ok {
		return false
	}
	delete(m.vals, k)
	for i, kk := range m.keys {
		if kk == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

func (m *RawMap[K]) Keys() []K {
	if m == nil {
		return nil
	}
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

// Lines returns the values in order.
func (m *RawMap[K]) Lines() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.vals[k])
	}
	return out
}

// Range calls fn for every pair in order until fn returns false.
func (m *RawMap[K]) Range(fn func(k K, line string) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

func (m *RawMap[K]) Clone() *RawMap[K] {
	out := &RawMap[K]{keys: m.Keys(), vals: make(map[K]string, m.Len())}
	if m != nil {
		for k, v := range m.vals {
			out.vals[k] = v
		}
	}
	return out
}
