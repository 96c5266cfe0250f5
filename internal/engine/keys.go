package engine

// KeyPolicy decides where Add places a new line.
type KeyPolicy[K comparable] interface {
	// Next returns a key that collides with nothing in data and sorts after
	// every existing key.
	Next(data *RawMap[K]) K
	// Insert places line at the caller-chosen key and returns the resulting map.
	Insert(data *RawMap[K], at K, line string) (*RawMap[K], error)
}

// LineKeys is the policy of positional stores where the key is a zero-based
// line index. Inserting before the end renumbers every following line.
type LineKeys struct{}

func (LineKeys) Next(data *RawMap[int]) int {
	return maxKey(data) + 1
}

func (LineKeys) Insert(data *RawMap[int], at int, line string) (*RawMap[int], error) {
	if at < 0 {
		return nil, ErrInvalidKey
	}
	lines := data.Lines()
	if at >= len(lines) {
		lines = append(lines, line)
	} else {
		lines = append(lines[:at], append([]string{line}, lines[at:]...)...)
	}
	return LinesToRawMap(lines), nil
}

type Integer interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

// MapKeys is the policy of keyed stores. Keys are opaque: an explicit key is
// associated with the new line as-is and no other key moves.
type MapKeys[K Integer] struct{}

func (MapKeys[K]) Next(data *RawMap[K]) K {
	if data.Len() == 0 {
		return 0
	}
	return maxKey(data) + 1
}

func (MapKeys[K]) Insert(data *RawMap[K], at K, line string) (*RawMap[K], error) {
	if _, ok := data.Get(at); ok {
		return nil, ErrKeyInUse
	}
	out := data.Clone()
	out.Set(at, line)
	return out, nil
}

func maxKey[K Integer](data *RawMap[K]) K {
	var max K
	first := true
	data.Range(func(k K, _ string) bool {
		if first || k > max {
			max = k
			first = false
		}
		return true
	})
	if first {
		// Empty map: Next must return the zero key.
		var zero K
		return zero - 1
	}
	return max
}
