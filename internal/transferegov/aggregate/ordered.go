package aggregate

// orderedMap keeps values in first-insertion order.
type orderedMap[K comparable, V any] struct {
	index  map[K]int
	values []V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{index: make(map[K]int)}
}

// upsert returns the value stored under key, creating it first if absent.
func (m *orderedMap[K, V]) upsert(key K, create func() V) V {
	if i, ok := m.index[key]; ok {
		return m.values[i]
	}
	v := create()
	m.index[key] = len(m.values)
	m.values = append(m.values, v)
	return v
}

func (m *orderedMap[K, V]) len() int { return len(m.values) }

// list returns a copy of the values in insertion order.
func (m *orderedMap[K, V]) list() []V {
	out := make([]V, len(m.values))
	copy(out, m.values)
	return out
}
