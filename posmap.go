package pathoram

// PositionMap tracks key-to-leaf assignments. It is trusted client state:
// its own confidentiality is outside the ORAM guarantee (spec.md §4.4). The
// position map is unbounded in the number of distinct keys it can hold; a
// recursive ORAM that stores the position map itself obliviously is the
// standard extension this package does not implement (spec.md §9).
type PositionMap interface {
	// Lookup returns the leaf assigned to key, or (0, false) if key has
	// never been accessed.
	Lookup(key int64) (leaf int, exists bool)

	// Remap unconditionally assigns key to leaf, overwriting any prior
	// assignment.
	Remap(key int64, leaf int)

	// Size returns the number of keys with an assigned leaf.
	Size() int
}

// InMemoryPositionMap implements PositionMap with a plain Go map.
type InMemoryPositionMap struct {
	m map[int64]int
}

// NewInMemoryPositionMap returns an empty position map.
func NewInMemoryPositionMap() *InMemoryPositionMap {
	return &InMemoryPositionMap{m: make(map[int64]int)}
}

func (p *InMemoryPositionMap) Lookup(key int64) (int, bool) {
	leaf, ok := p.m[key]
	return leaf, ok
}

func (p *InMemoryPositionMap) Remap(key int64, leaf int) {
	p.m[key] = leaf
}

func (p *InMemoryPositionMap) Size() int {
	return len(p.m)
}
