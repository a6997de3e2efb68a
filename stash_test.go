package pathoram

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStashInsertLookupRemove(t *testing.T) {
	s := newStash()

	_, ok := s.lookup(1)
	require.False(t, ok)

	s.insert(stashEntry{key: 1, leaf: 2, value: []byte("a")})
	e, ok := s.lookup(1)
	require.True(t, ok)
	require.Equal(t, 2, e.leaf)

	s.remove(1)
	_, ok = s.lookup(1)
	require.False(t, ok)
}

func TestStashInsertOverwritesSameKey(t *testing.T) {
	s := newStash()
	s.insert(stashEntry{key: 1, leaf: 2, value: []byte("a")})
	s.insert(stashEntry{key: 1, leaf: 9, value: []byte("b")})

	require.Equal(t, 1, s.size())
	e, _ := s.lookup(1)
	require.Equal(t, 9, e.leaf)
	require.Equal(t, []byte("b"), e.value)
}

func TestStashHighWaterMarkTracksPeak(t *testing.T) {
	s := newStash()
	s.insert(stashEntry{key: 1, leaf: 0})
	s.insert(stashEntry{key: 2, leaf: 0})
	s.insert(stashEntry{key: 3, leaf: 0})
	require.Equal(t, 3, s.HighWaterMark())

	s.remove(1)
	s.remove(2)
	require.Equal(t, 1, s.size())
	require.Equal(t, 3, s.HighWaterMark(), "high water mark must not shrink")
}

func TestStashSnapshotAndReplaceAll(t *testing.T) {
	s := newStash()
	s.insert(stashEntry{key: 1, leaf: 0})
	s.insert(stashEntry{key: 2, leaf: 0})

	snap := s.snapshot()
	require.Len(t, snap, 2)

	s.replaceAll([]stashEntry{{key: 3, leaf: 1}})
	require.Equal(t, 1, s.size())
	_, ok := s.lookup(1)
	require.False(t, ok)
	_, ok = s.lookup(3)
	require.True(t, ok)
}

func TestStashIterVisitsEveryEntry(t *testing.T) {
	s := newStash()
	s.insert(stashEntry{key: 1, leaf: 0})
	s.insert(stashEntry{key: 2, leaf: 0})

	seen := map[int64]bool{}
	s.iter(func(e stashEntry) { seen[e.key] = true })

	require.Len(t, seen, 2)
	require.True(t, seen[1])
	require.True(t, seen[2])
}
