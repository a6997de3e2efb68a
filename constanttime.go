package pathoram

import (
	"context"
	"crypto/subtle"
	"encoding/binary"
)

// int64Eq is subtle.ConstantTimeEq generalized to int64 keys (the stdlib
// helper only compares int32), adapted from the teacher's constant-time
// block lookup.
func int64Eq(a, b int64) int {
	var ba, bb [8]byte
	binary.BigEndian.PutUint64(ba[:], uint64(a))
	binary.BigEndian.PutUint64(bb[:], uint64(b))
	return subtle.ConstantTimeCompare(ba[:], bb[:])
}

// findInStashConstantTime searches entries for key without an early exit, so
// the number of stash entries examined never depends on whether or where a
// match is found.
func findInStashConstantTime(entries []stashEntry, key int64, maxValueSize int) (stashEntry, bool) {
	found := 0
	result := stashEntry{value: make([]byte, maxValueSize)}

	for _, e := range entries {
		match := int64Eq(e.key, key)
		found = subtle.ConstantTimeSelect(match, 1, found)
		result.key = selectInt64(match, e.key, result.key)
		result.leaf = subtle.ConstantTimeSelect(match, e.leaf, result.leaf)

		padded := make([]byte, maxValueSize)
		copy(padded, e.value)
		subtle.ConstantTimeCopy(match, result.value, padded)
	}
	return result, found == 1
}

func selectInt64(v, a, b int64) int64 {
	if subtle.ConstantTimeSelect(v, 1, 0) == 1 {
		return a
	}
	return b
}

// evictConstantTime performs the write-path without early exits: every stash
// entry is tested against every bucket slot on the path regardless of whether
// a placement has already been made, so the number of slot checks does not
// depend on which blocks end up where. The eligibility test and the slot
// assignment itself are still ordinary if statements, not crypto/subtle
// selects. This trades throughput for resistance to a CPU-level observer
// (e.g. a co-resident process timing cache accesses in a TEE deployment).
//
// Eligibility at path index i is judged at tree level geo.height-i (path[0]
// is the leaf's own bucket, at level geo.height; path[len-1] is the root, at
// level 0) — never folded across all levels, since a block's own leaf
// determines exactly which levels of which path it may legally sit on, and
// every level but the root is discriminating.
func evictConstantTime(ctx context.Context, adapter *bucketAdapter, geo treeGeometry, path []int, leaf int, st *stash, stashLimit int) error {
	buckets := make([]Bucket, len(path))
	for i, idx := range path {
		b, err := adapter.readBucket(ctx, idx)
		if err != nil {
			return err
		}
		buckets[i] = b
	}

	entries := st.snapshot()
	remaining := make([]stashEntry, 0, len(entries))

	for _, e := range entries {
		placed := 0

		for i := range path {
			level := geo.height - i

			canPlace := 0
			if geo.canPlace(e.leaf, leaf, level) {
				canPlace = 1
			}

			for slot := range buckets[i].Blocks {
				isEmpty := 0
				if !buckets[i].Blocks[slot].Real {
					isEmpty = 1
				}
				shouldPlace := canPlace & isEmpty & (1 ^ placed)
				if shouldPlace == 1 {
					buckets[i].Blocks[slot] = Block{Real: true, BlockID: e.key, Key: e.key, Value: e.value}
					placed = 1
				}
			}
		}

		if placed == 0 {
			remaining = append(remaining, e)
		}
	}

	st.replaceAll(remaining)

	for i, idx := range path {
		if err := adapter.writeBucket(ctx, idx, buckets[i]); err != nil {
			return err
		}
	}

	if st.size() > stashLimit {
		return ErrStashOverflow
	}
	return nil
}
