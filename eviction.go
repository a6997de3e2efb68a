package pathoram

import "context"

// evictWithStrategy dispatches the write-path to the configured eviction
// strategy. path is the bucket sequence for leaf (path[0] is leaf's own
// bucket, path[len(path)-1] is the root), as produced by treeGeometry.pathOf.
// leaf is the leaf the whole path was computed from; canPlace checks are
// always made against this single value, never a value re-derived per level.
func evictWithStrategy(ctx context.Context, cfg Config, adapter *bucketAdapter, geo treeGeometry, posMap PositionMap, path []int, leaf int, st *stash) error {
	if cfg.ConstantTime {
		return evictConstantTime(ctx, adapter, geo, path, leaf, st, cfg.StashLimit)
	}

	switch cfg.EvictionStrategy {
	case EvictGreedyByDepth:
		return evictGreedyByDepth(ctx, adapter, geo, path, leaf, st, cfg.StashLimit)
	case EvictDeterministicTwoPath:
		if err := evictGreedyByDepth(ctx, adapter, geo, path, leaf, st, cfg.StashLimit); err != nil && err != ErrStashOverflow {
			return err
		}
		secondLeaf := randomInt(geo.numLeaves)
		secondPath := geo.pathOf(secondLeaf)
		if err := readPathIntoStash(ctx, adapter, posMap, secondPath, st); err != nil {
			return err
		}
		return evictGreedyByDepth(ctx, adapter, geo, secondPath, secondLeaf, st, cfg.StashLimit)
	default: // EvictLevelByLevel
		return evictLevelByLevel(ctx, adapter, geo, path, leaf, st, cfg.StashLimit)
	}
}

// readPathIntoStash loads every block from the buckets on path into the
// stash, leaving dummy buckets behind; used by EvictDeterministicTwoPath to
// pull a second, independently chosen path's contents in before evicting
// along it. The regular read-path (oram.go) performs the same operation for
// the primary path as part of every access. A block's stash entry always
// carries its current position-map leaf, not the leaf it happened to be
// found under, since eviction placement is judged against the position map,
// not against where a block currently sits in the tree.
func readPathIntoStash(ctx context.Context, adapter *bucketAdapter, posMap PositionMap, path []int, st *stash) error {
	for _, idx := range path {
		bucket, err := adapter.readBucket(ctx, idx)
		if err != nil {
			return err
		}
		for _, b := range bucket.Blocks {
			if !b.Real {
				continue
			}
			if _, exists := st.lookup(b.Key); exists {
				continue
			}
			leaf, ok := posMap.Lookup(b.Key)
			if !ok {
				leaf = int(b.BlockID)
			}
			st.insert(stashEntry{key: b.Key, leaf: leaf, value: b.Value})
		}
		if err := adapter.writeBucket(ctx, idx, newDummyBucket(len(bucket.Blocks))); err != nil {
			return err
		}
	}
	return nil
}

// evictLevelByLevel walks path from leaf to root; for each bucket it fills
// every empty slot with the first stash entry it finds that is eligible for
// that bucket, per spec.md §4.6's level-by-level eviction algorithm.
func evictLevelByLevel(ctx context.Context, adapter *bucketAdapter, geo treeGeometry, path []int, leaf int, st *stash, stashLimit int) error {
	for i, bucketIdx := range path {
		level := geo.height - i

		bucket, err := adapter.readBucket(ctx, bucketIdx)
		if err != nil {
			return err
		}

		for slot := range bucket.Blocks {
			if bucket.Blocks[slot].Real {
				continue
			}

			placedKey, ok := firstPlaceable(st, geo, leaf, level)
			if !ok {
				continue
			}
			entry, _ := st.lookup(placedKey)
			bucket.Blocks[slot] = Block{Real: true, BlockID: entry.key, Key: entry.key, Value: entry.value}
			st.remove(entry.key)
		}

		if err := adapter.writeBucket(ctx, bucketIdx, bucket); err != nil {
			return err
		}
	}

	if st.size() > stashLimit {
		return ErrStashOverflow
	}
	return nil
}

// firstPlaceable returns the key of some stash entry that can legally sit in
// the bucket at level on the path rooted at leaf. Iteration order over the
// stash is unspecified (map order); any eligible entry is an equally valid
// choice.
func firstPlaceable(st *stash, geo treeGeometry, leaf, level int) (int64, bool) {
	var found int64
	ok := false
	st.iter(func(e stashEntry) {
		if ok {
			return
		}
		if geo.canPlace(e.leaf, leaf, level) {
			found = e.key
			ok = true
		}
	})
	return found, ok
}

// evictGreedyByDepth places each stash block at the deepest level of path it
// is eligible for, processing the stash once rather than bucket-by-bucket.
// This tends to leave more room near the root for blocks that can only sit
// there. Every bucket on path is read once up front and written back once at
// the end (spec.md §9 notes this strategy as an enrichment, not a
// replacement for the default).
func evictGreedyByDepth(ctx context.Context, adapter *bucketAdapter, geo treeGeometry, path []int, leaf int, st *stash, stashLimit int) error {
	buckets := make([]Bucket, len(path))
	for i, bucketIdx := range path {
		b, err := adapter.readBucket(ctx, bucketIdx)
		if err != nil {
			return err
		}
		buckets[i] = b
	}

	for _, e := range st.snapshot() {
		placed := false

		for i := range path {
			level := geo.height - i
			if !geo.canPlace(e.leaf, leaf, level) {
				continue
			}
			for slot := range buckets[i].Blocks {
				if buckets[i].Blocks[slot].Real {
					continue
				}
				buckets[i].Blocks[slot] = Block{Real: true, BlockID: e.key, Key: e.key, Value: e.value}
				placed = true
				break
			}
			if placed {
				break
			}
		}

		if placed {
			st.remove(e.key)
		}
	}

	for i, bucketIdx := range path {
		if err := adapter.writeBucket(ctx, bucketIdx, buckets[i]); err != nil {
			return err
		}
	}

	if st.size() > stashLimit {
		return ErrStashOverflow
	}
	return nil
}
