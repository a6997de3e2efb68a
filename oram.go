package pathoram

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// reservedKey is the sentinel value internal to dummy blocks (block.go). The
// public API must never let a caller store or fetch a block under this key,
// since doing so would make a dummy indistinguishable from a real, deliberate
// collision rather than an artifact of padding.
const reservedKey int64 = -1

// Client is an oblivious key/value store backed by an implicit binary tree
// held in an untrusted Store. Every Get and Put touches the same number of
// buckets regardless of the key, and two accesses to the same key produce
// unrelated sequences of bucket reads and writes (spec.md §1, §8).
//
// A Client is not safe for concurrent use: the stash and position map it
// holds are mutated by every access, and Path ORAM's obliviousness guarantee
// assumes accesses are serialized.
type Client struct {
	cfg Config
	geo treeGeometry

	adapter *bucketAdapter
	posMap  PositionMap
	st      *stash

	log *zap.Logger
}

// New constructs a Client from explicit collaborators: an untrusted blob
// store, a trusted position map, and a bucket encryptor. Callers that need a
// custom Store (e.g. a networked backend) or a pre-populated PositionMap
// should use this constructor; NewInMemory is a convenience wrapper around
// it for the common case.
//
// New does not initialize store's contents: callers starting from an empty
// store must call Client.Init first.
func New(cfg Config, store Store, posMap PositionMap, enc Encryptor) (*Client, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	height, _, _ := cfg.TreeParams()

	return &Client{
		cfg:     cfg,
		geo:     newTreeGeometry(height),
		adapter: newBucketAdapter(store, enc, cfg.BucketSize, cfg.MaxValueSize),
		posMap:  posMap,
		st:      newStash(),
		log:     nopLogger,
	}, nil
}

// NewInMemory constructs a Client over an in-memory store, in-memory
// position map, and a freshly generated AES-256-CTR key, then initializes
// the store's bucket tree. This is the simplest way to get a working Client
// for tests or short-lived processes (spec.md §6 new()).
func NewInMemory(cfg Config) (*Client, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	enc, err := NewAESCTREncryptor(key)
	if err != nil {
		return nil, err
	}

	c, err := New(cfg, NewInMemoryStore(), NewInMemoryPositionMap(), enc)
	if err != nil {
		return nil, err
	}

	if err := c.Init(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

// SetLogger replaces the client's structured logger. The zero value leaves
// logging disabled (a no-op logger), matching zoekt's nil-safe logger
// pattern: callers that don't care about observability never need to think
// about it.
func (c *Client) SetLogger(log *zap.Logger) {
	if log == nil {
		log = nopLogger
	}
	c.log = log
}

// Init writes a fresh all-dummy bucket to every position in the tree. It
// must be called once before the first Get or Put against a store that
// hasn't already been shaped by a prior Client (spec.md §3 Lifecycle).
func (c *Client) Init(ctx context.Context) error {
	_, _, totalBuckets := c.cfg.TreeParams()
	return c.adapter.initTree(ctx, totalBuckets)
}

// Height returns the tree's height L.
func (c *Client) Height() int { return c.geo.height }

// NumLeaves returns the number of leaves, 2^L.
func (c *Client) NumLeaves() int { return c.geo.numLeaves }

// Size returns the number of distinct keys ever accessed. A Get of a key
// that was never written still assigns it a leaf, so it is counted too.
func (c *Client) Size() int { return c.posMap.Size() }

// StashHighWaterMark returns the largest stash size observed since
// construction, for operational monitoring.
func (c *Client) StashHighWaterMark() int { return c.st.HighWaterMark() }

// Get performs an oblivious read of key. A key that has never been written
// returns a zero-filled slice of length cfg.MaxValueSize, matching the
// behavior of an ORAM that cannot distinguish "never written" from "written
// as all zeros" without extra bookkeeping (spec.md §4.6, §8).
func (c *Client) Get(ctx context.Context, key int64) ([]byte, error) {
	if key == reservedKey {
		return nil, ErrInvalidKey
	}
	return c.access(ctx, key, nil, false)
}

// Put performs an oblivious write of value to key, returning the value now
// associated with key — i.e. value itself, zero-padded to cfg.MaxValueSize
// (spec.md §4.6 step 3, §6). len(value) must not exceed cfg.MaxValueSize.
func (c *Client) Put(ctx context.Context, key int64, value []byte) ([]byte, error) {
	if key == reservedKey {
		return nil, ErrInvalidKey
	}
	if len(value) > c.cfg.MaxValueSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrInvalidDataSize, len(value), c.cfg.MaxValueSize)
	}
	return c.access(ctx, key, value, true)
}

// access implements spec.md §4.6's core algorithm:
//  1. look up key's current leaf, assigning a fresh random one if key is new
//  2. remap key to a freshly sampled leaf *before* touching the tree
//  3. read every bucket on the old path into the stash, leaving dummies
//  4. service the request against the stash (read current value / overwrite)
//  5. evict the stash back along the old path
//
// Remapping before reading is what makes the path of the next access to the
// same key an independent uniform draw, unrelated to the path just read;
// reading into the stash and
// replacing every real block with a dummy, regardless of whether it's the
// block the caller asked for, is what makes the bucket read pattern
// independent of which key was requested.
func (c *Client) access(ctx context.Context, key int64, newValue []byte, isWrite bool) ([]byte, error) {
	accessID := newAccessID()
	log := c.log.With(zap.String("access_id", accessID), zap.Bool("write", isWrite))

	oldLeaf, exists := c.posMap.Lookup(key)
	if !exists {
		oldLeaf = randomInt(c.geo.numLeaves)
	} else if !c.geo.validLeaf(oldLeaf) {
		return nil, fmt.Errorf("pathoram: access %s: leaf %d: %w", accessID, oldLeaf, ErrInvalidLeaf)
	}

	newLeaf := randomInt(c.geo.numLeaves)
	c.posMap.Remap(key, newLeaf)

	path := c.geo.pathOf(oldLeaf)
	log.Debug("reading path into stash", zap.Int("old_leaf", oldLeaf), zap.Int("new_leaf", newLeaf), zap.Int("stash_size", c.st.size()), zap.Int("path_len", len(path)))
	if err := readPathIntoStash(ctx, c.adapter, c.posMap, path, c.st); err != nil {
		log.Error("read-path failed", zap.Error(err))
		return nil, fmt.Errorf("pathoram: access %s: read-path: %w", accessID, err)
	}

	result, err := c.service(key, newLeaf, newValue, isWrite)
	if err != nil {
		return nil, fmt.Errorf("pathoram: access %s: %w", accessID, err)
	}

	if err := evictWithStrategy(ctx, c.cfg, c.adapter, c.geo, c.posMap, path, oldLeaf, c.st); err != nil {
		if err == ErrStashOverflow {
			log.Warn("stash exceeded configured limit", zap.Int("stash_size", c.st.size()), zap.Int("limit", c.cfg.StashLimit))
			return result, fmt.Errorf("pathoram: access %s: %w", accessID, err)
		}
		log.Error("write-path failed", zap.Error(err))
		return nil, fmt.Errorf("pathoram: access %s: write-path: %w", accessID, err)
	}

	return result, nil
}

// service looks up key in the stash (using the constant-time lookup when
// configured) and applies the read or write, recording the block's new leaf
// assignment so the write-path can place it correctly. For a write, the
// returned value is the one just written, not the one it replaced (spec.md
// §4.6 step 3, §6). For a read of a key that has never been written, nothing
// is inserted into the stash: there is no real block to place on a path, and
// fabricating one would permanently materialize a placeholder for a key
// nobody ever wrote (spec.md §4.6 step 1).
func (c *Client) service(key int64, newLeaf int, newValue []byte, isWrite bool) ([]byte, error) {
	var (
		entry stashEntry
		found bool
	)

	if c.cfg.ConstantTime {
		entry, found = findInStashConstantTime(c.st.snapshot(), key, c.cfg.MaxValueSize)
	} else {
		entry, found = c.st.lookup(key)
	}

	if !found {
		if !isWrite {
			return make([]byte, c.cfg.MaxValueSize), nil
		}

		value := make([]byte, c.cfg.MaxValueSize)
		copy(value, newValue)
		c.st.insert(stashEntry{key: key, leaf: newLeaf, value: value})

		result := make([]byte, len(value))
		copy(result, value)
		return result, nil
	}

	updated := entry
	updated.leaf = newLeaf
	if isWrite {
		value := make([]byte, c.cfg.MaxValueSize)
		copy(value, newValue)
		updated.value = value
	}
	c.st.insert(updated)

	result := make([]byte, len(updated.value))
	copy(result, updated.value)
	return result, nil
}
