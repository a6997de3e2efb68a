package pathoram

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// EvictionStrategy selects how blocks are evicted from the stash into the
// tree during the write-path.
type EvictionStrategy int

const (
	// EvictLevelByLevel scans the stash for each bucket from leaf to root,
	// filling empty slots greedily. This is the strategy spec.md §4.6
	// describes and is the default.
	EvictLevelByLevel EvictionStrategy = iota

	// EvictGreedyByDepth reads every bucket on the path once, then places
	// each stash block at the deepest bucket it legally fits in. Equivalent
	// in result to EvictLevelByLevel but issues one read per bucket instead
	// of interleaving reads and stash scans.
	EvictGreedyByDepth

	// EvictDeterministicTwoPath performs a greedy-by-depth eviction along the
	// mandatory path, then reads and evicts along one additional, freshly
	// sampled path. A well-known variance-reduction technique for stash size;
	// not required by the core protocol but does not weaken any invariant,
	// since the extra path is still derived from pathOf.
	EvictDeterministicTwoPath
)

// Config holds Path ORAM configuration parameters.
type Config struct {
	// LogCapacity is L: the tree has height L, 2^L leaves, and 2^(L+1)-1
	// buckets.
	LogCapacity int

	// BucketSize is Z, the number of block slots per bucket.
	BucketSize int

	// StashLimit is a soft bound on stash size. It is never enforced by
	// dropping blocks; ErrStashOverflow is returned as a warning once it is
	// exceeded, and the caller decides how to react.
	StashLimit int

	// MaxValueSize bounds the plaintext length of a block's value. The
	// canonical bucket serialization pads every value slot to this length,
	// so changing it after buckets have been written invalidates them.
	MaxValueSize int

	// EvictionStrategy selects the write-path algorithm. Zero value is
	// EvictLevelByLevel, the spec-mandated default.
	EvictionStrategy EvictionStrategy

	// ConstantTime enables a stash lookup built on crypto/subtle comparisons
	// with no early exit, and an eviction pass that tests every stash entry
	// against every path slot without stopping at the first placement, trading
	// throughput for resistance to CPU-level access-pattern leakage (e.g.
	// in a TEE/SGX deployment where the server can observe the enclave's own
	// memory accesses).
	ConstantTime bool
}

// Validate checks the configuration for errors and fills in defaults.
// Returns a corrected copy; the receiver is left unmodified.
func (c Config) Validate() (Config, error) {
	if c.LogCapacity < 1 {
		return c, fmt.Errorf("%w: LogCapacity must be >= 1, got %d", ErrInvalidConfig, c.LogCapacity)
	}
	if c.BucketSize < 2 {
		return c, fmt.Errorf("%w: BucketSize (Z) must be >= 2, got %d", ErrInvalidConfig, c.BucketSize)
	}
	if c.StashLimit < 1 {
		c.StashLimit = 4 * c.LogCapacity
		if c.StashLimit < 1 {
			c.StashLimit = 1
		}
	}
	if c.MaxValueSize <= 0 {
		c.MaxValueSize = 256
	}
	return c, nil
}

// TreeParams returns the tree dimensions implied by the configuration:
// height (= LogCapacity), number of leaves (2^L), and total buckets
// (2^(L+1)-1).
func (c Config) TreeParams() (height, numLeaves, totalBuckets int) {
	height = c.LogCapacity
	numLeaves = 1 << height
	totalBuckets = (1 << (height + 1)) - 1
	return
}

// wireConfig is the on-disk shape read by LoadConfigFile. Kept distinct from
// Config so the JSON field names can stay snake_case without tagging every
// field of the public struct.
type wireConfig struct {
	LogCapacity      int    `json:"log_capacity"`
	BucketSize       int    `json:"bucket_size"`
	StashLimit       int    `json:"stash_limit,omitempty"`
	MaxValueSize     int    `json:"max_value_size,omitempty"`
	EvictionStrategy string `json:"eviction_strategy,omitempty"`
	ConstantTime     bool   `json:"constant_time,omitempty"`
}

// LoadConfigFile reads a JSON-with-comments config file (see
// github.com/tailscale/hujson) and returns the validated Config. Comments and
// trailing commas are tolerated, matching the format an operator is expected
// to hand-edit.
func LoadConfigFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("pathoram: reading config file: %w", err)
	}

	std, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, fmt.Errorf("pathoram: parsing config file %s: %w", path, err)
	}

	var wc wireConfig
	if err := json.Unmarshal(std, &wc); err != nil {
		return Config{}, fmt.Errorf("pathoram: decoding config file %s: %w", path, err)
	}

	cfg := Config{
		LogCapacity:  wc.LogCapacity,
		BucketSize:   wc.BucketSize,
		StashLimit:   wc.StashLimit,
		MaxValueSize: wc.MaxValueSize,
		ConstantTime: wc.ConstantTime,
	}
	switch wc.EvictionStrategy {
	case "", "level_by_level":
		cfg.EvictionStrategy = EvictLevelByLevel
	case "greedy_by_depth":
		cfg.EvictionStrategy = EvictGreedyByDepth
	case "deterministic_two_path":
		cfg.EvictionStrategy = EvictDeterministicTwoPath
	default:
		return Config{}, fmt.Errorf("%w: unknown eviction_strategy %q", ErrInvalidConfig, wc.EvictionStrategy)
	}

	return cfg.Validate()
}
