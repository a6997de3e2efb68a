package pathoram

import (
	"context"
	"fmt"
)

// bucketAdapter is the blob store adapter component of spec.md §4.3: a thin,
// stateless (besides its Store connection) bridge between Bucket values and
// the opaque blobs a Store holds. It never caches a bucket in memory between
// calls, since caching would undermine the invariant that every access
// re-reads every bucket on a path from the authoritative external store.
type bucketAdapter struct {
	store        Store
	enc          Encryptor
	z            int
	maxValueSize int
}

func newBucketAdapter(store Store, enc Encryptor, z, maxValueSize int) *bucketAdapter {
	return &bucketAdapter{store: store, enc: enc, z: z, maxValueSize: maxValueSize}
}

// readBucket fetches the blob for index, decrypts it, and deserializes the
// canonical bucket encoding.
func (a *bucketAdapter) readBucket(ctx context.Context, index int) (Bucket, error) {
	blob, err := a.store.Get(ctx, index)
	if err != nil {
		return Bucket{}, err
	}

	plaintext, err := a.enc.Decrypt(blob)
	if err != nil {
		return Bucket{}, fmt.Errorf("pathoram: decrypting bucket %d: %w", index, err)
	}

	bucket, err := unmarshalBucket(plaintext, a.z, a.maxValueSize)
	if err != nil {
		return Bucket{}, fmt.Errorf("pathoram: deserializing bucket %d: %w", index, err)
	}
	return bucket, nil
}

// writeBucket serializes bucket into the canonical form, encrypts it with the
// adapter's Encryptor, and stores the resulting blob. With AESCTREncryptor,
// which draws a fresh IV per call, every call produces a distinct ciphertext
// for the same index, even for identical bucket contents (spec.md §8
// IV-freshness invariant); NoOpEncryptor stores the plaintext unchanged.
func (a *bucketAdapter) writeBucket(ctx context.Context, index int, bucket Bucket) error {
	plaintext, err := marshalBucket(bucket, a.z, a.maxValueSize)
	if err != nil {
		return fmt.Errorf("pathoram: serializing bucket %d: %w", index, err)
	}

	blob, err := a.enc.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("pathoram: encrypting bucket %d: %w", index, err)
	}

	if err := a.store.Put(ctx, index, blob); err != nil {
		return err
	}
	return nil
}

// initTree writes a freshly encrypted all-dummies bucket to every bucket
// index in the tree, establishing its shape in the store (spec.md §3
// Lifecycle, §6 new()).
func (a *bucketAdapter) initTree(ctx context.Context, totalBuckets int) error {
	for idx := 0; idx < totalBuckets; idx++ {
		if err := a.writeBucket(ctx, idx, newDummyBucket(a.z)); err != nil {
			return fmt.Errorf("pathoram: initializing bucket %d: %w", idx, err)
		}
	}
	return nil
}
