package pathoram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketAdapterWriteReadRoundTrips(t *testing.T) {
	store := NewInMemoryStore()
	key, err := GenerateKey()
	require.NoError(t, err)
	enc, err := NewAESCTREncryptor(key)
	require.NoError(t, err)

	a := newBucketAdapter(store, enc, 4, 8)
	ctx := context.Background()

	bucket := newDummyBucket(4)
	bucket.Blocks[0] = Block{Real: true, BlockID: 1, Key: 1, Value: []byte("value")}

	require.NoError(t, a.writeBucket(ctx, 0, bucket))

	got, err := a.readBucket(ctx, 0)
	require.NoError(t, err)
	require.True(t, got.Blocks[0].Real)
	require.Equal(t, []byte("value"), got.Blocks[0].Value)
}

func TestBucketAdapterEncryptsOnWire(t *testing.T) {
	store := NewInMemoryStore()
	key, err := GenerateKey()
	require.NoError(t, err)
	enc, err := NewAESCTREncryptor(key)
	require.NoError(t, err)

	a := newBucketAdapter(store, enc, 2, 8)
	ctx := context.Background()

	bucket := newDummyBucket(2)
	bucket.Blocks[0] = Block{Real: true, BlockID: 1, Key: 1, Value: []byte("secret!!")}
	require.NoError(t, a.writeBucket(ctx, 0, bucket))

	raw, err := store.Get(ctx, 0)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret")
}

func TestBucketAdapterInitTreeWritesAllDummies(t *testing.T) {
	store := NewInMemoryStore()
	a := newBucketAdapter(store, NoOpEncryptor{}, 4, 8)
	ctx := context.Background()

	require.NoError(t, a.initTree(ctx, 7))

	for i := 0; i < 7; i++ {
		bucket, err := a.readBucket(ctx, i)
		require.NoError(t, err)
		for _, b := range bucket.Blocks {
			require.False(t, b.Real)
		}
	}
}
