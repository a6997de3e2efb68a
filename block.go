package pathoram

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Block is the atomic logical item moved between the stash and the tree.
// Real and dummy blocks carry the same shape so that, once encrypted, they
// are indistinguishable to an observer of the store.
type Block struct {
	Real    bool  // false marks a dummy slot
	BlockID int64 // redundant with Key for real blocks; -1 for dummies
	Key     int64 // application-visible identifier; meaningless for dummies
	Value   []byte
}

func dummyBlock() Block {
	return Block{Real: false, BlockID: -1, Key: -1}
}

// Bucket is a fixed-capacity container of exactly Z block slots.
type Bucket struct {
	Blocks         []Block // always length Z; order-insensitive
	RealBlockCount int32   // redundant count of non-dummy slots, for sanity checks
}

func newDummyBucket(z int) Bucket {
	blocks := make([]Block, z)
	for i := range blocks {
		blocks[i] = dummyBlock()
	}
	return Bucket{Blocks: blocks}
}

// perBlockWireSize is the fixed plaintext size of one serialized block:
// 1 (real flag) + 8 (block id) + 8 (key) + 4 (value length) + maxValueSize
// (zero-padded value).
func perBlockWireSize(maxValueSize int) int {
	return 1 + 8 + 8 + 4 + maxValueSize
}

// bucketWireSize is the fixed plaintext size of a whole serialized bucket:
// 4 (real block count) + Z * perBlockWireSize.
func bucketWireSize(z, maxValueSize int) int {
	return 4 + z*perBlockWireSize(maxValueSize)
}

// marshalBucket produces the canonical, fixed-length plaintext encoding of a
// bucket: every value slot is zero-padded out to maxValueSize so that the
// plaintext length depends only on (z, maxValueSize), never on which slots
// are real. This is what makes every bucket blob the same size regardless of
// contents, adapted from the zero-padded block encoding used by
// cloudflare-utahfs's oblivious storage layer.
func marshalBucket(b Bucket, z, maxValueSize int) ([]byte, error) {
	if len(b.Blocks) != z {
		return nil, fmt.Errorf("%w: got %d slots, want %d", ErrBucketSizeMismatch, len(b.Blocks), z)
	}

	buf := new(bytes.Buffer)
	buf.Grow(bucketWireSize(z, maxValueSize))

	var realCount int32
	for _, blk := range b.Blocks {
		if blk.Real {
			realCount++
		}
	}
	if err := binary.Write(buf, binary.LittleEndian, realCount); err != nil {
		return nil, err
	}

	for _, blk := range b.Blocks {
		if len(blk.Value) > maxValueSize {
			return nil, fmt.Errorf("%w: value is %d bytes, max is %d", ErrInvalidDataSize, len(blk.Value), maxValueSize)
		}
		var realByte byte
		if blk.Real {
			realByte = 1
		}
		if err := buf.WriteByte(realByte); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, blk.BlockID); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, blk.Key); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, uint32(len(blk.Value))); err != nil {
			return nil, err
		}
		if _, err := buf.Write(blk.Value); err != nil {
			return nil, err
		}
		if _, err := buf.Write(make([]byte, maxValueSize-len(blk.Value))); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// unmarshalBucket is the inverse of marshalBucket. It rejects inputs whose
// padding bytes are not all zero, which would indicate either corruption or a
// decryption key mismatch.
func unmarshalBucket(data []byte, z, maxValueSize int) (Bucket, error) {
	want := bucketWireSize(z, maxValueSize)
	if len(data) != want {
		return Bucket{}, fmt.Errorf("%w: got %d bytes, want %d", ErrDecryptionFailed, len(data), want)
	}

	r := bytes.NewReader(data)
	var realCount int32
	if err := binary.Read(r, binary.LittleEndian, &realCount); err != nil {
		return Bucket{}, err
	}

	blocks := make([]Block, z)
	for i := 0; i < z; i++ {
		realByte, err := r.ReadByte()
		if err != nil {
			return Bucket{}, err
		}

		var blockID, key int64
		if err := binary.Read(r, binary.LittleEndian, &blockID); err != nil {
			return Bucket{}, err
		}
		if err := binary.Read(r, binary.LittleEndian, &key); err != nil {
			return Bucket{}, err
		}

		var valLen uint32
		if err := binary.Read(r, binary.LittleEndian, &valLen); err != nil {
			return Bucket{}, err
		}
		if int(valLen) > maxValueSize {
			return Bucket{}, fmt.Errorf("%w: encoded value length %d exceeds max %d", ErrDecryptionFailed, valLen, maxValueSize)
		}

		value := make([]byte, valLen)
		if _, err := io.ReadFull(r, value); err != nil {
			return Bucket{}, err
		}

		padding := make([]byte, maxValueSize-int(valLen))
		if _, err := io.ReadFull(r, padding); err != nil {
			return Bucket{}, err
		}
		for _, pb := range padding {
			if pb != 0 {
				return Bucket{}, fmt.Errorf("%w: non-zero padding in block %d", ErrDecryptionFailed, i)
			}
		}

		blocks[i] = Block{Real: realByte != 0, BlockID: blockID, Key: key, Value: value}
	}

	return Bucket{Blocks: blocks, RealBlockCount: realCount}, nil
}
