package pathoram

import "errors"

// Configuration errors (fail construction).
var (
	ErrInvalidConfig = errors.New("pathoram: invalid configuration")
)

// Programmer errors (leaf out of range, dummy sentinel misused). These must
// never be silent per spec.
var (
	ErrInvalidKey      = errors.New("pathoram: key is reserved or out of range")
	ErrInvalidLeaf     = errors.New("pathoram: leaf out of range")
	ErrInvalidDataSize = errors.New("pathoram: value exceeds configured maximum size")
)

// Cryptographic errors.
var (
	ErrEncryptionFailed = errors.New("pathoram: block encryption failed")
	ErrDecryptionFailed = errors.New("pathoram: block decryption failed")
	ErrInvalidKeyLength = errors.New("pathoram: encryption key has wrong length")
	ErrCiphertextShort  = errors.New("pathoram: ciphertext shorter than IV")
)

// Store errors.
var (
	ErrBucketOutOfRange  = errors.New("pathoram: bucket index out of range")
	ErrBucketSizeMismatch = errors.New("pathoram: bucket does not have exactly Z slots")
)

// ErrStashOverflow is a warning-kind error: the stash has exceeded its soft
// limit. Per spec.md §4.5/§7, implementations must not drop blocks when this
// occurs; access still completes, but the caller may want to log or alert.
var ErrStashOverflow = errors.New("pathoram: stash exceeded configured limit")
