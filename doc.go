// Package pathoram implements a Path ORAM client: a scheme for hiding access
// patterns to a remote, untrusted key-value store. Every Get or Put is turned
// into a fixed-shape sequence of reads and writes over an implicit binary
// tree of encrypted buckets held by the store, so that an observer of the
// store sees a stream of same-sized ciphertexts whose access sequence is
// indistinguishable from a uniform random walk on the tree.
//
// The package covers the access protocol, tree geometry, position map,
// stash, and encryption envelope. The backing store is abstracted behind the
// Store interface; InMemoryStore and FileStore are provided as reference
// backends, but any addressable blob store can be adapted.
package pathoram
