package discrim

import (
	"encoding/binary"
	"hash/fnv"
	"iter"
)

// Fingerprint computes an order-independent hash of a corpus: per-declaration
// FNV-64a digests combined with XOR. Two enumerations of the same
// declarations in any order produce the same fingerprint, matching the
// order-independence of builds.
//
// Build computes the same value while it iterates, so a saved index can later
// be validated with Fingerprint over the current corpus.
func Fingerprint(decls iter.Seq[Declaration]) uint64 {
	var fp uint64
	for d := range decls {
		fp ^= declHash(d)
	}
	return fp
}

func declHash(d Declaration) uint64 {
	h := fnv.New64a()
	h.Write([]byte(d.Name))
	h.Write([]byte{0})
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(d.Priority))
	h.Write(buf[:])
	if d.Conclusion != nil {
		h.Write([]byte(d.Conclusion.String()))
	}
	return h.Sum64()
}
