package persistence

import (
	"fmt"
	"hash/crc32"
)

// Payload integrity uses CRC32-Castagnoli: hardware-accelerated on x86
// (SSE4.2) and ARM (CRC extension), and the standard choice for storage
// corruption detection (iSCSI, RocksDB, LevelDB). Not cryptographically
// secure; this detects accidental corruption only.

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the CRC32-Castagnoli checksum of data.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// ChecksumMismatchError is returned when payload verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}
