package persistence

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies discrimination-tree cache files (ASCII: "DTI1").
	MagicNumber = 0x44544931
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000

	headerSize = 44
)

var (
	ErrInvalidMagic        = errors.New("invalid magic number")
	ErrInvalidVersion      = errors.New("unsupported version")
	ErrFingerprintMismatch = errors.New("corpus fingerprint mismatch")
	ErrTruncated           = errors.New("truncated payload")
)

// FileHeader is the fixed 44-byte header at the start of every cache file.
type FileHeader struct {
	Magic       uint32 // 0x44544931 ("DTI1")
	Version     uint32 // File format version
	Compression uint8  // Payload compression codec
	Padding     [3]byte
	Fingerprint uint64 // Corpus fingerprint the tree was built from
	PayloadSize uint64 // Payload length in bytes (after compression)
	Checksum    uint32 // CRC32C of the payload
	Reserved    [12]byte
}

// LoadError reports that a cache file could not be used. It is always
// recoverable: callers are expected to treat the cache as absent and rebuild.
type LoadError struct {
	Path   string
	Reason string
	cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Path, e.Reason, e.cause)
}

func (e *LoadError) Unwrap() error { return e.cause }

func loadErr(path, reason string, cause error) *LoadError {
	return &LoadError{Path: path, Reason: reason, cause: cause}
}
