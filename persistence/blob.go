// Package persistence serializes discrimination trees to a versioned binary
// cache blob and reloads them across sessions.
//
// A cache file is a fixed header (magic, format version, corpus fingerprint,
// payload size, payload checksum) followed by the tree payload, optionally
// compressed. Writes go to a temporary file in the target directory and are
// atomically renamed into place, so a crash mid-write never leaves a corrupt
// file at the canonical path. Every load failure, from a missing file to a
// fingerprint mismatch, is a *LoadError: the caller treats the cache as
// absent and rebuilds.
package persistence

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hupe1980/discrim/dtree"
)

// Save serializes t under the given corpus fingerprint and atomically
// replaces path with the result. The in-memory tree remains usable if the
// destination is unwritable.
func Save(t *dtree.Tree, fingerprint uint64, path string, c Compression) error {
	var body bytes.Buffer
	if err := t.Serialize(&body); err != nil {
		return fmt.Errorf("serialize tree: %w", err)
	}

	payload, err := compressBlock(body.Bytes(), c)
	if err != nil {
		return fmt.Errorf("compress payload: %w", err)
	}

	header := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: uint8(c),
		Fingerprint: fingerprint,
		PayloadSize: uint64(len(payload)),
		Checksum:    Checksum(payload),
	}

	return saveToFile(path, func(w io.Writer) error {
		if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
			return err
		}
		_, err := w.Write(payload)
		return err
	})
}

// Load reads the cache at path and reconstructs the tree it holds.
//
// The header's magic, version and fingerprint are validated before the
// payload is touched; a fingerprint that differs from wantFingerprint means
// the corpus changed since the cache was built and is rejected the same way
// a format mismatch is. All failures are returned as *LoadError.
func Load(path string, wantFingerprint uint64) (*dtree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, loadErr(path, "open cache file", err)
	}
	defer f.Close()

	var header FileHeader
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, loadErr(path, "read header", err)
	}
	if header.Magic != MagicNumber {
		return nil, loadErr(path, fmt.Sprintf("magic 0x%08x", header.Magic), ErrInvalidMagic)
	}
	if header.Version != Version {
		return nil, loadErr(path, fmt.Sprintf("version 0x%08x", header.Version), ErrInvalidVersion)
	}
	if header.Fingerprint != wantFingerprint {
		return nil, loadErr(path, "stale corpus fingerprint", ErrFingerprintMismatch)
	}

	// Guard the payload allocation against a corrupt size field.
	fi, err := f.Stat()
	if err != nil {
		return nil, loadErr(path, "stat cache file", err)
	}
	if uint64(fi.Size()) != headerSize+header.PayloadSize {
		return nil, loadErr(path, "payload size disagrees with file size", ErrTruncated)
	}

	payload := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(f, payload); err != nil {
		return nil, loadErr(path, "read payload", err)
	}

	if actual := Checksum(payload); actual != header.Checksum {
		return nil, loadErr(path, "payload corrupt", &ChecksumMismatchError{
			Expected: header.Checksum,
			Actual:   actual,
		})
	}

	body, err := decompressBlock(payload, Compression(header.Compression))
	if err != nil {
		return nil, loadErr(path, "decompress payload", err)
	}

	t, err := dtree.Deserialize(bytes.NewReader(body))
	if err != nil {
		return nil, loadErr(path, "decode tree", err)
	}
	return t, nil
}

// saveToFile writes via a temp file in the same directory so the final
// rename is atomic, then fsyncs the directory to make the rename durable.
func saveToFile(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	_ = tmp.Chmod(0644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	// Success: prevent deferred cleanup from removing the final file.
	tmpName = ""
	return nil
}
