package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/discrim/dtree"
	"github.com/hupe1980/discrim/expr"
	"github.com/hupe1980/discrim/keys"
)

const testFingerprint = 0xfeedface12345678

func testTree(t *testing.T) *dtree.Tree {
	t.Helper()
	tr := dtree.New()
	for i, d := range []struct {
		name string
		e    expr.Expr
		prio int32
	}{
		{"mul_comm", expr.Apply(expr.C("Eq"),
			expr.Apply(expr.C("Mul"), expr.B(1), expr.B(0)),
			expr.Apply(expr.C("Mul"), expr.B(0), expr.B(1))), 1},
		{"add_zero", expr.Apply(expr.C("Eq"),
			expr.Apply(expr.C("Add"), expr.B(0), expr.Nat(0)),
			expr.B(0)), 5},
	} {
		ks, err := keys.Encode(d.e, keys.ModeIndex, 0)
		require.NoError(t, err, "decl %d", i)
		tr.Insert(ks, dtree.Entry{Name: d.name, Priority: d.prio})
	}
	return tr
}

func lookupNames(tr *dtree.Tree, qk []keys.Key) map[string]bool {
	out := make(map[string]bool)
	for _, c := range tr.Lookup(qk, 0) {
		out[tr.Entry(c.ID).Name] = true
	}
	return out
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.name(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.dti")
			tr := testTree(t)

			require.NoError(t, Save(tr, testFingerprint, path, c))

			got, err := Load(path, testFingerprint)
			require.NoError(t, err)
			assert.Equal(t, tr.Len(), got.Len())

			q := expr.Apply(expr.C("Eq"),
				expr.Apply(expr.C("Add"), expr.Hole("p"), expr.Nat(0)),
				expr.Hole("p"))
			qk, err := keys.Encode(q, keys.ModeQuery, 0)
			require.NoError(t, err)
			assert.Equal(t, lookupNames(tr, qk), lookupNames(got, qk))
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.dti"), testFingerprint)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.dti")
	// Longer than the header so the magic check itself is what fires.
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("garbage!"), 16), 0644))

	_, err := Load(path, testFingerprint)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, errors.Is(err, ErrInvalidMagic))
}

func TestLoadRejectsVersionSkew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.dti")
	require.NoError(t, Save(testTree(t), testFingerprint, path, CompressionNone))

	// Bump the on-disk version field.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[4:], Version+1)
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = Load(path, testFingerprint)
	assert.True(t, errors.Is(err, ErrInvalidVersion))
}

func TestLoadRejectsFingerprintMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.dti")
	require.NoError(t, Save(testTree(t), testFingerprint, path, CompressionZSTD))

	_, err := Load(path, testFingerprint+1)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, errors.Is(err, ErrFingerprintMismatch))
}

func TestLoadRejectsTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.dti")
	require.NoError(t, Save(testTree(t), testFingerprint, path, CompressionNone))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-7], 0644))

	_, err = Load(path, testFingerprint)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestLoadRejectsCorruptPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.dti")
	require.NoError(t, Save(testTree(t), testFingerprint, path, CompressionZSTD))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = Load(path, testFingerprint)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	var cm *ChecksumMismatchError
	assert.True(t, errors.As(err, &cm))
}

func TestSaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.dti")

	require.NoError(t, Save(testTree(t), testFingerprint, path, CompressionNone))
	require.NoError(t, Save(testTree(t), testFingerprint, path, CompressionZSTD))

	// The second save fully replaced the first; no temp files remain.
	got, err := Load(path, testFingerprint)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cache.dti", entries[0].Name())
}

func TestSaveUnwritableDestination(t *testing.T) {
	err := Save(testTree(t), testFingerprint, filepath.Join(t.TempDir(), "no", "such", "dir", "cache.dti"), CompressionNone)
	assert.Error(t, err)
}

func (c Compression) name() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}
