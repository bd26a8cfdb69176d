package discrim

import (
	"errors"

	"github.com/hupe1980/discrim/keys"
	"github.com/hupe1980/discrim/persistence"
)

var (
	// ErrNilExpression is returned when a query target is nil.
	ErrNilExpression = errors.New("nil expression")
)

// EncodingError reports an expression that cannot be reduced to a valid
// index key sequence. During builds such declarations are skipped; an
// explicit query of such an expression fails with this error.
type EncodingError = keys.EncodingError

// LoadError reports an unusable cache file. It is always recoverable:
// treat the cache as absent and rebuild.
type LoadError = persistence.LoadError

// IsStale reports whether err marks a cache rejected for version skew or a
// corpus fingerprint mismatch, as opposed to I/O trouble or corruption.
// Either way the cache must be rebuilt; IsStale only helps callers log why.
func IsStale(err error) bool {
	return errors.Is(err, persistence.ErrInvalidMagic) ||
		errors.Is(err, persistence.ErrInvalidVersion) ||
		errors.Is(err, persistence.ErrFingerprintMismatch)
}
