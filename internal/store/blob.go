package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseph-ayodele/market-views/internal/common"
)

// Blob is the stored catalog text and the opaque version token it was read at.
type Blob struct {
	Content string
	Version string
}

// BlobStore is a single remote text file with compare-and-swap writes.
//
// Get fails with KindRemoteReadError; a missing file also matches common.ErrNotFound.
// Put writes content only if the stored version still equals version (empty means
// "must not exist yet") and returns the new version. A stale version fails with an
// error matching common.ErrConflict.
type BlobStore interface {
	Get(ctx context.Context) (Blob, error)
	Put(ctx context.Context, content, version, message string) (string, error)
	Describe() string
}

func notFound(what string, cause error) error {
	if cause == nil {
		cause = common.ErrNotFound
	} else {
		cause = fmt.Errorf("%w: %w", common.ErrNotFound, cause)
	}
	return common.NewAppError(common.KindRemoteReadError, what+" does not exist", cause)
}

func conflict(what string, cause error) error {
	if cause == nil {
		cause = common.ErrConflict
	} else {
		cause = fmt.Errorf("%w: %w", common.ErrConflict, cause)
	}
	return common.NewAppError(common.KindRemoteWriteError, what+" changed since it was read", cause)
}

// IsNotFound reports whether err came from reading a file that does not exist.
func IsNotFound(err error) bool { return errors.Is(err, common.ErrNotFound) }

// IsConflict reports whether err came from a write carrying a stale version.
func IsConflict(err error) bool { return errors.Is(err, common.ErrConflict) }
