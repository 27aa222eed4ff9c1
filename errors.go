package transfer

import (
	"github.com/pkg/errors"
)

// Sentinel errors returned by the public API. Callers should use
// errors.Is against these rather than comparing error strings.
var (
	// ErrShuttingDown is returned by Submit* calls made after Shutdown has
	// been requested.
	ErrShuttingDown = errors.New("transfer: engine is shutting down")

	// ErrQueueClosed is returned when the request queue has already been
	// closed (Shutdown has begun) and a submission races in afterward.
	ErrQueueClosed = errors.New("transfer: request queue closed")

	// ErrHandleExhausted is returned by AllocateHandle when the handle
	// pool reports that it could not allocate a slot.
	ErrHandleExhausted = errors.New("transfer: handle pool exhausted")

	// ErrInvalidHandle is returned by Status and Error when a caller passes
	// a handle this engine did not allocate, or one that has already been
	// freed. FreeHandle and ResetHandle treat such a handle as a no-op.
	ErrInvalidHandle = errors.New("transfer: invalid or stale handle")

	// ErrUnknownTransferType is returned when a Request carries a Type
	// the worker does not recognize.
	ErrUnknownTransferType = errors.New("transfer: unknown transfer type")
)

// wrapf is the package's single error-wrapping convention, used at
// component boundaries (Init, config load, capability calls) so failures
// carry a stack trace back to where they were first observed. Call sites
// deep in the hot submit/worker path return bare errors instead, since
// github.com/pkg/errors stack capture is comparatively expensive and
// those paths are already exercised by the Status/Error field on the
// handle rather than by an error return.
func wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}
