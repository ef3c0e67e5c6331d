package gc

import "errors"

// The error taxonomy is closed (§7): every mutating or query operation
// returns one of these sentinels, or nil for success. Callers compare with
// errors.Is; a stable C-ABI wrapper (out of scope for this package, see
// spec §6) would map these back to the fixed gc_return_code_t enumeration.
var (
	// ErrAlreadyTracked is returned only by Track, for an identity that is
	// already registered.
	ErrAlreadyTracked = errors.New("gc: already tracked")

	// ErrNotTracked is returned only by operations that require a live
	// record for an identity that has none.
	ErrNotTracked = errors.New("gc: not tracked")

	// ErrCollectionInProgress is returned by Collect/CollectGeneration/
	// CollectIfNeeded when a collection is already running, whether the
	// caller is a different goroutine or the same one reentering through a
	// reclamation callback.
	ErrCollectionInProgress = errors.New("gc: collection in progress")

	// ErrInvalidGeneration is returned whenever g is not one of Young,
	// Middle, Old.
	ErrInvalidGeneration = errors.New("gc: invalid generation")

	// ErrInternal reports a null identity, a broken invariant, or any
	// other condition the host is never expected to trigger except by
	// misuse.
	ErrInternal = errors.New("gc: internal error")
)

// ReturnCode is the stable, fixed small enumeration named in spec §6. Go
// callers should prefer errors.Is against the sentinels above; ReturnCode
// exists for callers (debug printers, a future C-ABI wrapper) that need the
// closed enum rather than an error value.
type ReturnCode int

const (
	// CodeOK means the operation succeeded.
	CodeOK ReturnCode = iota
	CodeAlreadyTracked
	CodeNotTracked
	CodeCollectionInProgress
	CodeInvalidGeneration
	CodeInternal
)

func (c ReturnCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeAlreadyTracked:
		return "already-tracked"
	case CodeNotTracked:
		return "not-tracked"
	case CodeCollectionInProgress:
		return "collection-in-progress"
	case CodeInvalidGeneration:
		return "invalid-generation"
	case CodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Code maps an error returned by this package to its ReturnCode, CodeOK for
// nil and CodeInternal for anything unrecognized.
func Code(err error) ReturnCode {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrAlreadyTracked):
		return CodeAlreadyTracked
	case errors.Is(err, ErrNotTracked):
		return CodeNotTracked
	case errors.Is(err, ErrCollectionInProgress):
		return CodeCollectionInProgress
	case errors.Is(err, ErrInvalidGeneration):
		return CodeInvalidGeneration
	default:
		return CodeInternal
	}
}
