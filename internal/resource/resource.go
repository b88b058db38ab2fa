// Package resource defines the content-resource and uniform-resource value
// types shared by the classifier, walkers, builder and writer.
package resource

import (
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// Flags is a bitset assigned by the classifier to a candidate URI.
type Flags uint8

const (
	// IgnoreResource means the candidate must never be read or written.
	IgnoreResource Flags = 1 << iota
	// ContentAcquirable means the caller may invoke the text/binary supplier.
	ContentAcquirable
	// CapturableExecutable means the candidate is a subprocess to run during ingest.
	CapturableExecutable
	// CapturableSQL refines CapturableExecutable: stdout is batched SQL, not content.
	CapturableSQL
)

// Has reports whether all bits in want are set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

// NoDigest is the content digest recorded when no sha1 hex digest of a
// supplier's bytes is available: the literal "-".
const NoDigest = "-"

// Sha1Hex returns the lowercase hex sha1 digest of b.
func Sha1Hex(b []byte) string {
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}

// TextSupplier lazily produces decoded text content and its digest. It MUST
// be invoked at most once per row write.
type TextSupplier func() (text string, digest string, err error)

// BinarySupplier lazily produces raw bytes and their digest. It MUST be
// invoked at most once per row write.
type BinarySupplier func() (data []byte, digest string, err error)

// CapturableExec describes a candidate that the classifier has flagged as
// executable during ingest.
type CapturableExec struct {
	// URI is the command or path to execute.
	URI string
	// Nature is the nature to assign to the captured output, when not batched SQL.
	Nature string
	// IsBatchedSQL means stdout must be executed as SQL rather than stored.
	IsBatchedSQL bool
	// Executable reports whether the candidate actually has execute permission;
	// false yields RequestedButNotExecutable at the writer.
	Executable bool
}

// Class is the result of classifying one candidate URI.
type Class struct {
	Flags          Flags
	Nature         string
	CapturableExec *CapturableExec
}

// ContentResource is the lazy, not-yet-materialized view of one encountered
// path. Suppliers are nil when the classifier decided content is not
// acquirable for this candidate.
type ContentResource struct {
	URI              string
	Nature           string
	SizeBytes        *int64
	CreatedAt        *time.Time
	LastModifiedAt   *time.Time
	TextSupplier     TextSupplier
	BinarySupplier   BinarySupplier
	CapturableExec   *CapturableExec
	CapTextSupplier  TextSupplier
	CapBinarySupplier BinarySupplier
	Flags            Flags
}

// Supplied is the materialized result of invoking a supplier once.
type Supplied struct {
	Text   string
	Binary []byte
	Digest string
	Err    error
}

// SupplyText invokes the resource's text supplier exactly once and returns
// the result. Calling it more than once on the same ContentResource value is
// a caller bug; ContentResource carries no invocation guard of its own, that
// responsibility lives with the writer (see session package).
func (r *ContentResource) SupplyText() Supplied {
	if r.TextSupplier == nil {
		return Supplied{Err: ErrContentUnavailable}
	}
	text, digest, err := r.TextSupplier()
	if err != nil {
		return Supplied{Err: err}
	}
	return Supplied{Text: text, Digest: digest}
}

// SupplyBinary invokes the resource's binary supplier exactly once.
func (r *ContentResource) SupplyBinary() Supplied {
	if r.BinarySupplier == nil {
		return Supplied{Err: ErrContentUnavailable}
	}
	data, digest, err := r.BinarySupplier()
	if err != nil {
		return Supplied{Err: err}
	}
	return Supplied{Binary: data, Digest: digest}
}
