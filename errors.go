package kdindex

import (
	"errors"

	"github.com/scigolib/kdindex/internal/serialize"
)

// Error taxonomy, per spec.md §7. Each kind is a distinct sentinel meant
// for errors.Is rather than a single nested type hierarchy; some are
// returned bare and some with context wrapped around them (fmt.Errorf's
// %w or internal/utils.WrapError). The deserialization sentinels live in
// internal/serialize (which Deserialize delegates to) and are re-exported
// here so callers never need to import an internal package to use
// errors.Is against them.
var (
	// ErrEmptyDataSet is returned by Build when the training set is empty.
	ErrEmptyDataSet = errors.New("kdindex: empty data set")

	// ErrBadBucketSize is returned by Build when bucketSize is negative
	// (zero selects DefaultBucketSize).
	ErrBadBucketSize = errors.New("kdindex: bucket size must be greater than zero")

	// ErrTruncatedStream is returned by Deserialize on a short read.
	ErrTruncatedStream = serialize.ErrTruncatedStream

	// ErrBadSignature is returned by Deserialize when the trailing
	// 0xCAFE signature does not match.
	ErrBadSignature = serialize.ErrBadSignature

	// ErrUnsupportedVersion is returned by Deserialize when the major/minor
	// version pair is not exactly 1.0.
	ErrUnsupportedVersion = serialize.ErrUnsupportedVersion

	// ErrHeaderMismatch is returned by Deserialize when the endianness
	// tag is unrecognised, the type tag names a different element type,
	// or the element or dimension count is zero or above the limits in
	// internal/utils. Deserialize takes no expected dimension count, so a
	// stream of any in-range dimensionality is accepted.
	ErrHeaderMismatch = serialize.ErrHeaderMismatch

	// ErrSingularCovariance names a sample covariance matrix that cannot
	// be inverted. No constructor in this package returns it:
	// NewMahalanobisFromTrainingSet falls back to a diagonal inverse on a
	// singular covariance and reports that with ok == false.
	ErrSingularCovariance = errors.New("kdindex: singular covariance matrix")

	// ErrInvariantViolation is returned by Verify, never by a query path.
	ErrInvariantViolation = errors.New("kdindex: kd-tree invariant violated")
)
