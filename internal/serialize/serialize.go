// Package serialize implements the self-describing binary format
// described in spec.md §4.2/§6: a header (endianness tag, version, type
// tag, dimensions, element count), the permutation array, the vector
// payload, the kd-tree topology, and a trailing signature. Every
// multi-byte value is written in the host's own byte order at the time
// of writing, recorded by a leading tag so a reader on a
// different-endian host can detect the mismatch, matching
// internal/core/superblock.go's own endianness-tag-plus-validate
// pattern in the teacher repository this package is grounded on.
package serialize

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/scigolib/kdindex/internal/kdnode"
	"github.com/scigolib/kdindex/internal/traits"
	"github.com/scigolib/kdindex/internal/utils"
)

// Signature is the trailing 16-bit marker every stream ends with.
const Signature uint16 = 0xCAFE

// VersionMajor and VersionMinor are the only format version this
// package writes or accepts, per spec.md §6.
const (
	VersionMajor uint16 = 1
	VersionMinor uint16 = 0
)

const (
	endiannessBig    byte = 0x00
	endiannessLittle byte = 0x01
)

// Errors surfaced by Read*, all mapping to spec.md §7's
// DeserializationError kinds. The root package re-exports these under
// its own sentinel names so callers never need to import this package
// directly.
var (
	ErrTruncatedStream    = errors.New("serialize: truncated stream")
	ErrBadSignature       = errors.New("serialize: bad trailing signature")
	ErrUnsupportedVersion = errors.New("serialize: unsupported format version")
	ErrHeaderMismatch     = errors.New("serialize: header mismatch")
)

// Header is the decoded, validated stream preamble.
type Header struct {
	Little   bool
	Major    uint16
	Minor    uint16
	TypeName string
	Dim      uint32
	N        uint32
}

// ElementName returns the self-describing type tag for T — its Go
// numeric type name, which is stable across platforms and compiler
// versions (unlike the original's demangled C++ type name, the trait
// this header field is grounded on).
func ElementName[T traits.Element]() string {
	var zero T
	switch any(zero).(type) {
	case float32:
		return "float32"
	case float64:
		return "float64"
	default:
		return fmt.Sprintf("%T", zero)
	}
}

// WriteHeader writes the endianness tag byte, version, type tag, dimensions,
// and element count, using the host's own endianness.
func WriteHeader[T traits.Element](w io.Writer, dim, n uint32) error {
	order := utils.HostEndianness()
	if err := utils.WriteUint8(w, endiannessLittle); err != nil {
		return utils.WrapError("serialize: write endianness tag", err)
	}
	if err := utils.WriteUint16(w, VersionMajor, order); err != nil {
		return utils.WrapError("serialize: write major version", err)
	}
	if err := utils.WriteUint16(w, VersionMinor, order); err != nil {
		return utils.WrapError("serialize: write minor version", err)
	}
	name := ElementName[T]()
	if err := utils.WriteUint16(w, uint16(len(name)), order); err != nil {
		return utils.WrapError("serialize: write type name length", err)
	}
	if _, err := io.WriteString(w, name); err != nil {
		return utils.WrapError("serialize: write type name", err)
	}
	if err := utils.WriteUint32(w, dim, order); err != nil {
		return utils.WrapError("serialize: write dimension count", err)
	}
	if err := utils.WriteUint32(w, n, order); err != nil {
		return utils.WrapError("serialize: write element count", err)
	}
	return nil
}

// ReadHeader reads and validates the stream preamble against the
// caller's expected T, returning ErrHeaderMismatch if the type tag
// doesn't match or ErrUnsupportedVersion if the version isn't 1.0.
func ReadHeader[T traits.Element](r io.Reader) (Header, binary.ByteOrder, error) {
	tag, err := utils.ReadUint8(r)
	if err != nil {
		return Header{}, nil, wrapShortRead("endianness tag", err)
	}
	if tag != endiannessLittle && tag != endiannessBig {
		return Header{}, nil, fmt.Errorf("%w: unrecognised endianness tag %#x", ErrHeaderMismatch, tag)
	}
	var order binary.ByteOrder = binary.LittleEndian
	if tag == endiannessBig {
		order = binary.BigEndian
	}

	major, err := utils.ReadUint16(r, order)
	if err != nil {
		return Header{}, nil, wrapShortRead("major version", err)
	}
	minor, err := utils.ReadUint16(r, order)
	if err != nil {
		return Header{}, nil, wrapShortRead("minor version", err)
	}
	if major != VersionMajor || minor != VersionMinor {
		return Header{}, nil, fmt.Errorf("%w: got %d.%d, want %d.%d", ErrUnsupportedVersion, major, minor, VersionMajor, VersionMinor)
	}

	nameLen, err := utils.ReadUint16(r, order)
	if err != nil {
		return Header{}, nil, wrapShortRead("type name length", err)
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return Header{}, nil, wrapShortRead("type name", err)
	}
	name := string(nameBuf)
	want := ElementName[T]()
	if name != want {
		return Header{}, nil, fmt.Errorf("%w: stream type tag %q, expected %q", ErrHeaderMismatch, name, want)
	}

	dim, err := utils.ReadUint32(r, order)
	if err != nil {
		return Header{}, nil, wrapShortRead("dimension count", err)
	}
	n, err := utils.ReadUint32(r, order)
	if err != nil {
		return Header{}, nil, wrapShortRead("element count", err)
	}
	if n < 1 {
		return Header{}, nil, fmt.Errorf("%w: element count must be at least 1, got %d", ErrHeaderMismatch, n)
	}
	if err := utils.ValidateDataSetBounds(uint64(n), uint64(dim)); err != nil {
		return Header{}, nil, fmt.Errorf("%w: %v", ErrHeaderMismatch, err)
	}
	var zero T
	if _, err := utils.CalculatePayloadSize(uint64(n), uint64(dim), uint64(elementSize(zero))); err != nil {
		return Header{}, nil, fmt.Errorf("%w: %v", ErrHeaderMismatch, err)
	}

	return Header{
		Little:   tag == endiannessLittle,
		Major:    major,
		Minor:    minor,
		TypeName: name,
		Dim:      dim,
		N:        n,
	}, order, nil
}

func wrapShortRead(what string, cause error) error {
	if errors.Is(cause, io.EOF) || errors.Is(cause, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncatedStream, what)
	}
	return utils.WrapError("serialize: read "+what, cause)
}

// WriteTrailer writes the trailing 0xCAFE signature.
func WriteTrailer(w io.Writer, order binary.ByteOrder) error {
	return utils.WriteUint16(w, Signature, order)
}

// ReadTrailer reads and validates the trailing signature.
func ReadTrailer(r io.Reader, order binary.ByteOrder) error {
	got, err := utils.ReadUint16(r, order)
	if err != nil {
		return wrapShortRead("trailing signature", err)
	}
	if got != Signature {
		return fmt.Errorf("%w: got %#x, want %#x", ErrBadSignature, got, Signature)
	}
	return nil
}

// WritePermutation writes the N-entry permutation array.
func WritePermutation(w io.Writer, order binary.ByteOrder, perm []uint32) error {
	for _, p := range perm {
		if err := utils.WriteUint32(w, p, order); err != nil {
			return utils.WrapError("serialize: write permutation entry", err)
		}
	}
	return nil
}

// ReadPermutation reads an n-entry permutation array.
func ReadPermutation(r io.Reader, order binary.ByteOrder, n uint32) ([]uint32, error) {
	perm := make([]uint32, n)
	for i := range perm {
		v, err := utils.ReadUint32(r, order)
		if err != nil {
			return nil, wrapShortRead("permutation entry", err)
		}
		perm[i] = v
	}
	return perm, nil
}

// elementSize returns sizeof(T) in bytes, used to bounds-check the
// payload size a header claims before any vector buffer is allocated.
func elementSize[T traits.Element](zero T) int {
	switch any(zero).(type) {
	case float32:
		return 4
	default:
		return 8
	}
}

func writeScalar[T traits.Element](w io.Writer, order binary.ByteOrder, v T) error {
	switch any(v).(type) {
	case float32:
		return utils.WriteFloat32(w, float32(v), order)
	case float64:
		return utils.WriteFloat64(w, float64(v), order)
	default:
		return fmt.Errorf("serialize: unsupported element type %T", v)
	}
}

func readScalar[T traits.Element](r io.Reader, order binary.ByteOrder) (T, error) {
	var zero T
	switch any(zero).(type) {
	case float32:
		f, err := utils.ReadFloat32(r, order)
		return T(f), err
	case float64:
		f, err := utils.ReadFloat64(r, order)
		return T(f), err
	default:
		return zero, fmt.Errorf("serialize: unsupported element type %T", zero)
	}
}

// WriteVectors writes the N*D element payload in permuted order.
func WriteVectors[T traits.Element](w io.Writer, order binary.ByteOrder, vectors [][]T) error {
	for _, v := range vectors {
		for _, x := range v {
			if err := writeScalar(w, order, x); err != nil {
				return utils.WrapError("serialize: write vector payload", err)
			}
		}
	}
	return nil
}

// ReadVectors reads n vectors of dim elements each. The N*D*sizeof(T)
// payload size is checked for overflow and against utils.MaxPayloadBytes
// before the result slice is allocated, so a corrupt or adversarial
// (n, dim) pair read from an untrusted stream can't be used to request
// an overflowing or oversized allocation.
func ReadVectors[T traits.Element](r io.Reader, order binary.ByteOrder, n, dim uint32) ([][]T, error) {
	var zero T
	size, err := utils.CalculatePayloadSize(uint64(n), uint64(dim), uint64(elementSize(zero)))
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	if err := utils.ValidateBufferSize(size, utils.MaxPayloadBytes, "vector payload"); err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	vectors := make([][]T, n)
	for i := range vectors {
		v := make([]T, dim)
		for j := range v {
			x, err := readScalar[T](r, order)
			if err != nil {
				return nil, wrapShortRead("vector payload", err)
			}
			v[j] = x
		}
		vectors[i] = v
	}
	return vectors, nil
}

// WriteTree writes a built kd-tree's topology as a preorder walk, per
// spec.md §6 item 8. A single root-kind byte precedes the walk so
// ReadTree can bootstrap the recursion without a parent node to carry
// the leaf/branch flag — the wire format is otherwise exactly as
// specified.
func WriteTree[T traits.Element](w io.Writer, order binary.ByteOrder, t *kdnode.Tree[T]) error {
	if !t.HasRoot {
		return fmt.Errorf("serialize: cannot write a tree with no root")
	}
	rootKind := uint8(0)
	if t.Root.IsLeaf {
		rootKind = 1
	}
	if err := utils.WriteUint8(w, rootKind); err != nil {
		return utils.WrapError("serialize: write root kind", err)
	}
	return writeRef(w, order, t, t.Root)
}

func writeRef[T traits.Element](w io.Writer, order binary.ByteOrder, t *kdnode.Tree[T], ref kdnode.Ref) error {
	if ref.IsLeaf {
		leaf := t.Leaves[ref.Index]
		if err := utils.WriteUint32(w, leaf.FirstIndex, order); err != nil {
			return utils.WrapError("serialize: write leaf first index", err)
		}
		return utils.WriteUint32(w, leaf.NumElements, order)
	}

	node := t.Nodes[ref.Index]
	if err := writeScalar(w, order, node.SplitValue); err != nil {
		return utils.WrapError("serialize: write split value", err)
	}
	packed := node.Axis
	if node.LeftIsLeaf {
		packed |= 1 << 31
	}
	if node.RightIsLeaf {
		packed |= 1 << 30
	}
	if err := utils.WriteUint32(w, packed, order); err != nil {
		return utils.WrapError("serialize: write packed axis", err)
	}
	if err := writeRef(w, order, t, kdnode.Ref{IsLeaf: node.LeftIsLeaf, Index: node.Left}); err != nil {
		return err
	}
	return writeRef(w, order, t, kdnode.Ref{IsLeaf: node.RightIsLeaf, Index: node.Right})
}

// ReadTree reads a preorder-encoded kd-tree written by WriteTree.
func ReadTree[T traits.Element](r io.Reader, order binary.ByteOrder) (*kdnode.Tree[T], error) {
	rootKind, err := utils.ReadUint8(r)
	if err != nil {
		return nil, wrapShortRead("root kind", err)
	}
	t := &kdnode.Tree[T]{}
	ref, err := readRef[T](r, order, t, rootKind == 1)
	if err != nil {
		return nil, err
	}
	t.Root = ref
	t.HasRoot = true
	return t, nil
}

func readRef[T traits.Element](r io.Reader, order binary.ByteOrder, t *kdnode.Tree[T], isLeaf bool) (kdnode.Ref, error) {
	if isLeaf {
		first, err := utils.ReadUint32(r, order)
		if err != nil {
			return kdnode.Ref{}, wrapShortRead("leaf first index", err)
		}
		num, err := utils.ReadUint32(r, order)
		if err != nil {
			return kdnode.Ref{}, wrapShortRead("leaf element count", err)
		}
		idx := len(t.Leaves)
		t.Leaves = append(t.Leaves, kdnode.Leaf{FirstIndex: first, NumElements: num})
		return kdnode.Ref{IsLeaf: true, Index: int32(idx)}, nil
	}

	splitValue, err := readScalar[T](r, order)
	if err != nil {
		return kdnode.Ref{}, wrapShortRead("split value", err)
	}
	packed, err := utils.ReadUint32(r, order)
	if err != nil {
		return kdnode.Ref{}, wrapShortRead("packed axis", err)
	}
	leftIsLeaf := packed&(1<<31) != 0
	rightIsLeaf := packed&(1<<30) != 0
	axis := packed &^ (3 << 30)

	nodeIdx := len(t.Nodes)
	t.Nodes = append(t.Nodes, kdnode.Node[T]{})

	leftRef, err := readRef[T](r, order, t, leftIsLeaf)
	if err != nil {
		return kdnode.Ref{}, err
	}
	rightRef, err := readRef[T](r, order, t, rightIsLeaf)
	if err != nil {
		return kdnode.Ref{}, err
	}

	t.Nodes[nodeIdx] = kdnode.Node[T]{
		SplitValue:  splitValue,
		Axis:        axis,
		LeftIsLeaf:  leftIsLeaf,
		RightIsLeaf: rightIsLeaf,
		Left:        leftRef.Index,
		Right:       rightRef.Index,
	}
	return kdnode.Ref{IsLeaf: false, Index: int32(nodeIdx)}, nil
}
