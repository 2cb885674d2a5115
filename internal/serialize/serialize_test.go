package serialize

import (
	"bytes"
	"errors"
	"testing"

	"github.com/scigolib/kdindex/internal/kdnode"
	"github.com/scigolib/kdindex/internal/utils"
)

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader[float64](&buf, 3, 10); err != nil {
		t.Fatalf("WriteHeader returned error: %v", err)
	}
	header, order, err := ReadHeader[float64](&buf)
	if err != nil {
		t.Fatalf("ReadHeader returned error: %v", err)
	}
	if header.Dim != 3 || header.N != 10 {
		t.Errorf("ReadHeader() = {Dim: %d, N: %d}, want {3, 10}", header.Dim, header.N)
	}
	if order != utils.HostEndianness() {
		t.Error("ReadHeader returned an unexpected byte order")
	}
}

func TestHeaderRejectsTypeMismatch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader[float32](&buf, 2, 5); err != nil {
		t.Fatalf("WriteHeader returned error: %v", err)
	}
	_, _, err := ReadHeader[float64](&buf)
	if !errors.Is(err, ErrHeaderMismatch) {
		t.Errorf("ReadHeader with float32 stream read as float64 returned %v, want ErrHeaderMismatch", err)
	}
}

func TestHeaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader[float64](&buf, 2, 5); err != nil {
		t.Fatalf("WriteHeader returned error: %v", err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:3])
	_, _, err := ReadHeader[float64](truncated)
	if !errors.Is(err, ErrTruncatedStream) {
		t.Errorf("ReadHeader on a truncated stream returned %v, want ErrTruncatedStream", err)
	}
}

func TestHeaderRejectsZeroElementCount(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader[float64](&buf, 2, 0); err != nil {
		t.Fatalf("WriteHeader returned error: %v", err)
	}
	_, _, err := ReadHeader[float64](&buf)
	if !errors.Is(err, ErrHeaderMismatch) {
		t.Errorf("ReadHeader with N=0 returned %v, want ErrHeaderMismatch", err)
	}
}

func TestHeaderRejectsImplausibleDimensionCount(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHeader[float64](&buf, utils.MaxDimensions+1, 5); err != nil {
		t.Fatalf("WriteHeader returned error: %v", err)
	}
	_, _, err := ReadHeader[float64](&buf)
	if !errors.Is(err, ErrHeaderMismatch) {
		t.Errorf("ReadHeader with an implausible dimension count returned %v, want ErrHeaderMismatch", err)
	}
}

func TestReadVectorsRejectsOverflowingPayload(t *testing.T) {
	order := utils.HostEndianness()
	// n * dim * sizeof(float64) overflows uint64, so this must be
	// rejected before any allocation is attempted.
	_, err := ReadVectors[float64](bytes.NewReader(nil), order, ^uint32(0), ^uint32(0))
	if err == nil {
		t.Error("ReadVectors with an overflowing n*dim returned nil error")
	}
}

func TestTrailerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	order := utils.HostEndianness()
	if err := WriteTrailer(&buf, order); err != nil {
		t.Fatalf("WriteTrailer returned error: %v", err)
	}
	if err := ReadTrailer(&buf, order); err != nil {
		t.Errorf("ReadTrailer returned error: %v", err)
	}
}

func TestTrailerBadSignature(t *testing.T) {
	order := utils.HostEndianness()
	buf := bytes.NewReader([]byte{0xBE, 0xEF})
	if err := ReadTrailer(buf, order); !errors.Is(err, ErrBadSignature) {
		t.Errorf("ReadTrailer with a bad signature returned %v, want ErrBadSignature", err)
	}
}

func TestPermutationRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	order := utils.HostEndianness()
	perm := []uint32{3, 1, 0, 2}
	if err := WritePermutation(&buf, order, perm); err != nil {
		t.Fatalf("WritePermutation returned error: %v", err)
	}
	got, err := ReadPermutation(&buf, order, uint32(len(perm)))
	if err != nil {
		t.Fatalf("ReadPermutation returned error: %v", err)
	}
	for i := range perm {
		if got[i] != perm[i] {
			t.Errorf("ReadPermutation()[%d] = %d, want %d", i, got[i], perm[i])
		}
	}
}

func TestVectorsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	order := utils.HostEndianness()
	vectors := [][]float64{{1, 2, 3}, {4, 5, 6}}
	if err := WriteVectors(&buf, order, vectors); err != nil {
		t.Fatalf("WriteVectors returned error: %v", err)
	}
	got, err := ReadVectors[float64](&buf, order, 2, 3)
	if err != nil {
		t.Fatalf("ReadVectors returned error: %v", err)
	}
	for i := range vectors {
		for j := range vectors[i] {
			if got[i][j] != vectors[i][j] {
				t.Errorf("ReadVectors()[%d][%d] = %v, want %v", i, j, got[i][j], vectors[i][j])
			}
		}
	}
}

func buildTinyTree(t *testing.T) *kdnode.Tree[float64] {
	t.Helper()
	vectors := [][]float64{{0, 0}, {1, 1}, {2, 2}, {3, 3}}
	tree, _ := kdnode.Build(vectors, 2, 2)
	return tree
}

func TestTreeRoundTrip(t *testing.T) {
	tree := buildTinyTree(t)
	var buf bytes.Buffer
	order := utils.HostEndianness()
	if err := WriteTree(&buf, order, tree); err != nil {
		t.Fatalf("WriteTree returned error: %v", err)
	}
	got, err := ReadTree[float64](&buf, order)
	if err != nil {
		t.Fatalf("ReadTree returned error: %v", err)
	}
	if got.HasRoot != tree.HasRoot || got.Root.IsLeaf != tree.Root.IsLeaf {
		t.Fatalf("ReadTree root = %+v, want %+v", got.Root, tree.Root)
	}
	if len(got.Nodes) != len(tree.Nodes) || len(got.Leaves) != len(tree.Leaves) {
		t.Errorf("ReadTree arena sizes = (%d nodes, %d leaves), want (%d, %d)",
			len(got.Nodes), len(got.Leaves), len(tree.Nodes), len(tree.Leaves))
	}
	for i := range tree.Nodes {
		if got.Nodes[i].Axis != tree.Nodes[i].Axis || got.Nodes[i].SplitValue != tree.Nodes[i].SplitValue {
			t.Errorf("ReadTree Nodes[%d] = %+v, want %+v", i, got.Nodes[i], tree.Nodes[i])
		}
	}
}

func TestWriteTreeRejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTree(&buf, utils.HostEndianness(), &kdnode.Tree[float64]{})
	if err == nil {
		t.Error("WriteTree on a tree with no root returned nil error")
	}
}

func TestElementName(t *testing.T) {
	if got := ElementName[float64](); got != "float64" {
		t.Errorf("ElementName[float64]() = %q, want \"float64\"", got)
	}
	if got := ElementName[float32](); got != "float32" {
		t.Errorf("ElementName[float32]() = %q, want \"float32\"", got)
	}
}
