package serialize

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/scigolib/kdindex/internal/utils"
)

// Label bounds the types accepted as feature-vector labels in the
// labeled data set format: an integer class id or a string tag, the
// two label shapes labeled training sets need in practice.
type Label interface {
	~int32 | ~int64 | ~string
}

// WriteLabels writes n labels immediately after the vector payload, one
// entry at a time: a string label is a 32-bit byte length followed by
// its bytes; an int32 or int64 label is a fixed-width 32- or 64-bit
// value with no length prefix.
func WriteLabels[L Label](w io.Writer, order binary.ByteOrder, labels []L) error {
	for _, l := range labels {
		if err := writeLabel(w, order, l); err != nil {
			return fmt.Errorf("serialize: write label: %w", err)
		}
	}
	return nil
}

// ReadLabels reads n labels written by WriteLabels.
func ReadLabels[L Label](r io.Reader, order binary.ByteOrder, n uint32) ([]L, error) {
	labels := make([]L, n)
	for i := range labels {
		l, err := readLabel[L](r, order)
		if err != nil {
			return nil, wrapShortRead("label", err)
		}
		labels[i] = l
	}
	return labels, nil
}

func writeLabel[L Label](w io.Writer, order binary.ByteOrder, v L) error {
	switch val := any(v).(type) {
	case string:
		b := []byte(val)
		if err := utils.WriteUint32(w, uint32(len(b)), order); err != nil {
			return err
		}
		_, err := w.Write(b)
		return err
	case int32:
		return utils.WriteUint32(w, uint32(val), order)
	case int64:
		return utils.WriteUint64(w, uint64(val), order)
	default:
		return fmt.Errorf("serialize: unsupported label type %T", v)
	}
}

func readLabel[L Label](r io.Reader, order binary.ByteOrder) (L, error) {
	var zero L
	switch any(zero).(type) {
	case string:
		n, err := utils.ReadUint32(r, order)
		if err != nil {
			return zero, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return zero, err
		}
		return any(string(buf)).(L), nil
	case int32:
		v, err := utils.ReadUint32(r, order)
		if err != nil {
			return zero, err
		}
		return any(int32(v)).(L), nil
	case int64:
		v, err := utils.ReadUint64(r, order)
		if err != nil {
			return zero, err
		}
		return any(int64(v)).(L), nil
	default:
		return zero, fmt.Errorf("serialize: unsupported label type %T", zero)
	}
}
