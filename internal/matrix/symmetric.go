// Package matrix implements the packed symmetric matrix used to hold a
// Mahalanobis metric's inverse covariance, grounded on
// original_source/kche-tree/symmetric_matrix.h.
package matrix

import (
	"errors"
	"fmt"

	"github.com/scigolib/kdindex/internal/traits"
)

// ErrSingular is returned by Invert when a pivot is too close to zero to
// invert safely. Callers (the Mahalanobis metric constructor) fall back
// to inverting only the diagonal.
var ErrSingular = errors.New("matrix: singular or near-singular pivot")

// Symmetric is a dense, packed lower-triangular symmetric matrix of size
// n x n, storing (n*n+n)/2 entries. Index (r, c) and (c, r) alias the
// same backing slot.
type Symmetric[T traits.Element] struct {
	size int
	base []T // Flattened lower triangle, row-major within each row.
	rows []int
}

// New returns a size x size symmetric matrix initialised to the identity.
func New[T traits.Element](size int) *Symmetric[T] {
	m := &Symmetric[T]{size: size}
	m.resetToSize(size)
	for i := 0; i < size; i++ {
		m.Set(i, i, traits.One[T]())
	}
	return m
}

// NewZero returns a size x size symmetric matrix initialised to all zero.
func NewZero[T traits.Element](size int) *Symmetric[T] {
	m := &Symmetric[T]{size: size}
	m.resetToSize(size)
	return m
}

func (m *Symmetric[T]) resetToSize(size int) {
	m.size = size
	m.base = make([]T, (size*size+size)/2)
	m.rows = make([]int, size)
	offset := 0
	for r := 0; r < size; r++ {
		m.rows[r] = offset
		offset += r + 1
	}
}

// Size returns the matrix dimension.
func (m *Symmetric[T]) Size() int {
	return m.size
}

// index maps (r, c) to a flat offset into base, remapping r < c to (c, r).
func (m *Symmetric[T]) index(r, c int) int {
	if r < c {
		r, c = c, r
	}
	return m.rows[r] + c
}

// At returns the (r, c) entry.
func (m *Symmetric[T]) At(r, c int) T {
	return m.base[m.index(r, c)]
}

// Set assigns the (r, c) entry (and, implicitly, (c, r)).
func (m *Symmetric[T]) Set(r, c int, v T) {
	m.base[m.index(r, c)] = v
}

// IsDiagonal reports whether every off-diagonal entry is exactly zero.
func (m *Symmetric[T]) IsDiagonal() bool {
	zero := traits.Zero[T]()
	for r := 1; r < m.size; r++ {
		for c := 0; c < r; c++ {
			if m.At(r, c) != zero {
				return false
			}
		}
	}
	return true
}

// Invert performs in-place Gauss-Jordan elimination, assuming m is
// symmetric positive-definite. Returns ErrSingular if a pivot is too
// close to zero. The elimination runs on a copy and m is overwritten
// only once every pivot has succeeded, so on error m is left unchanged,
// matching the "build-temporary, swap on success" discipline used
// elsewhere in this library.
func (m *Symmetric[T]) Invert() error {
	n := m.size
	full := make([][]T, n)
	for i := range full {
		full[i] = make([]T, n)
		for j := 0; j < n; j++ {
			full[i][j] = m.At(i, j)
		}
	}

	aug := make([][]T, n)
	for i := range aug {
		aug[i] = make([]T, 2*n)
		copy(aug[i], full[i])
		aug[i][n+i] = traits.One[T]()
	}

	const pivotEpsilon = 1e-12

	for col := 0; col < n; col++ {
		pivotRow := col
		pivotAbs := traits.Abs(aug[col][col])
		for r := col + 1; r < n; r++ {
			if v := traits.Abs(aug[r][col]); v > pivotAbs {
				pivotAbs = v
				pivotRow = r
			}
		}
		if float64(pivotAbs) < pivotEpsilon {
			return fmt.Errorf("matrix: pivot at column %d too small: %w", col, ErrSingular)
		}
		aug[col], aug[pivotRow] = aug[pivotRow], aug[col]

		pivot := aug[col][col]
		for j := 0; j < 2*n; j++ {
			aug[col][j] /= pivot
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == traits.Zero[T]() {
				continue
			}
			for j := 0; j < 2*n; j++ {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}

	for r := 0; r < n; r++ {
		for c := 0; c <= r; c++ {
			m.Set(r, c, aug[r][n+c])
		}
	}
	return nil
}
