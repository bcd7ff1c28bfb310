package poly

import (
	"github.com/symgolic/symgolic/expr"
)

// SolveLinear solves A*x = b exactly by Gaussian elimination with partial
// pivoting on the first non-zero entry. A is row-major and need not be
// square; ok is false when the system is inconsistent or underdetermined.
func SolveLinear(a [][]*expr.Number, b []*expr.Number) ([]*expr.Number, bool) {
	rows := len(a)
	if rows == 0 || rows != len(b) {
		return nil, false
	}
	cols := len(a[0])

	m := make([][]*expr.Number, rows)
	for i, row := range a {
		if len(row) != cols {
			return nil, false
		}
		m[i] = make([]*expr.Number, cols+1)
		copy(m[i], row)
		m[i][cols] = b[i]
	}

	pivotRow := 0
	pivotCols := make([]int, 0, cols)
	for col := 0; col < cols && pivotRow < rows; col++ {
		sel := -1
		for r := pivotRow; r < rows; r++ {
			if !m[r][col].IsZero() {
				sel = r
				break
			}
		}
		if sel < 0 {
			continue
		}
		m[pivotRow], m[sel] = m[sel], m[pivotRow]
		inv, err := m[pivotRow][col].Inv()
		if err != nil {
			return nil, false
		}
		for c := col; c <= cols; c++ {
			m[pivotRow][c] = m[pivotRow][c].Mul(inv)
		}
		for r := 0; r < rows; r++ {
			if r == pivotRow || m[r][col].IsZero() {
				continue
			}
			f := m[r][col]
			for c := col; c <= cols; c++ {
				m[r][c] = m[r][c].Sub(f.Mul(m[pivotRow][c]))
			}
		}
		pivotCols = append(pivotCols, col)
		pivotRow++
	}

	// a zero row with non-zero rhs means no solution
	for r := pivotRow; r < rows; r++ {
		if !m[r][cols].IsZero() {
			return nil, false
		}
	}
	if len(pivotCols) < cols {
		return nil, false
	}

	x := make([]*expr.Number, cols)
	for i, col := range pivotCols {
		x[col] = m[i][cols]
	}
	return x, true
}
