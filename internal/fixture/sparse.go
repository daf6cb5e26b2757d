package fixture

import "gonum.org/v1/gonum/mat"

// CSR is a compressed sparse row matrix. It implements mat.Matrix so every
// estimator that reads features through the gonum interface can consume it,
// while estimators that declare supports_sparse may type-assert to reach the
// compressed representation directly.
type CSR struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []float64
}

var _ mat.Matrix = (*CSR)(nil)

// NewCSRFromDense compresses a dense matrix, dropping exact zeros.
func NewCSRFromDense(d mat.Matrix) *CSR {
	rows, cols := d.Dims()
	c := &CSR{
		rows:   rows,
		cols:   cols,
		indptr: make([]int, rows+1),
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := d.At(i, j); v != 0 {
				c.indices = append(c.indices, j)
				c.data = append(c.data, v)
			}
		}
		c.indptr[i+1] = len(c.data)
	}
	return c
}

// Dims returns the matrix dimensions.
func (c *CSR) Dims() (r, co int) { return c.rows, c.cols }

// At returns the element at (i, j), zero if not stored.
func (c *CSR) At(i, j int) float64 {
	if i < 0 || i >= c.rows || j < 0 || j >= c.cols {
		panic("fixture: CSR index out of range")
	}
	for k := c.indptr[i]; k < c.indptr[i+1]; k++ {
		if c.indices[k] == j {
			return c.data[k]
		}
	}
	return 0
}

// T returns the transpose view.
func (c *CSR) T() mat.Matrix { return mat.Transpose{Matrix: c} }

// NNZ returns the number of stored (non-zero) elements.
func (c *CSR) NNZ() int { return len(c.data) }

// ToDense expands the matrix into a dense gonum matrix.
func (c *CSR) ToDense() *mat.Dense {
	d := mat.NewDense(c.rows, c.cols, nil)
	for i := 0; i < c.rows; i++ {
		for k := c.indptr[i]; k < c.indptr[i+1]; k++ {
			d.Set(i, c.indices[k], c.data[k])
		}
	}
	return d
}

// LabeledFrame is a dense matrix with column labels, the harness's stand-in
// for labeled-frame containers. It behaves as a plain mat.Matrix; estimators
// that care about names may type-assert and read Columns.
type LabeledFrame struct {
	*mat.Dense
	columns []string
}

// NewLabeledFrame wraps a dense matrix with column labels.
// len(columns) must equal the matrix column count.
func NewLabeledFrame(d *mat.Dense, columns []string) *LabeledFrame {
	_, cols := d.Dims()
	if len(columns) != cols {
		panic("fixture: column label count does not match matrix")
	}
	return &LabeledFrame{Dense: d, columns: columns}
}

// Columns returns the column labels.
func (f *LabeledFrame) Columns() []string { return f.columns }
