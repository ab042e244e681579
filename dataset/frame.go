package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Frame is an immutable numeric table: named columns over row-major values.
// Operations that reshape a Frame return a new one.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]float64
}

// NewFrame validates that every row has one value per column and that column
// names are unique. rows is not copied.
func NewFrame(columns []string, rows [][]float64) (*Frame, error) {
	if len(columns) == 0 {
		return nil, errors.NewInvalidArgumentError("columns", "at least one column is required", len(columns))
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, errors.NewInvalidArgumentError("columns", "duplicate column name", c)
		}
		index[c] = i
	}
	for _, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NewDimensionError("NewFrame", len(columns), len(row), 1)
		}
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Frame{columns: cols, index: index, rows: rows}, nil
}

// Columns returns a copy of the column names.
func (f *Frame) Columns() []string {
	cols := make([]string, len(f.columns))
	copy(cols, f.columns)
	return cols
}

func (f *Frame) NumRows() int { return len(f.rows) }

func (f *Frame) NumCols() int { return len(f.columns) }

// Row returns a copy of row i.
func (f *Frame) Row(i int) []float64 {
	row := make([]float64, len(f.rows[i]))
	copy(row, f.rows[i])
	return row
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, error) {
	j, ok := f.index[name]
	if !ok {
		return nil, errors.NewSchemaError(name, f.Columns())
	}
	out := make([]float64, len(f.rows))
	for i, row := range f.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Select projects the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	idx := make([]int, len(names))
	for k, name := range names {
		j, ok := f.index[name]
		if !ok {
			return nil, errors.NewSchemaError(name, f.Columns())
		}
		idx[k] = j
	}

	rows := make([][]float64, len(f.rows))
	for i, row := range f.rows {
		projected := make([]float64, len(idx))
		for k, j := range idx {
			projected[k] = row[j]
		}
		rows[i] = projected
	}
	return NewFrame(names, rows)
}

// Take returns the rows at the given indices, in that order. Row slices are
// shared with f.
func (f *Frame) Take(indices []int) *Frame {
	rows := make([][]float64, len(indices))
	for k, i := range indices {
		rows[k] = f.rows[i]
	}
	return &Frame{columns: f.columns, index: f.index, rows: rows}
}

// Dense converts the frame to a row-major gonum matrix. An empty frame
// yields nil since gonum does not allow zero-sized matrices.
func (f *Frame) Dense() *mat.Dense {
	if len(f.rows) == 0 {
		return nil
	}
	data := make([]float64, 0, len(f.rows)*len(f.columns))
	for _, row := range f.rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(f.rows), len(f.columns), data)
}

// Head renders the first n rows as an aligned text table.
func (f *Frame) Head(n int) string {
	if n > len(f.rows) {
		n = len(f.rows)
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(f.columns, "\t"))
	for _, row := range f.rows[:n] {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()
	return sb.String()
}
