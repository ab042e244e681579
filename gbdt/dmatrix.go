package gbdt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// DMatrix is a training or evaluation set: a dense feature matrix with one
// label per row.
type DMatrix struct {
	x            *mat.Dense
	labels       []float64
	featureNames []string
}

// NewDMatrix validates that X is non-empty, that there is exactly one label
// per row and that every value is finite. Neither argument is copied.
func NewDMatrix(X *mat.Dense, labels []float64) (*DMatrix, error) {
	if X == nil || X.IsEmpty() {
		return nil, errors.NewNumericError("NewDMatrix", "feature matrix is empty")
	}
	rows, cols := X.Dims()
	if len(labels) != rows {
		return nil, errors.NewDimensionError("NewDMatrix", rows, len(labels), 0)
	}
	for i, y := range labels {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return nil, errors.NewNumericError("NewDMatrix", fmt.Sprintf("label %d is not finite", i))
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := X.At(i, j); math.IsInf(v, 0) {
				return nil, errors.NewNumericError("NewDMatrix", fmt.Sprintf("feature (%d, %d) is infinite", i, j))
			}
		}
	}
	return &DMatrix{x: X, labels: labels}, nil
}

// SetFeatureNames attaches column names that are stored with the trained
// booster. names must have one entry per column.
func (d *DMatrix) SetFeatureNames(names []string) error {
	_, cols := d.x.Dims()
	if len(names) != cols {
		return errors.NewDimensionError("SetFeatureNames", cols, len(names), 1)
	}
	d.featureNames = append([]string(nil), names...)
	return nil
}

func (d *DMatrix) NumRows() int {
	r, _ := d.x.Dims()
	return r
}

func (d *DMatrix) NumCols() int {
	_, c := d.x.Dims()
	return c
}

// Labels returns the label slice backing the matrix.
func (d *DMatrix) Labels() []float64 { return d.labels }

// EvalSet pairs a DMatrix with the name used in evaluation logs.
type EvalSet struct {
	Name string
	Data *DMatrix
}
