package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

func TestRegressionMetrics(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		wantMSE float64
		wantMAE float64
		wantR2  float64
	}{
		{
			name:    "perfect prediction",
			yTrue:   []float64{1, 2, 3, 4, 5},
			yPred:   []float64{1, 2, 3, 4, 5},
			wantMSE: 0,
			wantMAE: 0,
			wantR2:  1,
		},
		{
			name:    "simple case",
			yTrue:   []float64{1, 2, 3, 4},
			yPred:   []float64{1.5, 2.5, 2.5, 3.5},
			wantMSE: 0.25,
			wantMAE: 0.5,
			wantR2:  0.8, // 1 - 1.0/5.0
		},
		{
			name:    "larger errors",
			yTrue:   []float64{10, 20, 30},
			yPred:   []float64{12, 18, 33},
			wantMSE: 17.0 / 3.0,
			wantMAE: 7.0 / 3.0,
			wantR2:  1 - 17.0/200.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			yPred := mat.NewVecDense(len(tt.yPred), tt.yPred)

			mse, err := MSE(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantMSE, mse, 1e-10)

			rmse, err := RMSE(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, math.Sqrt(tt.wantMSE), rmse, 1e-10)

			mae, err := MAE(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantMAE, mae, 1e-10)

			r2, err := R2Score(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantR2, r2, 1e-10)
		})
	}
}

func TestMetricErrors(t *testing.T) {
	fns := map[string]func(a, b *mat.VecDense) (float64, error){
		"MSE":     MSE,
		"RMSE":    RMSE,
		"MAE":     MAE,
		"R2Score": R2Score,
	}
	for name, fn := range fns {
		t.Run(name+"/dimension mismatch", func(t *testing.T) {
			_, err := fn(mat.NewVecDense(3, []float64{1, 2, 3}), mat.NewVecDense(2, []float64{1, 2}))
			var numErr *errors.NumericError
			assert.True(t, errors.As(err, &numErr))
		})
		t.Run(name+"/empty", func(t *testing.T) {
			_, err := fn(&mat.VecDense{}, &mat.VecDense{})
			assert.Error(t, err)
		})
	}
}

func TestR2Score_ConstantTarget(t *testing.T) {
	y := mat.NewVecDense(3, []float64{2, 2, 2})
	_, err := R2Score(y, mat.NewVecDense(3, []float64{1, 2, 3}))
	var numErr *errors.NumericError
	assert.True(t, errors.As(err, &numErr))
}

func TestEvaluate(t *testing.T) {
	r, err := Evaluate([]float64{1, 2, 3, 4}, []float64{1.5, 2.5, 2.5, 3.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r.RMSE, 1e-10)
	assert.InDelta(t, 0.5, r.MAE, 1e-10)
	assert.InDelta(t, 0.8, r.R2Score, 1e-10)

	_, err = Evaluate([]float64{1, 2}, []float64{1})
	assert.Error(t, err)
	_, err = Evaluate(nil, nil)
	assert.Error(t, err)
}
