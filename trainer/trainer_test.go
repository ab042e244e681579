package trainer

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/gbdt"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// housingFrame builds n rows where medv depends on rm and lstat only.
func housingFrame(t *testing.T, n int) *dataset.Frame {
	t.Helper()
	columns := append(append([]string{}, dataset.Schema...), dataset.Target)
	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, len(columns))
		for j := range dataset.Schema {
			row[j] = float64((i*(j+3))%17) / 4
		}
		rm := 4 + float64(i%9)*0.5
		lstat := 2 + float64(i%13)
		row[5] = rm
		row[12] = lstat
		row[13] = 10 + 4*rm - 0.5*lstat
		rows[i] = row
	}
	f, err := dataset.NewFrame(columns, rows)
	require.NoError(t, err)
	return f
}

func splitFrames(t *testing.T, n int) (xTrain, yTrain, xTest, yTest *dataset.Frame) {
	t.Helper()
	train, test, err := dataset.SplitTrainTest(housingFrame(t, n), 0.2, dataset.WithSeed(1))
	require.NoError(t, err)
	xTrain, yTrain, err = dataset.SplitFeaturesTarget(train)
	require.NoError(t, err)
	xTest, yTest, err = dataset.SplitFeaturesTarget(test)
	require.NoError(t, err)
	return
}

func TestTrainModel(t *testing.T) {
	xTrain, yTrain, xTest, yTest := splitFrames(t, 200)

	path := filepath.Join(t.TempDir(), "models", "model.bin")
	params := gbdt.DefaultParams()
	params.NumRounds = 40

	result, err := TrainModel(context.Background(), xTrain, yTrain, xTest, yTest, Config{
		ModelPath: path,
		Params:    params,
		LogEvery:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, path, result.ModelPath)
	assert.Equal(t, dataset.Schema, result.Booster.FeatureNames)

	assert.False(t, math.IsNaN(result.TestMetrics.RMSE))
	assert.Greater(t, result.TestMetrics.R2Score, 0.8)

	loaded, err := gbdt.LoadBooster(path)
	require.NoError(t, err)
	want, err := result.Booster.Predict(xTest.Dense())
	require.NoError(t, err)
	got, err := loaded.Predict(xTest.Dense())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTrainModel_Cancelled(t *testing.T) {
	xTrain, yTrain, xTest, yTest := splitFrames(t, 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "model.bin")
	_, err := TrainModel(ctx, xTrain, yTrain, xTest, yTest, Config{ModelPath: path, Params: gbdt.DefaultParams()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTrainModel_MismatchedTarget(t *testing.T) {
	xTrain, yTrain, xTest, _ := splitFrames(t, 50)
	_, err := TrainModel(context.Background(), xTrain, yTrain, xTest, yTrain, Config{
		ModelPath: filepath.Join(t.TempDir(), "model.bin"),
		Params:    gbdt.DefaultParams(),
	})
	var numErr *errors.NumericError
	assert.True(t, errors.As(err, &numErr))
}

func TestTrainModel_InvalidParams(t *testing.T) {
	xTrain, yTrain, xTest, yTest := splitFrames(t, 50)
	params := gbdt.DefaultParams()
	params.MaxDepth = 0

	_, err := TrainModel(context.Background(), xTrain, yTrain, xTest, yTest, Config{
		ModelPath: filepath.Join(t.TempDir(), "model.bin"),
		Params:    params,
	})
	var argErr *errors.InvalidArgumentError
	assert.True(t, errors.As(err, &argErr))
}

func TestPlotPredictions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "pred.png")
	require.NoError(t, PlotPredictions([]float64{10, 20, 30}, []float64{11, 19, 31}, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	assert.Error(t, PlotPredictions([]float64{1, 2}, []float64{1}, path))
	assert.Error(t, PlotPredictions(nil, nil, path))
}

func TestTrainModel_MaxTrainTime(t *testing.T) {
	xTrain, yTrain, xTest, yTest := splitFrames(t, 100)
	params := gbdt.DefaultParams()
	params.NumRounds = 30

	result, err := TrainModel(context.Background(), xTrain, yTrain, xTest, yTest, Config{
		ModelPath:    filepath.Join(t.TempDir(), "model.bin"),
		Params:       params,
		MaxTrainTime: time.Nanosecond,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Booster.NumTrees())

	_, err = os.Stat(result.ModelPath)
	assert.NoError(t, err, "a time-limited model is still saved")
}
