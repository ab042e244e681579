package gbdt

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// Booster is a trained ensemble. It is not modified after Train returns, so
// Predict may be called from multiple goroutines.
type Booster struct {
	Params       Params   `json:"params"`
	BaseScore    float64  `json:"base_score"`
	NumFeatures  int      `json:"num_features"`
	FeatureNames []string `json:"feature_names,omitempty"`
	BestRound    int      `json:"best_round"` // -1 when early stopping was off
	Trees        []Tree   `json:"trees"`
}

// NumTrees returns the number of boosting rounds kept in the ensemble.
func (b *Booster) NumTrees() int { return len(b.Trees) }

// PredictRow predicts a single row of features.
func (b *Booster) PredictRow(features []float64) (float64, error) {
	if len(features) != b.NumFeatures {
		return 0, errors.NewDimensionError("Predict", b.NumFeatures, len(features), 1)
	}
	return b.predictRow(features), nil
}

func (b *Booster) predictRow(features []float64) float64 {
	sum := b.BaseScore
	for i := range b.Trees {
		sum += b.Trees[i].Predict(features)
	}
	return sum
}

// Predict returns one prediction per row of X. Large inputs are split
// across CPUs.
func (b *Booster) Predict(X mat.Matrix) ([]float64, error) {
	rows, cols := X.Dims()
	if cols != b.NumFeatures {
		return nil, errors.NewDimensionError("Predict", b.NumFeatures, cols, 1)
	}

	out := make([]float64, rows)
	parallelize(rows, parallelThreshold, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			out[i] = b.predictRow(row)
		}
	})
	return out, nil
}

// FeatureImportance returns the total split gain of each feature, normalised
// to sum to 1. A booster with no splits yields all zeros.
func (b *Booster) FeatureImportance() []float64 {
	importance := make([]float64, b.NumFeatures)
	var total float64
	for i := range b.Trees {
		for _, node := range b.Trees[i].Nodes {
			if node.IsLeaf() {
				continue
			}
			importance[node.SplitFeature] += node.Gain
			total += node.Gain
		}
	}
	if total > 0 {
		for j := range importance {
			importance[j] /= total
		}
	}
	return importance
}
