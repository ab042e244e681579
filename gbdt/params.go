package gbdt

import (
	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// Objective names accepted in Params.Objective.
const (
	SquaredError     = "reg:squarederror"
	AbsoluteError    = "reg:absoluteerror"
	PseudoHuberError = "reg:pseudohubererror"
)

// Params contains the boosting hyperparameters. The zero value is not
// usable; start from DefaultParams and override fields.
type Params struct {
	// Basic parameters
	NumRounds    int     `json:"num_rounds" yaml:"num_rounds"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	MaxDepth     int     `json:"max_depth" yaml:"max_depth"`

	// Regularization
	MinChildWeight float64 `json:"min_child_weight" yaml:"min_child_weight"`
	Lambda         float64 `json:"lambda" yaml:"lambda"`
	Alpha          float64 `json:"alpha" yaml:"alpha"`
	Gamma          float64 `json:"gamma" yaml:"gamma"`

	// Sampling
	Subsample       float64 `json:"subsample" yaml:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree" yaml:"colsample_bytree"`

	// Objective
	Objective  string  `json:"objective" yaml:"objective"`
	HuberSlope float64 `json:"huber_slope" yaml:"huber_slope"` // delta of reg:pseudohubererror
	BaseScore  float64 `json:"base_score" yaml:"base_score"`   // 0 means derive from the labels

	// Other
	EarlyStoppingRounds int    `json:"early_stopping_rounds" yaml:"early_stopping_rounds"`
	Seed                uint64 `json:"seed" yaml:"seed"`
	Verbosity           int    `json:"verbosity" yaml:"verbosity"` // >0 logs every round at info
}

// DefaultParams returns the conventional gradient boosting defaults:
// 100 rounds, eta 0.3, depth 6, L2 lambda 1, squared error.
func DefaultParams() Params {
	return Params{
		NumRounds:       100,
		LearningRate:    0.3,
		MaxDepth:        6,
		MinChildWeight:  1,
		Lambda:          1,
		Alpha:           0,
		Gamma:           0,
		Subsample:       1,
		ColsampleByTree: 1,
		Objective:       SquaredError,
		HuberSlope:      1,
	}
}

// Validate reports the first out-of-range parameter.
func (p Params) Validate() error {
	switch {
	case p.NumRounds < 1:
		return errors.NewInvalidArgumentError("num_rounds", "must be at least 1", p.NumRounds)
	case p.LearningRate <= 0 || p.LearningRate > 1:
		return errors.NewInvalidArgumentError("learning_rate", "must be in (0, 1]", p.LearningRate)
	case p.MaxDepth < 1:
		return errors.NewInvalidArgumentError("max_depth", "must be at least 1", p.MaxDepth)
	case p.MinChildWeight < 0:
		return errors.NewInvalidArgumentError("min_child_weight", "must not be negative", p.MinChildWeight)
	case p.Lambda < 0:
		return errors.NewInvalidArgumentError("lambda", "must not be negative", p.Lambda)
	case p.Alpha < 0:
		return errors.NewInvalidArgumentError("alpha", "must not be negative", p.Alpha)
	case p.Gamma < 0:
		return errors.NewInvalidArgumentError("gamma", "must not be negative", p.Gamma)
	case p.Subsample <= 0 || p.Subsample > 1:
		return errors.NewInvalidArgumentError("subsample", "must be in (0, 1]", p.Subsample)
	case p.ColsampleByTree <= 0 || p.ColsampleByTree > 1:
		return errors.NewInvalidArgumentError("colsample_bytree", "must be in (0, 1]", p.ColsampleByTree)
	case p.EarlyStoppingRounds < 0:
		return errors.NewInvalidArgumentError("early_stopping_rounds", "must not be negative", p.EarlyStoppingRounds)
	case p.Verbosity < 0:
		return errors.NewInvalidArgumentError("verbosity", "must not be negative", p.Verbosity)
	}
	if _, err := newObjective(p); err != nil {
		return err
	}
	return nil
}
