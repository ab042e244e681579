package gbdt

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// objective defines the loss being boosted.
type objective interface {
	// GradHess returns the first and second derivative of the loss with
	// respect to the prediction.
	GradHess(prediction, label float64) (float64, float64)

	// InitScore returns the constant prediction that minimises the loss.
	InitScore(labels []float64) float64

	Name() string
}

func newObjective(p Params) (objective, error) {
	switch p.Objective {
	case SquaredError, "":
		return squaredError{}, nil
	case AbsoluteError:
		return absoluteError{}, nil
	case PseudoHuberError:
		if p.HuberSlope <= 0 {
			return nil, errors.NewInvalidArgumentError("huber_slope", "must be positive", p.HuberSlope)
		}
		return pseudoHuber{delta: p.HuberSlope}, nil
	}
	return nil, errors.NewInvalidArgumentError("objective", "unsupported objective", p.Objective)
}

// squaredError is 0.5*(pred-label)^2.
type squaredError struct{}

func (squaredError) GradHess(prediction, label float64) (float64, float64) {
	return prediction - label, 1.0
}

func (squaredError) InitScore(labels []float64) float64 {
	if len(labels) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, v := range labels {
		sum += v
	}
	return sum / float64(len(labels))
}

func (squaredError) Name() string { return SquaredError }

// absoluteError is |pred-label|. Its hessian is zero almost everywhere, so a
// unit hessian is used and leaves end up with a scaled sign-of-residual step.
type absoluteError struct{}

func (absoluteError) GradHess(prediction, label float64) (float64, float64) {
	diff := prediction - label
	switch {
	case diff > 0:
		return 1.0, 1.0
	case diff < 0:
		return -1.0, 1.0
	}
	return 0.0, 1.0
}

func (absoluteError) InitScore(labels []float64) float64 {
	return median(labels)
}

func (absoluteError) Name() string { return AbsoluteError }

// pseudoHuber is delta^2*(sqrt(1+(r/delta)^2)-1), smooth everywhere.
type pseudoHuber struct {
	delta float64
}

func (o pseudoHuber) GradHess(prediction, label float64) (float64, float64) {
	r := prediction - label
	scale := 1 + (r/o.delta)*(r/o.delta)
	sqrtScale := math.Sqrt(scale)
	return r / sqrtScale, 1 / (scale * sqrtScale)
}

func (o pseudoHuber) InitScore(labels []float64) float64 {
	return median(labels)
}

func (pseudoHuber) Name() string { return PseudoHuberError }

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
