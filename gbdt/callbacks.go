package gbdt

import (
	"log/slog"
	"time"

	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// CallbackEnv is passed to callbacks after every boosting round.
type CallbackEnv struct {
	Round       int
	Elapsed     time.Duration
	EvalResults map[string]float64 // "<eval set name>-rmse" -> value

	// StopTraining may be set by a callback to end training after this round.
	StopTraining bool
}

// Callback is called after each round. A returned error aborts training.
type Callback func(env *CallbackEnv) error

// TrainOption configures Train.
type TrainOption func(*trainConfig)

type trainConfig struct {
	callbacks []Callback
}

// WithCallback registers callbacks that run after every round, in order.
func WithCallback(cbs ...Callback) TrainOption {
	return func(cfg *trainConfig) {
		cfg.callbacks = append(cfg.callbacks, cbs...)
	}
}

// RecordEvaluation appends every round's results to history.
func RecordEvaluation(history map[string][]float64) Callback {
	return func(env *CallbackEnv) error {
		for name, value := range env.EvalResults {
			history[name] = append(history[name], value)
		}
		return nil
	}
}

// LogEvaluation logs the evaluation results at info level every period rounds.
func LogEvaluation(period int) Callback {
	if period < 1 {
		period = 1
	}
	return func(env *CallbackEnv) error {
		if (env.Round+1)%period != 0 {
			return nil
		}
		args := []any{log.ComponentKey, "gbdt", log.RoundKey, env.Round}
		for name, value := range env.EvalResults {
			args = append(args, name, value)
		}
		slog.Info("Boosting progress", args...)
		return nil
	}
}

// TimeLimit stops training once the elapsed time exceeds d.
func TimeLimit(d time.Duration) Callback {
	return func(env *CallbackEnv) error {
		if env.Elapsed > d {
			env.StopTraining = true
		}
		return nil
	}
}
