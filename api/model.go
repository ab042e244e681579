// Package api serves predictions from a trained booster over HTTP.
package api

import (
	"sync/atomic"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/gbdt"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// ModelHandle holds the booster used for inference. It is empty until a
// model is stored and may be swapped while requests are in flight.
type ModelHandle struct {
	p atomic.Pointer[gbdt.Booster]
}

// NewModelHandle returns a handle holding b, which may be nil.
func NewModelHandle(b *gbdt.Booster) *ModelHandle {
	h := &ModelHandle{}
	if b != nil {
		h.Store(b)
	}
	return h
}

// Load returns the current booster or nil.
func (h *ModelHandle) Load() *gbdt.Booster { return h.p.Load() }

// Store replaces the current booster.
func (h *ModelHandle) Store(b *gbdt.Booster) { h.p.Store(b) }

// LoadModel reads the booster at path and rejects it unless it scores rows
// laid out as dataset.Schema.
func LoadModel(path string) (*gbdt.Booster, error) {
	b, err := gbdt.LoadBooster(path)
	if err != nil {
		return nil, err
	}
	if err := checkModel(b); err != nil {
		return nil, errors.Wrapf(err, "model %s", path)
	}
	return b, nil
}

func checkModel(b *gbdt.Booster) error {
	if err := dataset.CheckFeatureNames(b.FeatureNames); err != nil {
		return err
	}
	if b.NumFeatures != len(dataset.Schema) {
		return errors.NewDimensionError("api.LoadModel", len(dataset.Schema), b.NumFeatures, 1)
	}
	return nil
}
