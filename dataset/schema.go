// Package dataset fetches the Boston housing CSV, parses it into an in-memory
// Frame and splits it into the train/test and feature/target views the
// trainer consumes.
//
// Schema is the single ordered list of predictor columns. The splitter
// projects features in this order and the prediction service builds its
// input rows from it, so a model never sees columns in a different order
// than it was trained on.
package dataset

import (
	"math"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// Schema lists the predictor columns in the order the model is trained on.
var Schema = []string{
	"crim",    // per capita crime rate by town
	"zn",      // proportion of residential land zoned for large lots
	"indus",   // proportion of non-retail business acres
	"chas",    // 1 if the tract bounds the river, 0 otherwise
	"nox",     // nitric oxide concentration
	"rm",      // average number of rooms per dwelling
	"age",     // proportion of owner-occupied units built before 1940
	"dis",     // weighted distance to five employment centres
	"rad",     // index of accessibility to radial highways
	"tax",     // full-value property tax rate per $10,000
	"ptratio", // pupil-teacher ratio by town
	"b",       // demographic proportion index
	"lstat",   // percentage of lower status population
}

// Target is the column the model predicts: median home value in $1000s.
const Target = "medv"

// Record is one set of predictor values. JSON names match Schema.
type Record struct {
	Crim    float64 `json:"crim"`
	Zn      float64 `json:"zn"`
	Indus   float64 `json:"indus"`
	Chas    float64 `json:"chas"`
	Nox     float64 `json:"nox"`
	Rm      float64 `json:"rm"`
	Age     float64 `json:"age"`
	Dis     float64 `json:"dis"`
	Rad     float64 `json:"rad"`
	Tax     float64 `json:"tax"`
	Ptratio float64 `json:"ptratio"`
	B       float64 `json:"b"`
	Lstat   float64 `json:"lstat"`
}

func (r *Record) field(name string) *float64 {
	switch name {
	case "crim":
		return &r.Crim
	case "zn":
		return &r.Zn
	case "indus":
		return &r.Indus
	case "chas":
		return &r.Chas
	case "nox":
		return &r.Nox
	case "rm":
		return &r.Rm
	case "age":
		return &r.Age
	case "dis":
		return &r.Dis
	case "rad":
		return &r.Rad
	case "tax":
		return &r.Tax
	case "ptratio":
		return &r.Ptratio
	case "b":
		return &r.B
	case "lstat":
		return &r.Lstat
	}
	return nil
}

// Row returns the predictor values in Schema order.
func (r Record) Row() []float64 {
	row := make([]float64, len(Schema))
	for i, name := range Schema {
		row[i] = *r.field(name)
	}
	return row
}

// NewRecord builds a Record from named values. Every Schema column must be
// present and finite; extra keys are ignored.
func NewRecord(values map[string]float64) (Record, error) {
	var r Record
	for _, name := range Schema {
		v, ok := values[name]
		if !ok {
			return Record{}, errors.NewValidationError(name, "field is required", nil)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Record{}, errors.NewValidationError(name, "must be a finite number", v)
		}
		*r.field(name) = v
	}
	return r, nil
}

// CheckFeatureNames returns a SchemaError unless names is empty or equal to
// Schema, position by position. Models saved without feature names pass.
func CheckFeatureNames(names []string) error {
	if len(names) == 0 {
		return nil
	}
	for i, name := range Schema {
		if i >= len(names) || names[i] != name {
			return errors.NewSchemaError(name, names)
		}
	}
	if len(names) > len(Schema) {
		return errors.NewSchemaError(names[len(Schema)], Schema)
	}
	return nil
}
