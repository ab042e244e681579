package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/houseprice/gbdt"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// LoadParams reads boosting hyperparameters from a YAML file. Keys that are
// absent keep their gbdt.DefaultParams value; unknown keys are rejected.
//
//	num_rounds: 300
//	learning_rate: 0.05
//	max_depth: 4
//	subsample: 0.8
//	early_stopping_rounds: 20
func LoadParams(path string) (gbdt.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gbdt.Params{}, errors.NewFilesystemError("read", path, err)
	}
	return DecodeParams(data, path)
}

// DecodeParams is LoadParams on an in-memory document. source names it in
// errors.
func DecodeParams(data []byte, source string) (gbdt.Params, error) {
	params := gbdt.DefaultParams()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&params); err != nil && err != io.EOF {
		line := 0
		var typeErr *yaml.TypeError
		if !errors.As(err, &typeErr) {
			// yaml.v3 reports syntax errors as "yaml: line N: ..."
			line = syntaxErrorLine(err.Error())
		}
		return gbdt.Params{}, errors.NewParseError(source, line, 0, err.Error())
	}

	if err := params.Validate(); err != nil {
		return gbdt.Params{}, err
	}
	return params, nil
}

func syntaxErrorLine(msg string) int {
	var line int
	if _, err := fmt.Sscanf(msg, "yaml: line %d:", &line); err != nil {
		return 0
	}
	return line
}
