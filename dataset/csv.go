package dataset

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// LoadCSV reads a comma-separated file with a header row into a Frame.
func LoadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFilesystemError("open", path, err)
	}
	defer file.Close()

	frame, err := ReadCSV(file, path)
	if err != nil {
		return nil, err
	}

	logger := slog.With(log.ComponentKey, "dataset", log.OperationKey, log.OperationLoad)
	logger.Info("Loaded dataset",
		log.PathKey, path,
		log.SamplesKey, frame.NumRows(),
		"data.columns", frame.NumCols(),
	)
	logger.Debug("First 5 rows", "preview", frame.Head(5))

	return frame, nil
}

// ReadCSV parses CSV from r. source names the input in error messages.
//
// Header names are lower-cased and trimmed so that "CRIM", "crim" and
// " crim" all address the same column. Every data cell must be a float.
func ReadCSV(r io.Reader, source string) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewParseError(source, 0, 0, "empty input")
	}
	if err != nil {
		return nil, csvError(source, err)
	}

	columns := make([]string, len(header))
	for j, h := range header {
		columns[j] = strings.ToLower(strings.Trim(strings.TrimSpace(h), `"`))
		if columns[j] == "" {
			return nil, errors.NewParseError(source, 1, j+1, "empty column name")
		}
	}

	var rows [][]float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(source, err)
		}

		line, _ := reader.FieldPos(0)
		row := make([]float64, len(record))
		for j, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, errors.NewParseError(source, line, j+1, "invalid number "+strconv.Quote(cell))
			}
			row[j] = v
		}
		rows = append(rows, row)
	}

	frame, err := NewFrame(columns, rows)
	if err != nil {
		return nil, errors.NewParseError(source, 1, 0, err.Error())
	}
	return frame, nil
}

func csvError(source string, err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return errors.NewParseError(source, perr.Line, perr.Column, perr.Err.Error())
	}
	return errors.NewParseError(source, 0, 0, err.Error())
}
