package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// HealthMessage is the body of GET /health.
const HealthMessage = "Health check OK"

// PredictResponse is the body of a successful POST /predict.
type PredictResponse struct {
	Prediction float64 `json:"prediction"`
}

// MaxBodyBytes caps the size of a /predict request body.
const MaxBodyBytes = 4 << 10

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, HealthMessage)
}

func (s *Server) predict(c *gin.Context) {
	record, err := decodeRecord(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		_ = c.Error(err)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	booster := s.handle.Load()
	if booster == nil {
		_ = c.Error(errors.ErrModelNotLoaded)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "model not loaded"})
		return
	}

	var prediction float64
	err = errors.SafeExecute("api.predict", func() error {
		var err error
		prediction, err = booster.PredictRow(record.Row())
		return err
	})
	if err != nil {
		_ = c.Error(err)
		slog.Error("Inference failed",
			log.ComponentKey, "api",
			log.OperationKey, log.OperationPredict,
			log.RequestIDKey, c.GetString(requestIDContextKey),
			log.ErrAttr(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "inference failed"})
		return
	}

	c.JSON(http.StatusOK, PredictResponse{Prediction: prediction})
}

// decodeRecord reads a JSON object holding every schema field as a number.
// Field names are matched case-insensitively, so the upper-case names of the
// published dataset ("CRIM", "LSTAT") are accepted too. Unknown fields are
// ignored. null counts as a wrong type. Anything after the object other
// than whitespace is rejected.
func decodeRecord(body io.Reader) (dataset.Record, error) {
	dec := json.NewDecoder(body)
	var obj map[string]json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		return dataset.Record{}, bodyError("must be a JSON object", err)
	}
	if obj == nil {
		return dataset.Record{}, errors.NewValidationError("body", "must be a JSON object", nil)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return dataset.Record{}, bodyError("must hold a single JSON object", err)
	}
	raw := make(map[string]json.RawMessage, len(obj))
	for k, v := range obj {
		raw[strings.ToLower(k)] = v
	}

	values := make(map[string]float64, len(dataset.Schema))
	for _, name := range dataset.Schema {
		field, ok := raw[name]
		if !ok {
			return dataset.Record{}, errors.NewValidationError(name, "missing field", nil)
		}
		var v float64
		if bytes.Equal(bytes.TrimSpace(field), []byte("null")) || json.Unmarshal(field, &v) != nil {
			return dataset.Record{}, errors.NewValidationError(name, fmt.Sprintf("must be a number, got %s", field), nil)
		}
		values[name] = v
	}
	return dataset.NewRecord(values)
}

// bodyError reports a malformed body. A body over MaxBodyBytes keeps its
// *http.MaxBytesError in the chain.
func bodyError(reason string, err error) error {
	if err == nil {
		return errors.NewValidationError("body", reason, nil)
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errors.Wrap(err, "body exceeds "+fmt.Sprint(MaxBodyBytes)+" bytes")
	}
	return errors.NewValidationError("body", reason+": "+err.Error(), nil)
}
