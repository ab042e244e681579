package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

const bostonHeader = `"crim","zn","indus","chas","nox","rm","age","dis","rad","tax","ptratio","b","lstat","medv"`

// bostonSample returns n synthetic rows shaped like the Boston housing CSV.
func bostonSample(n int) string {
	var sb strings.Builder
	sb.WriteString(bostonHeader + "\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%g,18,2.31,%d,0.538,%g,65.2,4.09,1,296,15.3,396.9,%g,%g\n",
			0.01*float64(i), i%2, 5+float64(i%5)*0.5, 4+float64(i%7), 20+float64(i%11))
	}
	return sb.String()
}

func sampleFrame(t *testing.T, n int) *Frame {
	t.Helper()
	f, err := ReadCSV(strings.NewReader(bostonSample(n)), "sample")
	require.NoError(t, err)
	return f
}

func TestReadCSV(t *testing.T) {
	f := sampleFrame(t, 10)

	assert.Equal(t, 10, f.NumRows())
	assert.Equal(t, 14, f.NumCols())
	assert.Equal(t, append(append([]string{}, Schema...), Target), f.Columns())

	rm, err := f.Column("rm")
	require.NoError(t, err)
	assert.Equal(t, 5.5, rm[1])
}

func TestReadCSV_NormalisesHeader(t *testing.T) {
	f, err := ReadCSV(strings.NewReader("CRIM, Medv\n1,2\n"), "upper")
	require.NoError(t, err)
	assert.Equal(t, []string{"crim", "medv"}, f.Columns())
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{name: "empty input", input: "", wantLine: 0},
		{name: "non numeric cell", input: "a,b\n1,2\n3,x\n", wantLine: 3},
		{name: "ragged row", input: "a,b\n1,2\n3\n", wantLine: 3},
		{name: "duplicate column", input: "a,a\n1,2\n", wantLine: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), "bad.csv")
			require.Error(t, err)

			var perr *errors.ParseError
			require.True(t, errors.As(err, &perr), "got %T: %v", err, err)
			assert.Equal(t, "bad.csv", perr.Source)
			assert.Equal(t, tt.wantLine, perr.Line)
		})
	}
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	var fsErr *errors.FilesystemError
	assert.True(t, errors.As(err, &fsErr))
}

func TestSplitTrainTest_Partition(t *testing.T) {
	const n = 101
	frame, err := NewFrame([]string{"id"}, func() [][]float64 {
		rows := make([][]float64, n)
		for i := range rows {
			rows[i] = []float64{float64(i)}
		}
		return rows
	}())
	require.NoError(t, err)

	for _, fraction := range []float64{0.01, 0.2, 0.25, 0.5, 0.77, 0.99} {
		t.Run(fmt.Sprintf("fraction=%v", fraction), func(t *testing.T) {
			train, test, err := SplitTrainTest(frame, fraction, WithSeed(7))
			require.NoError(t, err)

			assert.Equal(t, int(fraction*float64(n)), test.NumRows())
			assert.Equal(t, n, train.NumRows()+test.NumRows())

			seen := make(map[float64]bool, n)
			for _, part := range []*Frame{train, test} {
				ids, err := part.Column("id")
				require.NoError(t, err)
				for _, id := range ids {
					assert.False(t, seen[id], "row %v appears twice", id)
					seen[id] = true
				}
			}
			assert.Len(t, seen, n)
		})
	}
}

func TestSplitTrainTest_Seeded(t *testing.T) {
	frame := sampleFrame(t, 50)

	_, a, err := SplitTrainTest(frame, 0.2, WithSeed(42))
	require.NoError(t, err)
	_, b, err := SplitTrainTest(frame, 0.2, WithSeed(42))
	require.NoError(t, err)

	for i := 0; i < a.NumRows(); i++ {
		assert.Equal(t, a.Row(i), b.Row(i))
	}
}

func TestSplitTrainTest_RejectsFraction(t *testing.T) {
	frame := sampleFrame(t, 10)
	for _, fraction := range []float64{0.0, 1.0, -0.1, 1.5} {
		_, _, err := SplitTrainTest(frame, fraction)
		var argErr *errors.InvalidArgumentError
		assert.True(t, errors.As(err, &argErr), "fraction %v should be rejected", fraction)
	}
}

func TestSplitFeaturesTarget(t *testing.T) {
	frame := sampleFrame(t, 5)

	features, target, err := SplitFeaturesTarget(frame)
	require.NoError(t, err)
	assert.Equal(t, Schema, features.Columns())
	assert.Equal(t, []string{Target}, target.Columns())
	assert.Equal(t, 5, features.NumRows())

	x := features.Dense()
	r, c := x.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, len(Schema), c)
	assert.Equal(t, frame.Row(2)[5], x.At(2, 5))
}

func TestSplitFeaturesTarget_MissingColumn(t *testing.T) {
	for _, drop := range []string{"lstat", "chas", Target} {
		t.Run(drop, func(t *testing.T) {
			full := sampleFrame(t, 3)
			var keep []string
			for _, c := range full.Columns() {
				if c != drop {
					keep = append(keep, c)
				}
			}
			partial, err := full.Select(keep...)
			require.NoError(t, err)

			_, _, err = SplitFeaturesTarget(partial)
			var schemaErr *errors.SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, drop, schemaErr.Column)
		})
	}
}

func TestRecordRow_FollowsSchema(t *testing.T) {
	values := make(map[string]float64, len(Schema))
	for i, name := range Schema {
		values[name] = float64(i + 1)
	}
	rec, err := NewRecord(values)
	require.NoError(t, err)

	row := rec.Row()
	require.Len(t, row, len(Schema))
	for i := range Schema {
		assert.Equal(t, float64(i+1), row[i])
	}
	assert.Equal(t, 6.0, rec.Rm)
	assert.Equal(t, 13.0, rec.Lstat)
}

func TestNewRecord_MissingField(t *testing.T) {
	_, err := NewRecord(map[string]float64{"crim": 1})
	var vErr *errors.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "zn", vErr.ParamName)
}

func TestDownload(t *testing.T) {
	body := bostonSample(3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "data", "boston.csv")
	require.NoError(t, Download(context.Background(), srv.URL, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestDownload_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "a,b\n1,2\n")
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "out.csv")
	err := Download(context.Background(), srv.URL, dest, WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownload_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := Download(context.Background(), srv.URL, filepath.Join(t.TempDir(), "out.csv"), WithRetry(5, time.Millisecond))
	var netErr *errors.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDownload_UnwritableDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "a\n1\n")
	}))
	defer srv.Close()

	// a regular file cannot be used as a parent directory
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := Download(context.Background(), srv.URL, filepath.Join(blocker, "out.csv"))
	var fsErr *errors.FilesystemError
	assert.True(t, errors.As(err, &fsErr))
}

func TestFrameHead(t *testing.T) {
	frame := sampleFrame(t, 8)
	lines := strings.Split(strings.TrimSpace(frame.Head(5)), "\n")
	assert.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "crim"))
}

func TestCheckFeatureNames(t *testing.T) {
	swapped := append([]string{}, Schema...)
	swapped[0], swapped[1] = swapped[1], swapped[0]

	tests := []struct {
		name   string
		names  []string
		column string
	}{
		{name: "schema", names: Schema},
		{name: "unnamed", names: nil},
		{name: "swapped", names: swapped, column: "crim"},
		{name: "truncated", names: Schema[:12], column: "lstat"},
		{name: "extra column", names: append(append([]string{}, Schema...), "medv"), column: "medv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFeatureNames(tt.names)
			if tt.column == "" {
				assert.NoError(t, err)
				return
			}
			var schemaErr *errors.SchemaError
			require.True(t, errors.As(err, &schemaErr), "got %v", err)
			assert.Equal(t, tt.column, schemaErr.Column)
		})
	}
}
