// Package config assembles the settings of the train and api binaries.
//
// Values are resolved in this order, first match wins: command-line flag,
// process environment, .env file, built-in default. Environment variables
// are read once, when the flags are bound, and become the flag defaults.
// A malformed variable is reported by Resolve.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/YuminosukeSato/houseprice/artifact"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// EnvPrefix is prepended to every variable name this package reads, except
// the standard AWS_* credential variables.
const EnvPrefix = "HOUSEPRICE_"

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(key string) string

// LoadDotEnv loads variables from the given .env files (".env" when none
// are given) without overriding variables that are already set. Missing
// files are ignored. Nothing is loaded when APP_ENV is "production".
func LoadDotEnv(files ...string) error {
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return errors.NewFilesystemError("load", f, err)
		}
	}
	return nil
}

// Storage reads the object store settings from the environment.
//
//	HOUSEPRICE_S3_REGION (or AWS_REGION), HOUSEPRICE_S3_ENDPOINT,
//	HOUSEPRICE_S3_PATH_STYLE, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
//	AWS_PROFILE
func Storage(getenv Getenv) (artifact.Config, error) {
	env := &envReader{getenv: getenv}
	cfg := artifact.Config{
		Region:          firstNonEmpty(getenv(EnvPrefix+"S3_REGION"), getenv("AWS_REGION"), artifact.DefaultRegion),
		Endpoint:        getenv(EnvPrefix + "S3_ENDPOINT"),
		AccessKeyID:     getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: getenv("AWS_SECRET_ACCESS_KEY"),
		Profile:         firstNonEmpty(getenv("AWS_PROFILE"), artifact.DefaultProfile),
		UsePathStyle:    env.bool("S3_PATH_STYLE", false),
	}
	return cfg, env.err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// envReader reads HOUSEPRICE_* variables. The first malformed value is kept
// in err and the default is used in its place.
type envReader struct {
	getenv Getenv
	err    error
}

func (e *envReader) lookup(name string) string {
	return e.getenv(EnvPrefix + name)
}

func (e *envReader) fail(name, reason, raw string) {
	if e.err == nil {
		e.err = errors.NewInvalidArgumentError(EnvPrefix+name, reason, raw)
	}
}

func (e *envReader) string(name, def string) string {
	return firstNonEmpty(e.lookup(name), def)
}

func (e *envReader) bool(name string, def bool) bool {
	raw := e.lookup(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.fail(name, "must be a boolean", raw)
		return def
	}
	return v
}

func (e *envReader) float(name string, def float64) float64 {
	raw := e.lookup(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.fail(name, "must be a number", raw)
		return def
	}
	return v
}

func (e *envReader) int(name string, def int64) int64 {
	raw := e.lookup(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		e.fail(name, "must be an integer", raw)
		return def
	}
	return v
}

func (e *envReader) duration(name string, def time.Duration) time.Duration {
	raw := e.lookup(name)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(name, "must be a duration such as 90s or 2m", raw)
		return def
	}
	return v
}
