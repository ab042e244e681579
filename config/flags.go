package config

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/houseprice/artifact"
	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/gbdt"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/trainer"
)

// Train holds the settings of the training binary.
type Train struct {
	DatasetURL   string
	DatasetFile  string
	Bucket       string
	Key          string
	ModelPath    string
	ParamsFile   string
	PlotPath     string
	LogLevel     string
	TestFraction float64
	Seed         int64
	SkipUpload   bool
	S3Timeout    time.Duration
	MaxTrainTime time.Duration // zero means no limit

	// Filled by Resolve.
	Params  gbdt.Params
	Storage artifact.Config

	env *envReader
}

// BindTrain registers the training flags on fs with defaults taken from
// getenv.
func BindTrain(fs *pflag.FlagSet, getenv Getenv) *Train {
	env := &envReader{getenv: getenv}
	c := &Train{env: env}
	fs.StringVarP(&c.DatasetURL, "dataset-url", "d", env.string("DATASET_URL", dataset.DefaultDatasetURL), "URL of the Boston housing CSV")
	fs.StringVarP(&c.DatasetFile, "dataset-file-name", "f", env.string("DATASET_FILE", "boston_housing.csv"), "local path the dataset is downloaded to")
	fs.StringVarP(&c.Bucket, "bucket-name", "b", env.string("BUCKET", ""), "S3 bucket receiving the model")
	fs.StringVarP(&c.Key, "key", "k", env.string("KEY", ""), "S3 object key of the model")
	fs.StringVar(&c.ModelPath, "model-path", env.string("MODEL_PATH", trainer.DefaultModelPath), "where the trained model is written")
	fs.StringVar(&c.ParamsFile, "params", env.string("PARAMS_FILE", ""), "YAML file with boosting hyperparameters")
	fs.StringVar(&c.PlotPath, "plot", env.string("PLOT_PATH", ""), "write a predicted-vs-actual plot of the test set to this file")
	fs.StringVar(&c.LogLevel, "log-level", env.string("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.Float64Var(&c.TestFraction, "test-fraction", env.float("TEST_FRACTION", 0.2), "share of rows held out for evaluation")
	fs.Int64Var(&c.Seed, "seed", env.int("SEED", 42), "random seed for the split and for subsampling")
	fs.BoolVar(&c.SkipUpload, "skip-upload", env.bool("SKIP_UPLOAD", false), "keep the model local instead of pushing it to S3")
	fs.DurationVar(&c.S3Timeout, "s3-timeout", env.duration("S3_TIMEOUT", artifact.DefaultTimeout), "limit for the S3 upload")
	fs.DurationVar(&c.MaxTrainTime, "max-train-time", env.duration("MAX_TRAIN_TIME", 0), "stop boosting after this long, 0 for no limit")
	return c
}

// Resolve validates the parsed flags, loads the hyperparameter file and the
// storage settings.
func (c *Train) Resolve() error {
	if c.env.err != nil {
		return c.env.err
	}
	if c.DatasetURL == "" {
		return errors.NewInvalidArgumentError("dataset-url", "is required", c.DatasetURL)
	}
	if c.DatasetFile == "" {
		return errors.NewInvalidArgumentError("dataset-file-name", "is required", c.DatasetFile)
	}
	if !c.SkipUpload {
		if c.Bucket == "" {
			return errors.NewInvalidArgumentError("bucket-name", "is required unless --skip-upload is set", c.Bucket)
		}
		if c.Key == "" {
			return errors.NewInvalidArgumentError("key", "is required unless --skip-upload is set", c.Key)
		}
	}
	if !(c.TestFraction > 0 && c.TestFraction < 1) {
		return errors.NewInvalidArgumentError("test-fraction", "must be between 0 and 1 (exclusive)", c.TestFraction)
	}
	if c.S3Timeout <= 0 {
		return errors.NewInvalidArgumentError("s3-timeout", "must be positive", c.S3Timeout)
	}
	if c.MaxTrainTime < 0 {
		return errors.NewInvalidArgumentError("max-train-time", "must not be negative", c.MaxTrainTime)
	}

	c.Params = gbdt.DefaultParams()
	if c.ParamsFile != "" {
		params, err := LoadParams(c.ParamsFile)
		if err != nil {
			return err
		}
		c.Params = params
	}
	if c.Params.Seed == 0 {
		c.Params.Seed = uint64(c.Seed)
	}

	storage, err := Storage(c.env.getenv)
	if err != nil {
		return err
	}
	storage.Timeout = c.S3Timeout
	c.Storage = storage
	return nil
}

// Serve holds the settings of the api binary.
type Serve struct {
	Bucket       string
	Key          string
	ModelPath    string
	Addr         string
	LogLevel     string
	SkipDownload bool
	Watch        bool
	S3Timeout    time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Storage artifact.Config

	env *envReader
}

// DefaultServeModelPath is where the api binary stores the downloaded model.
const DefaultServeModelPath = "./output/models/downloaded.bin"

// BindServe registers the api flags on fs with defaults taken from getenv.
func BindServe(fs *pflag.FlagSet, getenv Getenv) *Serve {
	env := &envReader{getenv: getenv}
	c := &Serve{env: env}
	fs.StringVarP(&c.Bucket, "bucket-name", "b", env.string("BUCKET", ""), "S3 bucket holding the model")
	fs.StringVarP(&c.Key, "key", "k", env.string("KEY", ""), "S3 object key of the model")
	fs.StringVar(&c.ModelPath, "model-path", env.string("MODEL_PATH", DefaultServeModelPath), "local path of the model file")
	fs.StringVar(&c.Addr, "addr", env.string("ADDR", "127.0.0.1:8080"), "listen address")
	fs.StringVar(&c.LogLevel, "log-level", env.string("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.BoolVar(&c.SkipDownload, "skip-download", env.bool("SKIP_DOWNLOAD", false), "serve the model already at --model-path")
	fs.BoolVar(&c.Watch, "watch", env.bool("WATCH", false), "reload the model when the file at --model-path changes")
	fs.DurationVar(&c.S3Timeout, "s3-timeout", env.duration("S3_TIMEOUT", artifact.DefaultTimeout), "limit for the S3 download")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", env.duration("READ_TIMEOUT", 10*time.Second), "HTTP request read timeout")
	fs.DurationVar(&c.WriteTimeout, "write-timeout", env.duration("WRITE_TIMEOUT", 10*time.Second), "HTTP response write timeout")
	return c
}

// Resolve validates the parsed flags and loads the storage settings.
func (c *Serve) Resolve() error {
	if c.env.err != nil {
		return c.env.err
	}
	if !c.SkipDownload {
		if c.Bucket == "" {
			return errors.NewInvalidArgumentError("bucket-name", "is required unless --skip-download is set", c.Bucket)
		}
		if c.Key == "" {
			return errors.NewInvalidArgumentError("key", "is required unless --skip-download is set", c.Key)
		}
	}
	if c.ModelPath == "" {
		return errors.NewInvalidArgumentError("model-path", "is required", c.ModelPath)
	}
	if c.Addr == "" {
		return errors.NewInvalidArgumentError("addr", "is required", c.Addr)
	}
	for name, d := range map[string]time.Duration{
		"s3-timeout":    c.S3Timeout,
		"read-timeout":  c.ReadTimeout,
		"write-timeout": c.WriteTimeout,
	} {
		if d <= 0 {
			return errors.NewInvalidArgumentError(name, "must be positive", d)
		}
	}

	storage, err := Storage(c.env.getenv)
	if err != nil {
		return err
	}
	storage.Timeout = c.S3Timeout
	c.Storage = storage
	return nil
}
