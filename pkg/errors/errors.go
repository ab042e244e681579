// Package errors はパイプライン全体で使うエラー型を提供します。
// データ取得・学習・成果物転送・推論APIのどこで失敗したかを型で区別でき、
// すべてのコンストラクタは cockroachdb/errors でスタックトレースを付与します。
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	I/O 系のエラー型
//
// ===========================================================================

// NetworkError はデータセットや成果物の取得でネットワーク通信に失敗した場合のエラーです。
// StatusCode は HTTP 応答を受け取れた場合のみ 0 以外になります。
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("houseprice: %s %s", e.Op, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": unexpected status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NetworkError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("url", e.URL).
		Int("status_code", e.StatusCode).
		Str("type", "NetworkError")
}

// NewNetworkError は新しいNetworkErrorを作成し、スタックトレースを付与します。
func NewNetworkError(op, url string, statusCode int, err error) error {
	return errors.WithStack(&NetworkError{Op: op, URL: url, StatusCode: statusCode, Err: err})
}

// FilesystemError はローカルファイルの読み書きに失敗した場合のエラーです。
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("houseprice: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *FilesystemError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		Str("type", "FilesystemError")
}

// NewFilesystemError は新しいFilesystemErrorを作成し、スタックトレースを付与します。
func NewFilesystemError(op, path string, err error) error {
	return errors.WithStack(&FilesystemError{Op: op, Path: path, Err: err})
}

// ArtifactTransferError はオブジェクトストレージとのモデル転送に失敗した場合のエラーです。
// 認証失敗・バケットやキーの不在・通信障害のいずれもこの型で返します。
type ArtifactTransferError struct {
	Op     string // "upload" または "download"
	Bucket string
	Key    string
	Err    error
}

func (e *ArtifactTransferError) Error() string {
	return fmt.Sprintf("houseprice: %s s3://%s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
}

func (e *ArtifactTransferError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ArtifactTransferError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("bucket", e.Bucket).
		Str("key", e.Key).
		Str("type", "ArtifactTransferError")
}

// NewArtifactTransferError は新しいArtifactTransferErrorを作成し、スタックトレースを付与します。
func NewArtifactTransferError(op, bucket, key string, err error) error {
	return errors.WithStack(&ArtifactTransferError{Op: op, Bucket: bucket, Key: key, Err: err})
}

// ===========================================================================
//
//	表形式データのエラー型
//
// ===========================================================================

// ParseError は区切り文字形式のデータとして解釈できなかった場合のエラーです。
// Line と Column は 1 始まりで、位置が特定できない場合は 0 です。
type ParseError struct {
	Source string
	Line   int
	Column int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("houseprice: parse %s: line %d, column %d: %s", e.Source, e.Line, e.Column, e.Reason)
	}
	if e.Line > 0 {
		return fmt.Sprintf("houseprice: parse %s: line %d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("houseprice: parse %s: %s", e.Source, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ParseError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		Int("line", e.Line).
		Int("column", e.Column).
		Str("reason", e.Reason).
		Str("type", "ParseError")
}

// NewParseError は新しいParseErrorを作成し、スタックトレースを付与します。
func NewParseError(source string, line, column int, reason string) error {
	return errors.WithStack(&ParseError{Source: source, Line: line, Column: column, Reason: reason})
}

// SchemaError は必要な列がテーブルに存在しない場合のエラーです。
type SchemaError struct {
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("houseprice: column %q not found (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *SchemaError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Strs("available", e.Available).
		Str("type", "SchemaError")
}

// NewSchemaError は新しいSchemaErrorを作成し、スタックトレースを付与します。
func NewSchemaError(column string, available []string) error {
	return errors.WithStack(&SchemaError{Column: column, Available: available})
}

// ===========================================================================
//
//	引数・数値・学習のエラー型
//
// ===========================================================================

// InvalidArgumentError は引数が許容範囲外の場合のエラーです。
// 例えば、テストデータの割合に 0 以下や 1 以上を渡した場合など。
type InvalidArgumentError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("houseprice: invalid argument '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidArgumentError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "InvalidArgumentError")
}

// NewInvalidArgumentError は新しいInvalidArgumentErrorを作成し、スタックトレースを付与します。
func NewInvalidArgumentError(param, reason string, value interface{}) error {
	return errors.WithStack(&InvalidArgumentError{ParamName: param, Reason: reason, Value: value})
}

// NumericError は行列の形状不一致や NaN/Inf など、数値データが不正な場合のエラーです。
type NumericError struct {
	Op     string
	Reason string
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("houseprice: %s: %s", e.Op, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NumericError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "NumericError")
}

// NewNumericError は新しいNumericErrorを作成し、スタックトレースを付与します。
func NewNumericError(op, reason string) error {
	return errors.WithStack(&NumericError{Op: op, Reason: reason})
}

// NewDimensionError は次元の不一致を表すNumericErrorを作成します。
// axis は 0 が行、1 が列（特徴量）です。
func NewDimensionError(op string, expected, got, axis int) error {
	axisName := "features"
	if axis == 0 {
		axisName = "rows"
	}
	return NewNumericError(op, fmt.Sprintf("dimension mismatch on axis %d (%s). Expected %d, got %d", axis, axisName, expected, got))
}

// TrainingError はブースティングの学習処理そのものが失敗した場合のエラーです。
type TrainingError struct {
	Round int // 失敗したラウンド。学習開始前の失敗は -1
	Err   error
}

func (e *TrainingError) Error() string {
	if e.Round < 0 {
		return fmt.Sprintf("houseprice: training failed: %v", e.Err)
	}
	return fmt.Sprintf("houseprice: training failed at round %d: %v", e.Round, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *TrainingError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("round", e.Round).
		Str("type", "TrainingError")
}

// NewTrainingError は新しいTrainingErrorを作成し、スタックトレースを付与します。
func NewTrainingError(round int, err error) error {
	return errors.WithStack(&TrainingError{Round: round, Err: err})
}

// ValidationError は推論リクエストの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("houseprice: validation failed for field '%s': %s", e.ParamName, e.Reason)
	}
	return fmt.Sprintf("houseprice: validation failed for field '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrModelNotLoaded は推論用のモデルがまだ読み込まれていない場合のエラーです。
	ErrModelNotLoaded = New("model not loaded")
)
