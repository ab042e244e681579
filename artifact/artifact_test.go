package artifact

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// memoryBucket is an in-memory ObjectAPI keyed by "bucket/key".
type memoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: make(map[string][]byte)}
}

func (m *memoryBucket) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memoryBucket) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "model.bin")
	payload := []byte(`{"version":"houseprice-gbdt/1","trees":[]}` + "\x00\xff")
	require.NoError(t, os.WriteFile(src, payload, 0o644))

	bucket := newMemoryBucket()
	store := NewWithAPI(bucket)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, src, "models", "boston/model.bin"))

	dst := filepath.Join(dir, "downloaded", "nested", "model.bin")
	require.NoError(t, store.Download(ctx, "models", "boston/model.bin", dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestUpload_OverwritesExistingObject(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "model.bin")
	bucket := newMemoryBucket()
	store := NewWithAPI(bucket)

	for _, content := range []string{"first", "second"} {
		require.NoError(t, os.WriteFile(src, []byte(content), 0o644))
		require.NoError(t, store.Upload(context.Background(), src, "b", "k"))
	}
	assert.Equal(t, []byte("second"), bucket.objects["b/k"])
}

func TestUpload_Errors(t *testing.T) {
	store := NewWithAPI(newMemoryBucket())
	err := store.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.bin"), "b", "k")
	var fsErr *errors.FilesystemError
	assert.True(t, errors.As(err, &fsErr))

	src := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	failing := newMemoryBucket()
	failing.putErr = errors.New("access denied")

	err = NewWithAPI(failing).Upload(context.Background(), src, "b", "k")
	var transferErr *errors.ArtifactTransferError
	require.True(t, errors.As(err, &transferErr))
	assert.Equal(t, "upload", transferErr.Op)
	assert.Equal(t, "b", transferErr.Bucket)
	assert.Equal(t, "k", transferErr.Key)
}

func TestDownload_MissingKey(t *testing.T) {
	store := NewWithAPI(newMemoryBucket())
	dst := filepath.Join(t.TempDir(), "model.bin")

	err := store.Download(context.Background(), "b", "absent", dst)
	var transferErr *errors.ArtifactTransferError
	require.True(t, errors.As(err, &transferErr))
	assert.Equal(t, "download", transferErr.Op)

	var noSuchKey *types.NoSuchKey
	assert.True(t, errors.As(err, &noSuchKey))

	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNew_StaticCredentials(t *testing.T) {
	store, err := New(context.Background(), Config{
		Region:          "us-east-1",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	client, ok := store.api.(*s3.Client)
	require.True(t, ok)
	opts := client.Options()
	assert.Equal(t, "us-east-1", opts.Region)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

// stalledBucket never answers; calls return once the context is done.
type stalledBucket struct{}

func (stalledBucket) PutObject(ctx context.Context, _ *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stalledBucket) GetObject(ctx context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTransfer_Timeout(t *testing.T) {
	src := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	store := NewWithAPI(stalledBucket{}, WithTimeout(20*time.Millisecond))

	tests := []struct {
		op  string
		run func() error
	}{
		{"upload", func() error { return store.Upload(context.Background(), src, "b", "k") }},
		{"download", func() error {
			return store.Download(context.Background(), "b", "k", filepath.Join(t.TempDir(), "out.bin"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			done := make(chan error, 1)
			go func() { done <- tt.run() }()

			select {
			case err := <-done:
				var transferErr *errors.ArtifactTransferError
				require.True(t, errors.As(err, &transferErr), "got %v", err)
				assert.Equal(t, tt.op, transferErr.Op)
				assert.True(t, errors.Is(err, context.DeadlineExceeded))
			case <-time.After(2 * time.Second):
				t.Fatal("transfer did not time out")
			}
		})
	}
}

func TestNew_CarriesTimeout(t *testing.T) {
	store, err := New(context.Background(), Config{
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
		Timeout:         DefaultTimeout,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, store.timeout)
}
