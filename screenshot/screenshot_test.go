package screenshot

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     Kind
		filename string
		want     string
	}{
		{"png", Before, "chart.png", "u1/t1/before.png"},
		{"upper ext", After, "Chart.JPG", "u1/t1/after.jpg"},
		{"no ext", After, "chart", "u1/t1/after.png"},
		{"empty name", Before, "", "u1/t1/before.png"},
		{"double ext", Before, "a.tar.webp", "u1/t1/before.webp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key("u1", "t1", tt.kind, tt.filename))
		})
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"", "/etc/passwd", "../x.png", "a/../../x.png", "..", "a\\b.png"} {
		_, err := clean(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
	got, err := clean("u1/./t1/after.png")
	require.NoError(t, err)
	assert.Equal(t, "u1/t1/after.png", got)
}

func TestContentType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "image/png", ContentType("u/t/before.png"))
	assert.Equal(t, "application/octet-stream", ContentType("u/t/before"))
}

func TestDirUploadOverwrites(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	d, err := NewDir(root, "http://localhost:8080/screenshots/")
	require.NoError(t, err)

	ctx := context.Background()
	url, err := d.Upload(ctx, "u1/t1/before.png", strings.NewReader("first"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/screenshots/u1/t1/before.png", url)

	_, err = d.Upload(ctx, "u1/t1/before.png", strings.NewReader("second"), "image/png")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "u1", "t1", "before.png"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	left, err := filepath.Glob(filepath.Join(root, "u1", "t1", ".upload-*"))
	require.NoError(t, err)
	assert.Empty(t, left, "temp files are removed")
}

func TestDirUploadRejectsEscape(t *testing.T) {
	t.Parallel()

	d, err := NewDir(t.TempDir(), "http://x")
	require.NoError(t, err)
	_, err = d.Upload(context.Background(), "../../evil.png", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDirUploadCanceled(t *testing.T) {
	t.Parallel()

	d, err := NewDir(t.TempDir(), "http://x")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Upload(ctx, "u/t/after.png", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDirRequiresRoot(t *testing.T) {
	t.Parallel()

	_, err := NewDir("", "http://x")
	assert.Error(t, err)
}

// fakeS3 records single-part uploads.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]string{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = string(body)
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not expected")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestS3Upload(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	up := NewS3WithClient(fake, S3Config{Bucket: "shots", Region: "eu-west-1", Prefix: "journal"})

	url, err := up.Upload(context.Background(), "u1/t1/after.png", strings.NewReader("img"), "")
	require.NoError(t, err)
	assert.Equal(t, "https://shots.s3.eu-west-1.amazonaws.com/journal/u1/t1/after.png", url)
	assert.Equal(t, "img", fake.objects["shots/journal/u1/t1/after.png"])
	assert.Equal(t, "image/png", fake.types["shots/journal/u1/t1/after.png"])
}

func TestS3PublicBaseURL(t *testing.T) {
	t.Parallel()

	up := NewS3WithClient(newFakeS3(), S3Config{Bucket: "shots", PublicBaseURL: "https://cdn.example.com/"})
	url, err := up.Upload(context.Background(), "u1/t1/before.jpg", strings.NewReader("img"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/u1/t1/before.jpg", url)
}

func TestS3UploadFailure(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	fake.err = errors.New("access denied")
	up := NewS3WithClient(fake, S3Config{Bucket: "shots", Region: "us-east-1"})

	_, err := up.Upload(context.Background(), "u1/t1/before.png", strings.NewReader("img"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	_, err = up.Upload(context.Background(), "../x.png", strings.NewReader("img"), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestNewS3RequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := NewS3(context.Background(), S3Config{})
	assert.Error(t, err)
}
