package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/posmart/internal/client/queue"
	"github.com/dmitrijs2005/posmart/internal/kv"
	"github.com/dmitrijs2005/posmart/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (m *memUploader) Upload(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = body
	return nil
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey(time.Date(2024, 7, 3, 23, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^archive/2024/07/03/[0-9a-f-]{36}\.json$`), key)
}

func TestArchive_Disabled(t *testing.T) {
	a := New(queue.New(kv.NewMemoryStore(0)), nil, time.Hour, logging.NewNop())
	_, err := a.Archive(context.Background())
	assert.ErrorIs(t, err, ErrDisabled)
}

func setupQueue(t *testing.T) (*queue.Queue, []string) {
	t.Helper()
	ctx := context.Background()
	q := queue.New(kv.NewMemoryStore(0))

	var keys []string
	for _, id := range []string{"a", "b", "c"} {
		key, err := q.Enqueue(ctx, "sale", map[string]string{"id": id})
		require.NoError(t, err)
		keys = append(keys, key)
	}
	// a and b reached the server, c is still pending
	require.NoError(t, q.MarkSynced(ctx, keys[0]))
	require.NoError(t, q.MarkSynced(ctx, keys[1]))
	return q, keys
}

func TestArchive_UploadsSyncedAndRemovesThem(t *testing.T) {
	ctx := context.Background()
	q, keys := setupQueue(t)
	up := &memUploader{}

	a := New(q, up, time.Hour, logging.NewNop())
	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	res, err := a.Archive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Archived)
	require.Contains(t, up.objects, res.Object)

	var batch Batch
	require.NoError(t, json.Unmarshal(up.objects[res.Object], &batch))
	got := []string{batch.Transactions[0].Key, batch.Transactions[1].Key}
	assert.ElementsMatch(t, keys[:2], got)

	all, err := q.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keys[2], all[0].Key)
	assert.False(t, all[0].Synced)
}

func TestArchive_RetentionKeepsRecentEntries(t *testing.T) {
	q, _ := setupQueue(t)
	up := &memUploader{}

	a := New(q, up, 24*time.Hour, logging.NewNop())
	res, err := a.Archive(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Archived)
	assert.Empty(t, up.objects)
}

func TestArchive_UploadFailureDeletesNothing(t *testing.T) {
	ctx := context.Background()
	q, _ := setupQueue(t)

	a := New(q, &memUploader{err: errors.New("bucket missing")}, 0, logging.NewNop())
	a.now = func() time.Time { return time.Now().Add(time.Minute) }

	_, err := a.Archive(ctx)
	require.Error(t, err)

	all, err := q.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNewS3Uploader_NoBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), S3Config{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewS3Uploader_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	u, err := NewS3Uploader(context.Background(), S3Config{
		Bucket:       "pos-archive",
		Region:       "eu-central-1",
		BaseEndpoint: "http://127.0.0.1:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "pos-archive", u.bucket)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = NewS3Uploader(context.Background(), S3Config{Bucket: "b"})
	assert.EqualError(t, err, "load-fail")
}

func TestS3Uploader_PutsObject(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, err := NewS3Uploader(context.Background(), S3Config{
		Bucket:       "pos-archive",
		Region:       "us-east-1",
		BaseEndpoint: srv.URL,
		AccessKey:    "k",
		SecretKey:    "s",
	})
	require.NoError(t, err)

	require.NoError(t, u.Upload(context.Background(), "archive/2024/01/01/x.json", []byte(`{"ok":true}`)))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/pos-archive/archive/2024/01/01/x.json", path)
	assert.Contains(t, string(body), `{"ok":true}`)
}
