// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deck-converter/pkg/types"
)

type putCall struct {
	bucket, object, contentType string
	data                        []byte
}

type storeMock struct {
	mu          sync.Mutex
	exists      bool
	existsCalls int
	made        []string
	puts        []putCall
	putErr      error
}

func (m *storeMock) BucketExists(_ context.Context, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.existsCalls++
	return m.exists, nil
}

func (m *storeMock) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.made = append(m.made, bucket)
	return nil
}

func (m *storeMock) PutObject(_ context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return minio.UploadInfo{}, m.putErr
	}
	m.puts = append(m.puts, putCall{bucket: bucket, object: object, contentType: opts.ContentType, data: data})
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

func success(id string) types.ConversionResult {
	return types.ConversionResult{
		ID:          id,
		Direction:   types.PDFToPPTX,
		Success:     true,
		Filename:    "report.pptx",
		ContentType: types.ContentTypePPTX,
		StartedAt:   time.Date(2026, 5, 17, 23, 59, 0, 0, time.UTC),
		Data:        []byte("PK"),
	}
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "pdf2pptx/2026/05/17/abc/report.pptx", ObjectName(success("abc")))
}

func TestArchive_Observe(t *testing.T) {
	m := &storeMock{}
	log, _ := test.NewNullLogger()
	a := newArchive(types.StorageConfig{Bucket: "converted", CreateBucketIfNotExist: true}, m, log)

	a.Observe(context.Background(), success("one"))
	a.Observe(context.Background(), success("two"))
	require.NoError(t, a.Close())

	assert.Equal(t, []string{"converted"}, m.made)
	assert.Equal(t, 1, m.existsCalls)
	require.Len(t, m.puts, 2)
	for _, p := range m.puts {
		assert.Equal(t, "converted", p.bucket)
		assert.Equal(t, types.ContentTypePPTX, p.contentType)
		assert.Equal(t, []byte("PK"), p.data)
	}
}

func TestArchive_IgnoresFailures(t *testing.T) {
	m := &storeMock{}
	log, _ := test.NewNullLogger()
	a := newArchive(types.StorageConfig{Bucket: "converted"}, m, log)

	a.Observe(context.Background(), types.ConversionResult{ID: "x", Error: "conversion failed"})
	require.NoError(t, a.Close())
	assert.Empty(t, m.puts)
	assert.Zero(t, m.existsCalls)
}

func TestArchive_ExistingBucket(t *testing.T) {
	m := &storeMock{exists: true}
	log, _ := test.NewNullLogger()
	a := newArchive(types.StorageConfig{Bucket: "converted", CreateBucketIfNotExist: true}, m, log)

	require.NoError(t, a.Store(context.Background(), "k", []byte("x"), "text/plain"))
	assert.Empty(t, m.made)
	assert.Len(t, m.puts, 1)
}

func TestArchive_UploadErrorIsLogged(t *testing.T) {
	m := &storeMock{putErr: errors.New("access denied")}
	log, hook := test.NewNullLogger()
	a := newArchive(types.StorageConfig{Bucket: "converted"}, m, log)

	a.Observe(context.Background(), success("denied"))
	require.NoError(t, a.Close())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Failed to archive converted document.", hook.LastEntry().Message)
	assert.Equal(t, "denied", hook.LastEntry().Data["id"])
}

func TestArchive_SurvivesRequestCancellation(t *testing.T) {
	m := &storeMock{}
	log, _ := test.NewNullLogger()
	a := newArchive(types.StorageConfig{Bucket: "converted"}, m, log)

	ctx, cancel := context.WithCancel(context.Background())
	a.Observe(ctx, success("late"))
	cancel()
	require.NoError(t, a.Close())
	assert.Len(t, m.puts, 1)
}

func TestNewArchive_RequiresBucket(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := NewArchive(types.StorageConfig{Endpoint: "localhost:9000"}, log)
	assert.Error(t, err)
}
