// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage archives converted documents to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/deck-converter/pkg/types"
)

// uploadTimeout bounds a single archive upload.
const uploadTimeout = 2 * time.Minute

// objectStore is the subset of *minio.Client the archive uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archive uploads every successful conversion in the background.
type Archive struct {
	conf   types.StorageConfig
	client objectStore
	log    logrus.FieldLogger

	bucketOnce sync.Once
	bucketErr  error
	wg         sync.WaitGroup
}

// NewArchive creates a minio client for conf.
func NewArchive(conf types.StorageConfig, log logrus.FieldLogger) (*Archive, error) {
	if conf.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is not configured")
	}
	client, err := minio.New(conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
		Region: conf.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return newArchive(conf, client, log), nil
}

func newArchive(conf types.StorageConfig, client objectStore, log logrus.FieldLogger) *Archive {
	return &Archive{
		conf:   conf,
		client: client,
		log: log.WithFields(logrus.Fields{
			"component": "storage",
			"bucket":    conf.Bucket,
		}),
	}
}

// ObjectName returns the key a result is stored under.
func ObjectName(result types.ConversionResult) string {
	day := result.StartedAt.UTC().Format("2006/01/02")
	return path.Join(string(result.Direction), day, result.ID, result.Filename)
}

// Observe schedules an upload of a successful result. Failed conversions
// are ignored.
func (a *Archive) Observe(ctx context.Context, result types.ConversionResult) {
	if !result.Success || len(result.Data) == 0 {
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uploadTimeout)
		defer cancel()

		object := ObjectName(result)
		log := a.log.WithFields(logrus.Fields{"id": result.ID, "object": object})
		if err := a.Store(ctx, object, result.Data, result.ContentType); err != nil {
			log.WithError(err).Error("Failed to archive converted document.")
			return
		}
		log.Debug("Archived converted document.")
	}()
}

// Store uploads data under object, creating the bucket on first use when
// configured to.
func (a *Archive) Store(ctx context.Context, object string, data []byte, contentType string) error {
	if a.conf.CreateBucketIfNotExist {
		a.bucketOnce.Do(func() { a.bucketErr = a.createBucket(ctx) })
		if a.bucketErr != nil {
			return fmt.Errorf("creating bucket %s: %w", a.conf.Bucket, a.bucketErr)
		}
	}

	r := bytes.NewReader(data)
	_, err := a.client.PutObject(ctx, a.conf.Bucket, object, r, r.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", object, err)
	}
	return nil
}

func (a *Archive) createBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.conf.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.conf.Bucket, minio.MakeBucketOptions{Region: a.conf.Region}); err != nil {
		return err
	}
	a.log.Info("Created archive bucket.")
	return nil
}

// Close waits for pending uploads.
func (a *Archive) Close() error {
	a.wg.Wait()
	return nil
}
