// Package storage stages short-lived objects in S3 compatible storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ErrReleased is returned by Release once the object has been deleted.
var ErrReleased = errors.New("temp object already released")

// TempObject is an uploaded object that the caller must Release.
type TempObject struct {
	Bucket string
	Key    string
	ETag   string

	store  ObjectStore
	logger *slog.Logger

	mu       sync.Mutex
	released bool
}

// URL returns the s3:// location of the object.
func (o *TempObject) URL() string {
	return "s3://" + o.Bucket + "/" + o.Key
}

// Release deletes the object. Calling it again returns ErrReleased without
// contacting the store.
func (o *TempObject) Release(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.released {
		return ErrReleased
	}
	if o.logger != nil {
		o.logger.Debug("temp_object_removing", "url", o.URL())
	}
	if err := o.store.RemoveObject(ctx, o.Bucket, o.Key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %s: %w", o.URL(), err)
	}
	o.released = true
	return nil
}

// Stager uploads temp objects.
type Stager struct {
	store  ObjectStore
	logger *slog.Logger
	newID  func() string
}

func NewStager(store ObjectStore) *Stager {
	return &Stager{store: store, newID: UUIDHex}
}

func (s *Stager) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// UploadTemp copies the file at localPath to bucket. With an empty key the
// object is named <name>_<uuid hex><ext> after the local file.
func (s *Stager) UploadTemp(ctx context.Context, localPath, bucket, key string) (*TempObject, error) {
	contents, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", localPath, err)
	}
	if key == "" {
		base := filepath.Base(localPath)
		ext := filepath.Ext(base)
		key = strings.TrimSuffix(base, ext) + "_" + s.newID() + ext
	}
	s.logDebug("temp_object_uploading", "source", localPath, "url", "s3://"+bucket+"/"+key)
	return s.put(ctx, bucket, key, contents)
}

// UploadTempFromString writes contents to bucket. With an empty key the
// object is named <uuid hex><extension>.
func (s *Stager) UploadTempFromString(ctx context.Context, contents, bucket, key, extension string) (*TempObject, error) {
	if key == "" {
		key = s.newID() + extension
	}
	s.logDebug("temp_object_writing", "url", "s3://"+bucket+"/"+key)
	return s.put(ctx, bucket, key, []byte(contents))
}

// WithTempFile uploads localPath, runs fn with the object and always
// releases it afterwards. A release failure is joined with fn's error.
func (s *Stager) WithTempFile(ctx context.Context, localPath, bucket string, fn func(obj *TempObject) error) (err error) {
	obj, err := s.UploadTemp(ctx, localPath, bucket, "")
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := obj.Release(context.WithoutCancel(ctx)); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
	}()
	return fn(obj)
}

func (s *Stager) put(ctx context.Context, bucket, key string, contents []byte) (*TempObject, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.store.PutObject(ctx, bucket, key, bytes.NewReader(contents), int64(len(contents)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload s3://%s/%s: %w", bucket, key, err)
	}

	return &TempObject{
		Bucket: bucket,
		Key:    key,
		ETag:   info.ETag,
		store:  s.store,
		logger: s.logger,
	}, nil
}

func (s *Stager) logDebug(msg string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Debug(msg, args...)
}

// UUIDHex returns a random UUID as 32 lowercase hex digits.
func UUIDHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
