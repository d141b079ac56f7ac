package compute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/metabolize/werkit/pkg/storage"
	"github.com/metabolize/werkit/pkg/types"
)

// ObjectDestination writes each output message as JSON to
// <bucket>/<prefix><message key>.json.
type ObjectDestination[R any, K any] struct {
	Store  storage.ObjectStore
	Bucket string
	Prefix string
}

// Send rejects keys that are absolute or contain a ".." segment, so every
// object stays under Prefix.
func (d ObjectDestination[R, K]) Send(ctx context.Context, key K, msg types.OutputMessage[R, K]) error {
	name := fmt.Sprint(key)
	if err := checkObjectName(name); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode output message: %w", err)
	}
	objectKey := path.Clean(d.Prefix + name + ".json")
	_, err = d.Store.PutObject(ctx, d.Bucket, objectKey, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", d.Bucket, objectKey, err)
	}
	return nil
}

func checkObjectName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") {
		return fmt.Errorf("invalid message key %q", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return fmt.Errorf("invalid message key %q", name)
		}
	}
	return nil
}

// DestinationFunc adapts a function to Destination.
type DestinationFunc[R any, K any] func(ctx context.Context, key K, msg types.OutputMessage[R, K]) error

func (f DestinationFunc[R, K]) Send(ctx context.Context, key K, msg types.OutputMessage[R, K]) error {
	return f(ctx, key, msg)
}
