package storage

import "context"

// Service stores exported documents in remote object storage.
type Service interface {
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) (string, error)
}
