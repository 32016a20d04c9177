// Package blob stores objective images in a Google Cloud Storage bucket
// and resolves them to public URLs.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const uploadTimeout = 2 * time.Minute

type Store struct {
	client *storage.Client
	bucket string
}

// NewStore creates a GCS-backed store. With an empty credentialsFile it
// relies on Application Default Credentials.
func NewStore(ctx context.Context, bucket, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Store{client: client, bucket: bucket}, nil
}

// Upload writes data under a unique object name derived from name and
// returns the object's public URL. The object name is prefixed with a UUID
// so that two uploads with the same file name never collide.
func (s *Store) Upload(ctx context.Context, name string, data []byte) (string, error) {
	objectName := fmt.Sprintf("objectives/%s-%s", uuid.NewString(), path.Base(name))

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy image to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload of %q: %w", objectName, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName), nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
