// Package objectstore holds the binary payloads that hang off metadata
// records: translation files, JSON schemas and screenshot images. Metadata
// rows reference blobs by ID; deleting a record's blob makes the payload
// unretrievable even if a dangling reference survives a partial cleanup.
package objectstore

import (
	"context"

	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/config"
)

var (
	ErrObjectStore  = apperrors.New("object store error").SetStatusCode(500)
	ErrBlobNotFound = ErrObjectStore.New("blob not found").SetStatusCode(404)
	ErrBlobTooLarge = ErrObjectStore.New("blob exceeds the size limit").SetStatusCode(400)
)

// MaxBlobSize bounds a single upload. Screenshot images are the largest
// payloads the platform accepts.
const MaxBlobSize = 10 << 20

// Store persists opaque payloads keyed by blob ID within a workspace.
type Store interface {
	Put(ctx context.Context, data []byte, contentType string) (string, apperrors.Error)
	Get(ctx context.Context, blobID string) ([]byte, apperrors.Error)
	GetURL(ctx context.Context, blobID string) (string, apperrors.Error)
	Delete(ctx context.Context, blobID string) apperrors.Error
}

var defaultStore Store

// Init selects the blob backend to match the metadata backend.
func Init(backend string) {
	if backend == "memory" {
		defaultStore = NewMemoryStore()
		return
	}
	defaultStore = NewPostgresStore()
}

func Default() Store {
	return defaultStore
}

func SetDefault(s Store) {
	defaultStore = s
}

// blobURL builds the externally served location of a blob.
func blobURL(blobID string) string {
	return config.Config().BlobURLBase + "/" + blobID
}
