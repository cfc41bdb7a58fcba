package objectstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

type memoryBlob struct {
	workspaceID uuid.UUID
	contentType string
	data        []byte
}

// memoryStore keeps blobs in process memory, for the memory metadata backend.
type memoryStore struct {
	mu    sync.Mutex
	blobs map[string]memoryBlob
}

func NewMemoryStore() Store {
	return &memoryStore{blobs: map[string]memoryBlob{}}
}

func (m *memoryStore) Put(ctx context.Context, data []byte, contentType string) (string, apperrors.Error) {
	if len(data) > MaxBlobSize {
		return "", ErrBlobTooLarge
	}
	blobID := uncommon.NewBlobId()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[blobID] = memoryBlob{
		workspaceID: uncommon.WorkspaceIdFromContext(ctx),
		contentType: contentType,
		data:        append([]byte(nil), data...),
	}
	return blobID, nil
}

func (m *memoryStore) Get(ctx context.Context, blobID string) ([]byte, apperrors.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[blobID]
	if !ok || b.workspaceID != uncommon.WorkspaceIdFromContext(ctx) {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), b.data...), nil
}

func (m *memoryStore) GetURL(ctx context.Context, blobID string) (string, apperrors.Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[blobID]
	if !ok || b.workspaceID != uncommon.WorkspaceIdFromContext(ctx) {
		return "", ErrBlobNotFound
	}
	return blobURL(blobID), nil
}

func (m *memoryStore) Delete(ctx context.Context, blobID string) apperrors.Error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[blobID]
	if ok && b.workspaceID == uncommon.WorkspaceIdFromContext(ctx) {
		delete(m.blobs, blobID)
	}
	return nil
}
