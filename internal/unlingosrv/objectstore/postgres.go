package objectstore

import (
	"context"
	"database/sql"

	"github.com/golang/snappy"
	"github.com/rs/zerolog/log"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

// postgresStore keeps blobs in the metadata database, snappy compressed.
// It rides the request's scoped connection, so blob writes see the same
// session as the metadata writes around them.
type postgresStore struct{}

func NewPostgresStore() Store {
	return &postgresStore{}
}

func (p *postgresStore) Put(ctx context.Context, data []byte, contentType string) (string, apperrors.Error) {
	if len(data) > MaxBlobSize {
		return "", ErrBlobTooLarge
	}
	conn := db.SQLConn(ctx)
	if conn == nil {
		return "", ErrObjectStore.Msg("no database connection in context")
	}
	blobID := uncommon.NewBlobId()
	compressed := snappy.Encode(nil, data)
	_, err := conn.ExecContext(ctx, `
		INSERT INTO blobs (blob_id, workspace_id, content_type, size, data)
		VALUES ($1, $2, $3, $4, $5);
	`, blobID, uncommon.WorkspaceIdFromContext(ctx), contentType, len(data), compressed)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to store blob")
		return "", ErrObjectStore.Err(err)
	}
	return blobID, nil
}

func (p *postgresStore) Get(ctx context.Context, blobID string) ([]byte, apperrors.Error) {
	conn := db.SQLConn(ctx)
	if conn == nil {
		return nil, ErrObjectStore.Msg("no database connection in context")
	}
	var compressed []byte
	err := conn.QueryRowContext(ctx, `
		SELECT data FROM blobs WHERE blob_id = $1 AND workspace_id = $2;
	`, blobID, uncommon.WorkspaceIdFromContext(ctx)).Scan(&compressed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBlobNotFound
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to retrieve blob")
		return nil, ErrObjectStore.Err(err)
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("blob_id", blobID).Msg("failed to decompress blob")
		return nil, ErrObjectStore.Err(err)
	}
	return data, nil
}

func (p *postgresStore) GetURL(ctx context.Context, blobID string) (string, apperrors.Error) {
	conn := db.SQLConn(ctx)
	if conn == nil {
		return "", ErrObjectStore.Msg("no database connection in context")
	}
	var exists bool
	err := conn.QueryRowContext(ctx, `
		SELECT TRUE FROM blobs WHERE blob_id = $1 AND workspace_id = $2;
	`, blobID, uncommon.WorkspaceIdFromContext(ctx)).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrBlobNotFound
		}
		log.Ctx(ctx).Error().Err(err).Msg("failed to check blob")
		return "", ErrObjectStore.Err(err)
	}
	return blobURL(blobID), nil
}

func (p *postgresStore) Delete(ctx context.Context, blobID string) apperrors.Error {
	conn := db.SQLConn(ctx)
	if conn == nil {
		return ErrObjectStore.Msg("no database connection in context")
	}
	result, err := conn.ExecContext(ctx, `
		DELETE FROM blobs WHERE blob_id = $1 AND workspace_id = $2;
	`, blobID, uncommon.WorkspaceIdFromContext(ctx))
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to delete blob")
		return ErrObjectStore.Err(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		log.Ctx(ctx).Info().Str("blob_id", blobID).Msg("blob not found")
	}
	return nil
}
