// Package postgresql implements the unlingo store on PostgreSQL. Every query
// below workspace level carries the workspace scope from the request context,
// so identifiers that resolve to another tenant's rows behave as not found.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unlingo/unlingo/internal/common/apperrors"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dberror"
	"github.com/unlingo/unlingo/internal/unlingosrv/db/dbmanager"
	"github.com/unlingo/unlingo/internal/unlingosrv/uncommon"
)

type metadataManager struct {
	c dbmanager.ScopedConn
}

type connectionManager struct {
	c dbmanager.ScopedConn
}

func NewUnlingoDb(c dbmanager.ScopedConn) (*metadataManager, *connectionManager) {
	return &metadataManager{c: c}, &connectionManager{c: c}
}

func (mm *metadataManager) conn() *sql.Conn {
	return mm.c.Conn()
}

func (cm *connectionManager) AddScope(ctx context.Context, scope, value string) {
	cm.c.AddScope(ctx, scope, value)
}

func (cm *connectionManager) DropAllScopes(ctx context.Context) error {
	return cm.c.DropAllScopes(ctx)
}

func (cm *connectionManager) Close(ctx context.Context) {
	cm.c.Close(ctx)
}

// workspaceScope returns the workspace ID every scoped query filters by.
func workspaceScope(ctx context.Context) (uuid.UUID, apperrors.Error) {
	wsID := uncommon.WorkspaceIdFromContext(ctx)
	if wsID == uuid.Nil {
		return uuid.Nil, dberror.ErrMissingWorkspaceID
	}
	return wsID, nil
}

// Cursor format: base64("<RFC3339Nano created_at>|<uuid>"). List queries order
// by (created_at, id) descending and resume strictly before the cursor pair.

func encodeCursor(t time.Time, id uuid.UUID) string {
	raw := t.UTC().Format(time.RFC3339Nano) + "|" + id.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (time.Time, uuid.UUID, apperrors.Error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return time.Time{}, uuid.Nil, dberror.ErrInvalidInput.Msg("invalid pagination cursor")
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, dberror.ErrInvalidInput.Msg("invalid pagination cursor")
	}
	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, uuid.Nil, dberror.ErrInvalidInput.Msg("invalid pagination cursor")
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, dberror.ErrInvalidInput.Msg("invalid pagination cursor")
	}
	return t, id, nil
}

// cursorPredicate appends the keyset condition for a list query. idCol is the
// table's primary key column; argIdx is the next free placeholder index.
func cursorPredicate(cursor, idCol string, argIdx int) (cond string, args []any, err apperrors.Error) {
	if cursor == "" {
		return "", nil, nil
	}
	t, id, cerr := decodeCursor(cursor)
	if cerr != nil {
		return "", nil, cerr
	}
	cond = fmt.Sprintf(" AND (created_at, %s) < ($%d, $%d)", idCol, argIdx, argIdx+1)
	return cond, []any{t, id}, nil
}
