// Package uncommon provides context management utilities shared across the
// unlingo service: the caller's organization identity and the resolved
// workspace scope.
package uncommon

import (
	"context"

	"github.com/google/uuid"
)

// ctxKeyType represents the type for all context keys
type ctxKeyType string

const (
	ctxOrgIdKey       ctxKeyType = "UnlingoOrgId"
	ctxWorkspaceIdKey ctxKeyType = "UnlingoWorkspaceId"
	ctxTestContextKey ctxKeyType = "UnlingoTestContext"
)

// SetOrgIdInContext sets the caller's external organization ID in the context.
// An empty org ID means the request is unauthenticated.
func SetOrgIdInContext(ctx context.Context, orgId string) context.Context {
	return context.WithValue(ctx, ctxOrgIdKey, orgId)
}

// OrgIdFromContext retrieves the caller's organization ID from the context.
func OrgIdFromContext(ctx context.Context) string {
	if orgId, ok := ctx.Value(ctxOrgIdKey).(string); ok {
		return orgId
	}
	return ""
}

// SetWorkspaceIdInContext sets the resolved workspace scope in the context.
// Every store query filters by this scope.
func SetWorkspaceIdInContext(ctx context.Context, workspaceId uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxWorkspaceIdKey, workspaceId)
}

// WorkspaceIdFromContext retrieves the workspace scope from the context.
func WorkspaceIdFromContext(ctx context.Context) uuid.UUID {
	if workspaceId, ok := ctx.Value(ctxWorkspaceIdKey).(uuid.UUID); ok {
		return workspaceId
	}
	return uuid.Nil
}

// SetTestContext sets the test context in the provided context.
func SetTestContext(ctx context.Context, isTest bool) context.Context {
	return context.WithValue(ctx, ctxTestContextKey, isTest)
}

// TestContextFromContext retrieves the test context from the provided context.
func TestContextFromContext(ctx context.Context) bool {
	if testContext, ok := ctx.Value(ctxTestContextKey).(bool); ok {
		return testContext
	}
	return false
}
