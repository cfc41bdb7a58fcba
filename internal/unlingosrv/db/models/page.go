package models

// PageRequest carries the cursor pagination inputs for list operations.
// Cursor is opaque to callers; an empty cursor starts from the newest record.
type PageRequest struct {
	Cursor string
	Limit  int
}

// PageResult carries the continuation state of a list operation. Exhausted is
// true when no further pages exist.
type PageResult struct {
	Cursor    string
	Exhausted bool
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// Normalize clamps the page size hint into the supported range.
func (p PageRequest) Normalize() PageRequest {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}
