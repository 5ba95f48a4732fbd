package audit

import "context"

// Query narrows a ledger listing. Zero values match everything.
type Query struct {
	EntityKind string
	EntityID   string
	ActorID    string
	Limit      int
	Offset     int
}

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	List(ctx context.Context, q Query) ([]*Entry, int, error)
}
