package library

import "context"

// ConsistencyLevel decides whether a read-only operation may run on a replica.
type ConsistencyLevel int

const (
	// StrongConsistency reads from the primary. This is the default.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency lets QueryBooks, ListCards and History read from a replica when one is configured.
	// Mutations ignore it and always run on the primary.
	EventualConsistency
)

// contextKey is a private type to prevent context key collisions.
type contextKey string

// ConsistencyLevelKey is the context key used to store consistency level preferences.
const ConsistencyLevelKey contextKey = "library.consistency_level"

// WithStrongConsistency returns a context that routes read-only operations to the primary.
//
// Example usage:
//
//	ctx = library.WithStrongConsistency(ctx)
//	history, err := service.History(ctx, cardID)
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that allows read-only operations to use the replica.
//
// Example usage:
//
//	ctx = library.WithEventualConsistency(ctx)
//	books, err := service.QueryBooks(ctx, query)
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context, StrongConsistency if none is set.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}
	return StrongConsistency
}

func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
