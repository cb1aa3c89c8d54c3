package port

import "context"

// CartRepository is the per-session cart store. Every write refreshes the
// cart's lifetime, which is the session lifetime.
type CartRepository interface {
	// Quantities returns productID -> quantity for the session's cart.
	Quantities(ctx context.Context, sessionID string) (map[string]int, error)

	// AddClamped atomically adds quantity to the stored value and clamps
	// the result to max. Results at or below zero remove the line. The
	// stored quantity after the call is returned.
	AddClamped(ctx context.Context, sessionID, productID string, quantity, max int) (int, error)

	// SetQuantity stores an exact quantity for the line.
	SetQuantity(ctx context.Context, sessionID, productID string, quantity int) error

	// Remove deletes the line; absent lines are not an error.
	Remove(ctx context.Context, sessionID, productID string) error

	// Clear deletes the whole cart.
	Clear(ctx context.Context, sessionID string) error
}

// SessionRepository maps opaque session tokens to user IDs.
type SessionRepository interface {
	CreateSession(ctx context.Context, token, userID string) error

	// LookupSession returns "" when the token is unknown or expired.
	LookupSession(ctx context.Context, token string) (string, error)

	DeleteSession(ctx context.Context, token string) error
}
