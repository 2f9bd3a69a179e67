package auth

import (
	"context"

	"github.com/google/uuid"
)

// Session is the verified identity of a caller, resolved against the players
// table. It is passed explicitly to every store call that needs it.
type Session struct {
	UserID   uuid.UUID
	Email    string
	PlayerID uuid.UUID
	IsAdmin  bool
}

// HasPlayer reports whether the caller is linked to a player record.
func (s Session) HasPlayer() bool {
	return s.PlayerID != uuid.Nil
}

type sessionKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by WithSession.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
