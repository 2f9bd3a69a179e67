package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/database"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/sirupsen/logrus"
)

// PlayerResolver links an auth user to its player record.
type PlayerResolver interface {
	PlayerByUserID(ctx context.Context, userID uuid.UUID) (models.Player, error)
}

// Authenticate verifies the request token and stores the caller's session in
// the request context. Users without a player record get a session without
// player or admin rights.
func Authenticate(v *auth.Verifier, players PlayerResolver, logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := v.Authenticate(auth.TokenFromRequest(r))
			if errors.Is(err, auth.ErrMissingToken) {
				http.Error(w, "missing auth token", http.StatusUnauthorized)
				return
			}
			if err != nil {
				logger.WithError(err).WithField("remote", r.RemoteAddr).Debug("rejected token")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			p, err := players.PlayerByUserID(r.Context(), sess.UserID)
			switch {
			case err == nil:
				sess.PlayerID = p.ID
				sess.IsAdmin = p.IsAdmin && p.IsActive
			case errors.Is(err, database.ErrNotFound):
			default:
				logger.WithError(err).Error("failed to resolve player for session")
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}

// RequireAdmin rejects callers that are not club admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFrom(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !sess.IsAdmin {
			http.Error(w, "admin only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
