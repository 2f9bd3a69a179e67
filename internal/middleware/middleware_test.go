package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/database"
	"github.com/jason-s-yu/volei/internal/metrics"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayers map[uuid.UUID]models.Player

func (f fakePlayers) PlayerByUserID(_ context.Context, userID uuid.UUID) (models.Player, error) {
	if userID == uuid.Nil {
		return models.Player{}, errors.New("boom")
	}
	p, ok := f[userID]
	if !ok {
		return models.Player{}, database.ErrNotFound
	}
	return p, nil
}

func sessionEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFrom(r.Context())
		require.True(t, ok)
		if sess.IsAdmin {
			w.Header().Set("X-Admin", "true")
		}
		w.Header().Set("X-Player", sess.PlayerID.String())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	log, _ := test.NewNullLogger()
	v := auth.NewVerifier("secret", "")
	admin := models.Player{ID: uuid.New(), UserID: uuid.New(), IsAdmin: true, IsActive: true}
	players := fakePlayers{admin.UserID: admin}
	h := Authenticate(v, players, log)(sessionEcho(t))

	token, err := v.CreateToken(admin.UserID, "", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/api/players", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Admin"))
	assert.Equal(t, admin.ID.String(), rec.Header().Get("X-Player"))

	// a user without a player record still passes, without rights
	stranger, err := v.CreateToken(uuid.New(), "", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/api/players", nil)
	req.Header.Set("Cookie", "auth_token="+stranger)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Admin"))
	assert.Equal(t, uuid.Nil.String(), rec.Header().Get("X-Player"))
}

func TestAuthenticateRejects(t *testing.T) {
	log, _ := test.NewNullLogger()
	v := auth.NewVerifier("secret", "")
	h := Authenticate(v, fakePlayers{}, log)(sessionEcho(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	broken, err := v.CreateToken(uuid.Nil, "", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+broken)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireAdmin(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(auth.WithSession(req.Context(), auth.Session{UserID: uuid.New()}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(auth.WithSession(req.Context(), auth.Session{UserID: uuid.New(), IsAdmin: true}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 2)
	h := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// other clients have their own bucket
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
}

func TestLogMiddleware(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := LogMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/ledger/payments", nil))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, 500, entry.Data["status"])
	assert.Equal(t, "/api/ledger/payments", entry.Data["path"])
}

func TestInstrumentUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Instrument(m))
	r.Get("/api/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for range 2 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/games/"+uuid.NewString(), nil))
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `volei_http_requests_total{method="GET",route="/api/games/{id}",status="418"} 2`)
}
