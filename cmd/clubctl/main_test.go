package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssue(t *testing.T) {
	t.Setenv("JWT_SECRET", "clubctl-secret")
	t.Setenv("JWT_ISSUER", "volei")
	userID := uuid.New()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	missing := filepath.Join(t.TempDir(), "none.yaml")
	require.NoError(t, app.Run([]string{"clubctl", "--config", missing, "token", "issue", "--user", userID.String(), "--email", "ana@club.example"}))

	sess, err := auth.NewVerifier("clubctl-secret", "volei").Authenticate(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, userID, sess.UserID)
	assert.Equal(t, "ana@club.example", sess.Email)
}

func TestTokenIssueRejectsBadUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "clubctl-secret")
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"clubctl", "--config", filepath.Join(t.TempDir(), "none.yaml"), "token", "issue", "--user", "nobody"})
	assert.ErrorContains(t, err, "invalid user id")
}

func TestLedgerExportRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"clubctl", "--config", filepath.Join(t.TempDir(), "none.yaml"), "ledger", "export", "--month", "2026-03", "--out", filepath.Join(t.TempDir(), "x.xlsx")})
	assert.ErrorContains(t, err, "DATABASE_URL")
}
