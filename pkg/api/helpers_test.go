package api

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/pjecz/hercules-api/pkg/auth"
	"github.com/pjecz/hercules-api/pkg/httputil"
	"github.com/pjecz/hercules-api/pkg/observability"
	"github.com/pjecz/hercules-api/pkg/rbac"
)

type stubUsers struct {
	identity *auth.Identity
	err      error
}

func (s *stubUsers) GetActiveUserByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

type stubPresigner struct {
	url string
	err error
}

func (s stubPresigner) PresignDownload(ctx context.Context, archivo string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

// viewerGrants covers every module at the view level plus edit on the
// modules that accept RAG updates
func viewerGrants() []rbac.Grant {
	grants := []rbac.Grant{}
	for _, module := range []string{
		rbac.ModuleDistritos, rbac.ModuleAutoridades, rbac.ModuleMaterias,
		rbac.ModuleMateriasTiposJuicios, rbac.ModuleSentencias, rbac.ModuleEdictos,
		rbac.ModuleListasDeAcuerdos, rbac.ModuleModulos, rbac.ModulePermisos,
		rbac.ModuleRoles, rbac.ModuleUsuarios, rbac.ModuleUsuariosRoles,
	} {
		grants = append(grants, rbac.Grant{Module: module, Level: rbac.LevelView})
	}
	grants = append(grants,
		rbac.Grant{Module: rbac.ModuleSentencias, Level: rbac.LevelEdit},
		rbac.Grant{Module: rbac.ModuleEdictos, Level: rbac.LevelEdit},
	)
	return grants
}

func testIdentity(t *testing.T, grants []rbac.Grant) *auth.Identity {
	t.Helper()
	hash, err := auth.HashPassword("Password123")
	require.NoError(t, err)

	identity := &auth.Identity{ID: 7, Email: "actuario@pjecz.gob.mx", PasswordHash: hash}
	identity.SetGrants(grants)
	return identity
}

// newTestServer builds a server over a mocked database and returns it with
// a valid Authorization header value for the given grants
func newTestServer(t *testing.T, db *sql.DB, documents DocumentPresigner, grants []rbac.Grant) (*Server, string) {
	t.Helper()
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	identity := testIdentity(t, grants)
	service := auth.NewService(&stubUsers{identity: identity}, auth.NewTokenSigner("test-secret"), logger)

	server := NewServer(ServerConfig{
		DB:          db,
		AuthService: service,
		Documents:   documents,
		Logger:      logger,
	})

	token, err := service.IssueToken(identity)
	require.NoError(t, err)
	return server, "Bearer " + token
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) httputil.Envelope {
	t.Helper()
	var envelope httputil.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

type driverValue = driver.Value

var distritoCols = []string{"id", "clave", "nombre", "nombre_corto",
	"es_distrito_judicial", "es_distrito", "es_jurisdiccional"}

func sqlmockRows(t *testing.T, cols []string, rows [][]driverValue) *sqlmock.Rows {
	t.Helper()
	result := sqlmock.NewRows(cols)
	for _, row := range rows {
		result.AddRow(row...)
	}
	return result
}

// listData pulls the pagination payload out of a decoded envelope
func listData(t *testing.T, envelope httputil.Envelope) map[string]interface{} {
	t.Helper()
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok, "expected list data, got %T", envelope.Data)
	return data
}
