package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootBannerNeedsNoToken(t *testing.T) {
	db, _ := newMockDB(t)
	server, _ := newTestServer(t, db, nil, viewerGrants())

	r := httptest.NewRequest(http.MethodGet, "/api/v5", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	db, _ := newMockDB(t)
	server, _ := newTestServer(t, db, nil, viewerGrants())

	r := httptest.NewRequest(http.MethodGet, "/api/v5/distritos", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	envelope := decodeEnvelope(t, w)
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Errors)
}

func TestProtectedRouteInsufficientLevel(t *testing.T) {
	db, _ := newMockDB(t)
	// view only, no edit anywhere
	grants := viewerGrants()[:12]
	server, header := newTestServer(t, db, nil, grants)

	r := httptest.NewRequest(http.MethodPut, "/api/v5/sentencias/rag", strings.NewReader(`{"id":1,"analisis":"x"}`))
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.False(t, envelope.Success)
}

func TestUnknownRouteEnvelope(t *testing.T) {
	db, _ := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	r := httptest.NewRequest(http.MethodGet, "/api/v5/no-such-thing", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.False(t, envelope.Success)
}

func TestTokenEndpointSuccess(t *testing.T) {
	db, _ := newMockDB(t)
	server, _ := newTestServer(t, db, nil, viewerGrants())

	form := url.Values{"username": {"actuario@pjecz.gob.mx"}, "password": {"Password123"}}
	r := httptest.NewRequest(http.MethodPost, "/api/v5/token", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token"`)
	assert.Contains(t, w.Body.String(), `"token_type":"bearer"`)
	assert.Contains(t, w.Body.String(), `"expires_in":3600`)
	assert.Contains(t, w.Body.String(), `"username":"actuario@pjecz.gob.mx"`)
}

func TestTokenEndpointWrongPassword(t *testing.T) {
	db, _ := newMockDB(t)
	server, _ := newTestServer(t, db, nil, viewerGrants())

	form := url.Values{"username": {"actuario@pjecz.gob.mx"}, "password": {"Wrongpass1"}}
	r := httptest.NewRequest(http.MethodPost, "/api/v5/token", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	envelope := decodeEnvelope(t, w)
	assert.False(t, envelope.Success)
}

func TestTokenEndpointMissingFields(t *testing.T) {
	db, _ := newMockDB(t)
	server, _ := newTestServer(t, db, nil, viewerGrants())

	r := httptest.NewRequest(http.MethodPost, "/api/v5/token", strings.NewReader("username=actuario%40pjecz.gob.mx"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenWorksAgainstProtectedRoute(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM distritos`).
		WillReturnRows(sqlmockRows(t, []string{"count"}, [][]driverValue{{int64(0)}}))
	mock.ExpectQuery(`SELECT id, clave, nombre, nombre_corto`).
		WillReturnRows(sqlmockRows(t, distritoCols, nil))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/distritos", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
