package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListModulos(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM modulos WHERE estatus = 'A'`).
		WillReturnRows(sqlmockRows(t, []string{"count"}, [][]driverValue{{int64(2)}}))
	mock.ExpectQuery(`SELECT id, nombre FROM modulos WHERE estatus = 'A' ORDER BY nombre`).
		WithArgs(50, 0).
		WillReturnRows(sqlmockRows(t, []string{"id", "nombre"}, [][]driverValue{
			{int64(2), "AUTORIDADES"},
			{int64(1), "DISTRITOS"},
		}))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/modulos", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	items := listData(t, envelope)["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "AUTORIDADES", items[0].(map[string]interface{})["nombre"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRoles(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM roles WHERE estatus = 'A'`).
		WillReturnRows(sqlmockRows(t, []string{"count"}, [][]driverValue{{int64(1)}}))
	mock.ExpectQuery(`SELECT id, nombre FROM roles WHERE estatus = 'A' ORDER BY nombre`).
		WithArgs(50, 0).
		WillReturnRows(sqlmockRows(t, []string{"id", "nombre"}, [][]driverValue{
			{int64(1), "ADMINISTRADOR"},
		}))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/roles", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPermisos(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM permisos p`).
		WillReturnRows(sqlmockRows(t, []string{"count"}, [][]driverValue{{int64(1)}}))
	mock.ExpectQuery(`ORDER BY p\.id LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmockRows(t, []string{"id", "rol", "modulo", "nivel"}, [][]driverValue{
			{int64(1), "ADMINISTRADOR", "DISTRITOS", 4},
		}))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/permisos", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	items := listData(t, envelope)["items"].([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "ADMINISTRADOR", first["rol"])
	assert.EqualValues(t, 4, first["nivel"])
}

func TestGetPermiso(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectQuery(`WHERE p\.id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmockRows(t, []string{"id", "rol", "modulo", "nivel", "estatus"},
			[][]driverValue{{int64(1), "ADMINISTRADOR", "DISTRITOS", 4, "A"}}))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/permisos/1", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)
}

func TestGetPermisoNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectQuery(`WHERE p\.id = \$1`).
		WithArgs(77).
		WillReturnRows(sqlmockRows(t, []string{"id", "rol", "modulo", "nivel", "estatus"}, nil))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/permisos/77", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
