package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDistritos(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM distritos WHERE estatus = 'A'`).
		WillReturnRows(sqlmockRows(t, []string{"count"}, [][]driverValue{{int64(2)}}))
	mock.ExpectQuery(`FROM distritos WHERE estatus = 'A' ORDER BY clave`).
		WithArgs(50, 0).
		WillReturnRows(sqlmockRows(t, distritoCols, [][]driverValue{
			{int64(1), "DSAL", "DISTRITO DE SALTILLO", "SALTILLO", true, true, true},
			{int64(2), "DTOR", "DISTRITO DE TORREON", "TORREON", true, true, true},
		}))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/distritos", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)

	data := listData(t, envelope)
	assert.EqualValues(t, 2, data["total"])
	assert.EqualValues(t, 50, data["limit"])
	assert.EqualValues(t, 0, data["offset"])
	items := data["items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "DSAL", first["clave"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDistritosBooleanFilter(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM distritos WHERE estatus = 'A' AND es_distrito = \$1`).
		WithArgs(true).
		WillReturnRows(sqlmockRows(t, []string{"count"}, [][]driverValue{{int64(0)}}))
	mock.ExpectQuery(`FROM distritos WHERE estatus = 'A' AND es_distrito = \$1 ORDER BY clave`).
		WithArgs(true, 50, 0).
		WillReturnRows(sqlmockRows(t, distritoCols, nil))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/distritos?es_distrito=true", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDistritosBadBoolean(t *testing.T) {
	db, _ := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	r := httptest.NewRequest(http.MethodGet, "/api/v5/distritos?es_distrito=maybe", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListDistritosPaginationClamped(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM distritos`).
		WillReturnRows(sqlmockRows(t, []string{"count"}, [][]driverValue{{int64(0)}}))
	// limit above the cap collapses to 500
	mock.ExpectQuery(`FROM distritos`).
		WithArgs(500, 0).
		WillReturnRows(sqlmockRows(t, distritoCols, nil))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/distritos?limit=9999", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDistrito(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	cols := append(append([]string{}, distritoCols...), "estatus")
	mock.ExpectQuery(`FROM distritos WHERE clave = \$1`).
		WithArgs("DSAL").
		WillReturnRows(sqlmockRows(t, cols, [][]driverValue{
			{int64(1), "DSAL", "DISTRITO DE SALTILLO", "SALTILLO", true, true, true, "A"},
		}))

	// lowercase in the path still matches, keys normalize to uppercase
	r := httptest.NewRequest(http.MethodGet, "/api/v5/distritos/dsal", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "DSAL", data["clave"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDistritoNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	cols := append(append([]string{}, distritoCols...), "estatus")
	mock.ExpectQuery(`FROM distritos WHERE clave = \$1`).
		WithArgs("DXXX").
		WillReturnRows(sqlmockRows(t, cols, nil))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/distritos/DXXX", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.False(t, envelope.Success)
}

func TestGetDistritoInactive(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	cols := append(append([]string{}, distritoCols...), "estatus")
	mock.ExpectQuery(`FROM distritos WHERE clave = \$1`).
		WithArgs("DSAL").
		WillReturnRows(sqlmockRows(t, cols, [][]driverValue{
			{int64(1), "DSAL", "DISTRITO DE SALTILLO", "SALTILLO", true, true, true, "B"},
		}))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/distritos/DSAL", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Message, "No es activo")
}

func TestGetDistritoBadClave(t *testing.T) {
	db, _ := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	r := httptest.NewRequest(http.MethodGet, "/api/v5/distritos/d!", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
