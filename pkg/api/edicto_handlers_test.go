package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pjecz/hercules-api/pkg/rbac"
)

var edictoCols = []string{"id", "clave", "fecha", "descripcion", "expediente",
	"numero_publicacion", "archivo", "url", "creado"}

func edictoRow(id int64) []driverValue {
	fecha := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	creado := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	return []driverValue{id, "TRC-J2-CIV", fecha, "EDICTO", "45/2024",
		"12", "edictos/45.pdf", "", creado}
}

func TestListEdictosNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM edictos e`).
		WillReturnRows(sqlmockRows(t, []string{"count"}, [][]driverValue{{int64(2)}}))
	mock.ExpectQuery(`ORDER BY e\.id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmockRows(t, edictoCols, [][]driverValue{edictoRow(9), edictoRow(8)}))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/edictos", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	items := listData(t, envelope)["items"].([]interface{})
	require.Len(t, items, 2)
	assert.EqualValues(t, 9, items[0].(map[string]interface{})["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEdictoRAGChecksOwnModule(t *testing.T) {
	db, _ := newMockDB(t)

	// edit on rulings but only view on notices must not be enough
	grants := viewerGrants()[:12]
	grants = append(grants, rbac.Grant{Module: rbac.ModuleSentencias, Level: rbac.LevelEdit})
	server, header := newTestServer(t, db, nil, grants)

	body := `{"id":9,"analisis":"x"}`
	r := httptest.NewRequest(http.MethodPut, "/api/v5/edictos/rag", strings.NewReader(body))
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateEdictoRAG(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	mock.ExpectExec(`UPDATE edictos SET rag_categorias = \$1, rag_fue_categorizado_tiempo = CURRENT_TIMESTAMP WHERE id = \$2 AND estatus = 'A'`).
		WithArgs("CIVIL", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"id":9,"categorias":"CIVIL"}`
	r := httptest.NewRequest(http.MethodPut, "/api/v5/edictos/rag", strings.NewReader(body))
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEdictoDetail(t *testing.T) {
	db, mock := newMockDB(t)
	server, header := newTestServer(t, db, nil, viewerGrants())

	cols := append(append([]string{}, edictoCols...),
		"rag_analisis", "rag_sintesis", "rag_categorias", "estatus")
	row := append(edictoRow(9), nil, nil, "CIVIL", "A")
	mock.ExpectQuery(`WHERE e\.id = \$1`).
		WithArgs(9).
		WillReturnRows(sqlmockRows(t, cols, [][]driverValue{row}))

	r := httptest.NewRequest(http.MethodGet, "/api/v5/edictos/9", nil)
	r.Header.Set("Authorization", header)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.True(t, envelope.Success)
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "CIVIL", data["rag_categorias"])
	assert.Equal(t, "2024-06-01", data["fecha"])
}
