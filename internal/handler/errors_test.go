package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(h gin.HandlerFunc) (*httptest.ResponseRecorder, response.Response) {
	r := gin.New()
	r.GET("/", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"not found", repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
		{"wrapped not found", fmt.Errorf("get post: %w", repository.ErrNotFound), http.StatusNotFound, response.ErrNotFound},
		{"group full", repository.ErrGroupFull, http.StatusConflict, response.ErrGroupFull},
		{"banned", service.ErrAccountBanned, http.StatusForbidden, response.ErrAccountBanned},
		{"unique", &pgconn.PgError{Code: "23505"}, http.StatusConflict, response.ErrConflict},
		{"foreign key", fmt.Errorf("delete: %w", &pgconn.PgError{Code: "23503"}), http.StatusConflict, response.ErrDependencyExists},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := classify(tt.err)
			assert.Equal(t, tt.status, m.status)
			assert.Equal(t, tt.code, m.code)
		})
	}
}

func TestFailValidationMappingCarriesField(t *testing.T) {
	w, body := serve(func(c *gin.Context) { fail(c, service.ErrNoParticipants) })

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, response.ErrValidation, body.Error.Code)
	assert.Contains(t, body.Error.Fields, "participant_ids")
}

func TestFailInternalRecordsContextError(t *testing.T) {
	var recorded []*gin.Error
	w, body := serve(func(c *gin.Context) {
		fail(c, errors.New("db down"))
		recorded = c.Errors
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, response.ErrInternal, body.Error.Code)
	require.Len(t, recorded, 1)
	assert.EqualError(t, recorded[0].Err, "db down")
}

func TestFailSQLExposesPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:    "42P01",
		Message: `relation "nope" does not exist`,
		Hint:    "check the table name",
	}
	w, body := serve(func(c *gin.Context) { failSQL(c, fmt.Errorf("execute: %w", pgErr)) })

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, response.ErrSQL, body.Error.Code)
	assert.Equal(t, "42P01", body.Error.Fields["sqlstate"])
	assert.Equal(t, `relation "nope" does not exist`, body.Error.Fields["detail"])
	assert.Equal(t, "check the table name", body.Error.Fields["hint"])
	assert.NotContains(t, body.Error.Fields, "pg_detail")
}

func TestFailSQLFallsBackToMapping(t *testing.T) {
	w, body := serve(func(c *gin.Context) { failSQL(c, service.ErrEmptyQuery) })

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, response.ErrEmptyQuery, body.Error.Code)
}

func TestPathID(t *testing.T) {
	r := gin.New()
	r.GET("/:id", func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, want := range map[string]int{"/12": http.StatusOK, "/0": http.StatusBadRequest, "/abc": http.StatusBadRequest} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}
}

func TestI18nCatalog(t *testing.T) {
	r := gin.New()
	r.GET("/api/i18n/:lang", NewI18nHandler().Catalog)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/i18n/vi", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Language string                 `json:"language"`
			Messages map[string]interface{} `json:"messages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "vi", body.Data.Language)
	assert.Contains(t, body.Data.Messages, "notifications")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/i18n/fr", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
