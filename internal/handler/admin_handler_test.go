package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brightstarts/studyvibe-backend/internal/config"
	"github.com/brightstarts/studyvibe-backend/internal/middleware"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSQLRejectsEmptyQuery(t *testing.T) {
	admin := service.NewAdminService(nil, nil, nil, nil, nil, nil, &config.Config{}, zerolog.Nop())
	h := NewAdminHandler(admin)

	r := gin.New()
	r.POST("/sql", func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{UserID: 1})
		c.Next()
	}, h.ExecuteSQL)

	for _, payload := range []string{`{"query":""}`, `{"query":"  \n\t "}`, `{}`} {
		t.Run(payload, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/sql", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, response.ErrEmptyQuery, body.Error.Code)
		})
	}
}
