package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chachabrian/kwikliner/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), func(c *gin.Context) {
		d := CurrentDriver(c)
		c.JSON(http.StatusOK, gin.H{"id": d.ID, "token": d.Token})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	driverToken, err := utils.GenerateToken(secret, "D1", RoleDriver, time.Hour)
	require.NoError(t, err)
	shipperToken, err := utils.GenerateToken(secret, "S1", "shipper", time.Hour)
	require.NoError(t, err)
	expired, err := utils.GenerateToken(secret, "D1", RoleDriver, -time.Hour)
	require.NoError(t, err)
	foreign, err := utils.GenerateToken("other-secret", "D1", RoleDriver, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"bearer header", "Bearer " + driverToken, "", http.StatusOK},
		{"query token", "", driverToken, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"malformed header", "Token " + driverToken, "", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, "", http.StatusUnauthorized},
		{"not a driver", "Bearer " + shipperToken, "", http.StatusForbidden},
	}

	r := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCurrentDriverKeepsRawToken(t *testing.T) {
	token, err := utils.GenerateToken(secret, "D7", "", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"D7","token":"`+token+`"}`, w.Body.String())
}
