package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/app"
	"adminpanel/internal/repository"
	"adminpanel/internal/transport/http/middleware"
	"adminpanel/internal/validation"
)

func TestLoginIssuesTokenAndCookie(t *testing.T) {
	env := newTestEnv(t)
	repo := repository.NewUserRepository(env.db)
	_, err := app.NewUserService(repo, validation.New(), 10).
		Create(context.Background(), app.UserInput{Name: "Ana", Email: "ana@x.com", Password: "secret1"})
	require.NoError(t, err)

	authHandler := NewAuthHandler(app.NewAuthService(repo, "secret", time.Hour))
	engine := gin.New()
	engine.POST("/login", authHandler.Login)
	engine.GET("/me", middleware.AuthJWT("secret"), authHandler.Me)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"ana@x.com","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	var result app.AuthResult
	require.NoError(t, json.Unmarshal(res.Data, &result))
	assert.NotEmpty(t, result.Token)

	var authCookie *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.AuthCookieName {
			authCookie = cookie
		}
	}
	require.NotNil(t, authCookie)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(authCookie)
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ana@x.com")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"ana@x.com","password":"nope-nope"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
