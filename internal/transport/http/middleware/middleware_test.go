package middleware

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/pkg/jwtutil"
)

func echoMethod() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Method))
	})
}

func TestMethodOverride(t *testing.T) {
	cases := []struct {
		name string
		req  func() *http.Request
		want string
	}{
		{
			name: "urlencoded field",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/users/1", strings.NewReader(url.Values{"_method": {"put"}}.Encode()))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			want: http.MethodPut,
		},
		{
			name: "multipart field",
			req: func() *http.Request {
				var body bytes.Buffer
				w := multipart.NewWriter(&body)
				_ = w.WriteField("_method", "DELETE")
				_ = w.Close()
				r := httptest.NewRequest(http.MethodPost, "/posts/1", &body)
				r.Header.Set("Content-Type", w.FormDataContentType())
				return r
			},
			want: http.MethodDelete,
		},
		{
			name: "header",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/users/1", strings.NewReader(`{}`))
				r.Header.Set("Content-Type", "application/json")
				r.Header.Set(MethodOverrideHeader, "PATCH")
				return r
			},
			want: http.MethodPatch,
		},
		{
			name: "unsupported verb is ignored",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(url.Values{"_method": {"GET"}}.Encode()))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
			want: http.MethodPost,
		},
		{
			name: "only POST is rewritten",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodGet, "/users?_method=DELETE", nil)
				r.Header.Set(MethodOverrideHeader, "DELETE")
				return r
			},
			want: http.MethodGet,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			MethodOverride(echoMethod()).ServeHTTP(rec, tc.req())
			assert.Equal(t, tc.want, rec.Body.String())
		})
	}
}

func TestMethodOverrideKeepsFormReadable(t *testing.T) {
	handler := MethodOverride(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.PostFormValue("name")))
	}))

	req := httptest.NewRequest(http.MethodPost, "/users/1", strings.NewReader(url.Values{"_method": {"PUT"}, "name": {"Ana"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "Ana", rec.Body.String())
}

func newAuthEngine(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", AuthJWT(secret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextEmailKey))
	})
	return engine
}

func TestAuthJWT(t *testing.T) {
	engine := newAuthEngine("secret")
	token, _, err := jwtutil.GenerateToken("secret", time.Hour, 3, "ana@x.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ana@x.com", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFlashSessionIssuesAndReusesID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/", FlashSession(), func(c *gin.Context) {
		c.String(http.StatusOK, FlashSessionID(c))
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	issued := rec.Body.String()
	require.NotEmpty(t, issued)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, issued, cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, issued, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: FlashCookieName, Value: "forged"})
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.NotEqual(t, "forged", rec.Body.String())
}
