package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"adminpanel/internal/app"
	"adminpanel/internal/cache"
	"adminpanel/internal/model"
	"adminpanel/internal/repository"
	"adminpanel/internal/storage"
	"adminpanel/internal/transport/http/inertia"
	"adminpanel/internal/transport/http/middleware"
	"adminpanel/internal/validation"
)

type testEnv struct {
	handler  http.Handler
	db       *gorm.DB
	storeDir string
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Post{}))

	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	flash := cache.NewFlashStore(client, time.Minute)

	storeDir := t.TempDir()
	store, err := storage.NewLocalStore(storeDir, "/storage")
	require.NoError(t, err)

	validator := validation.New()
	userService := app.NewUserService(repository.NewUserRepository(db), validator, 10)
	postService := app.NewPostService(repository.NewPostRepository(db), store, nil, validator, 10, 0)
	pages := inertia.NewRenderer("Admin", "test")

	engine := gin.New()
	engine.SetHTMLTemplate(pages.Template())
	users := NewUserHandler(userService, pages, flash)
	posts := NewPostHandler(postService, pages, flash)

	group := engine.Group("/", middleware.FlashSession())
	group.GET("/users", users.Index)
	group.POST("/users", users.Store)
	group.PUT("/users/:id", users.Update)
	group.DELETE("/users/:id", users.Destroy)
	group.GET("/posts", posts.Index)
	group.POST("/posts", posts.Store)
	group.PUT("/posts/:id", posts.Update)
	group.DELETE("/posts/:id", posts.Destroy)

	return &testEnv{handler: middleware.MethodOverride(engine), db: db, storeDir: storeDir}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	rec := e.do(req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func flashCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.FlashCookieName {
			return cookie
		}
	}
	t.Fatal("flash cookie not set")
	return nil
}

func (e *testEnv) visit(t *testing.T, path string, cookie *http.Cookie) inertia.Page {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(inertia.HeaderInertia, "true")
	req.AddCookie(cookie)

	rec := e.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	var page inertia.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	return page
}

func formRequest(method, path string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestUserJSONLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec, res := env.doJSON(t, http.MethodPost, "/users", gin.H{"name": "Ana", "email": "ana@x.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User created successfully!", res.Message)
	assert.NotContains(t, string(res.Data), "password")

	var created app.UserView
	require.NoError(t, json.Unmarshal(res.Data, &created))
	assert.Equal(t, "Ana", created.Name)

	rec, res = env.doJSON(t, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page app.Page[app.UserView]
	require.NoError(t, json.Unmarshal(res.Data, &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "ana@x.com", page.Data[0].Email)

	path := "/users/" + itoa(created.ID)
	rec, res = env.doJSON(t, http.MethodPut, path, gin.H{"name": "Ana Maria"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User updated successfully!", res.Message)

	rec, res = env.doJSON(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User deleted successfully!", res.Message)

	rec, res = env.doJSON(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found.", res.Message)
}

func TestUserJSONValidationFailure(t *testing.T) {
	env := newTestEnv(t)

	_, _ = env.doJSON(t, http.MethodPost, "/users", gin.H{"name": "Ana", "email": "ana@x.com", "password": "secret1"})
	rec, res := env.doJSON(t, http.MethodPost, "/users", gin.H{"name": "Copy", "email": "ana@x.com", "password": "secret1"})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var data struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &data))
	assert.Equal(t, "The email has already been taken.", data.Errors["email"])

	var count int64
	require.NoError(t, env.db.Model(&model.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUserUnknownIDIsNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.doJSON(t, http.MethodPut, "/users/abc", gin.H{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.doJSON(t, http.MethodPut, "/users/41", gin.H{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserFormSubmissionRedirectsWithFlash(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(formRequest(http.MethodPost, "/users", url.Values{
		"name":     {"Ana"},
		"email":    {"ana@x.com"},
		"password": {"secret1"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users", rec.Header().Get("Location"))
	cookie := flashCookie(t, rec)

	page := env.visit(t, "/users", cookie)
	assert.Equal(t, "Users/Index", page.Component)
	flash := page.Props["flash"].(map[string]interface{})
	assert.Equal(t, "User created successfully!", flash["success"])
	users := page.Props["users"].(map[string]interface{})
	assert.Len(t, users["data"], 1)

	page = env.visit(t, "/users", cookie)
	flash = page.Props["flash"].(map[string]interface{})
	assert.Empty(t, flash["success"])
}

func TestUserFormValidationRedirectsBack(t *testing.T) {
	env := newTestEnv(t)

	req := formRequest(http.MethodPost, "/users", url.Values{"name": {""}, "email": {"bad"}})
	req.Header.Set("Referer", "/users?page=2")
	rec := env.do(req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users?page=2", rec.Header().Get("Location"))

	page := env.visit(t, "/users", flashCookie(t, rec))
	errs := page.Props["errors"].(map[string]interface{})
	assert.Equal(t, "The name field is required.", errs["name"])
	assert.Equal(t, "The email field must be a valid email address.", errs["email"])
	assert.Equal(t, "The password field is required.", errs["password"])
}

func TestUserFormDeleteViaMethodOverride(t *testing.T) {
	env := newTestEnv(t)

	_, res := env.doJSON(t, http.MethodPost, "/users", gin.H{"name": "Ana", "email": "ana@x.com", "password": "secret1"})
	var created app.UserView
	require.NoError(t, json.Unmarshal(res.Data, &created))

	rec := env.do(formRequest(http.MethodPost, "/users/"+itoa(created.ID), url.Values{"_method": {"DELETE"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	page := env.visit(t, "/users", flashCookie(t, rec))
	flash := page.Props["flash"].(map[string]interface{})
	assert.Equal(t, "User deleted successfully!", flash["success"])
}

func multipartRequest(t *testing.T, path string, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("picture", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return req
}

func decodePost(t *testing.T, rec *httptest.ResponseRecorder) (envelope, app.PostView) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	var post app.PostView
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &post))
	}
	return env, post
}

func TestPostMultipartLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(multipartRequest(t, "/posts", map[string]string{"title": "Hi", "content": "World"}, "cat.png", []byte("png-bytes")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res, created := decodePost(t, rec)
	assert.Equal(t, "Post created successfully!", res.Message)
	require.True(t, strings.HasPrefix(created.Picture, "/storage/posts/"))
	assert.True(t, strings.HasSuffix(created.Picture, ".png"))

	oldFile := filepath.Join(env.storeDir, strings.TrimPrefix(created.Picture, "/storage/"))
	_, err := os.Stat(oldFile)
	require.NoError(t, err)

	path := "/posts/" + itoa(created.ID)
	rec = env.do(multipartRequest(t, path, map[string]string{"_method": "PUT", "content": "World2"}, "", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, updated := decodePost(t, rec)
	assert.Equal(t, "Hi", updated.Title)
	assert.Equal(t, "World2", updated.Content)
	assert.Equal(t, created.Picture, updated.Picture)

	rec = env.do(multipartRequest(t, path, map[string]string{"_method": "PUT"}, "dog.webp", []byte("webp")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, replaced := decodePost(t, rec)
	assert.True(t, strings.HasSuffix(replaced.Picture, ".webp"))
	_, err = os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))

	rec = env.do(multipartRequest(t, path, map[string]string{"_method": "DELETE"}, "", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res, _ = decodePost(t, rec)
	assert.Equal(t, "Post deleted successfully!", res.Message)
}

func TestPostRejectsNonImageUpload(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(multipartRequest(t, "/posts", map[string]string{"title": "Hi", "content": "World"}, "notes.txt", []byte("text")))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "picture")

	entries, err := os.ReadDir(env.storeDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPostsFirstVisitRendersShell(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/posts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="app"`)
	assert.Contains(t, rec.Body.String(), "Posts/Index")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
