// Package client is a typed client for the admin JSON surface.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"time"
)

type User struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Post struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// Mutation is the server's answer to a create, update or delete.
type Mutation[T any] struct {
	Message string
	Data    T
}

type UserForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// Attachment is a file staged for upload.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type PostForm struct {
	Title   string
	Content string
	Picture *Attachment
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return fmt.Sprintf("api status %d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

func (e *APIError) Invalid() bool {
	return e.Status == http.StatusUnprocessableEntity
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListUsers(ctx context.Context, page int) (*Page[User], error) {
	var out Page[User]
	if _, err := c.do(ctx, http.MethodGet, pagePath("/users", page), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, form UserForm) (*Mutation[User], error) {
	return c.sendUser(ctx, http.MethodPost, "/users", form)
}

// UpdateUser leaves the stored password alone when form.Password is empty.
func (c *Client) UpdateUser(ctx context.Context, id uint, form UserForm) (*Mutation[User], error) {
	return c.sendUser(ctx, http.MethodPut, resourcePath("/users", id), form)
}

func (c *Client) DeleteUser(ctx context.Context, id uint) (string, error) {
	return c.do(ctx, http.MethodDelete, resourcePath("/users", id), nil, "", nil)
}

func (c *Client) ListPosts(ctx context.Context, page int) (*Page[Post], error) {
	var out Page[Post]
	if _, err := c.do(ctx, http.MethodGet, pagePath("/posts", page), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePost(ctx context.Context, form PostForm) (*Mutation[Post], error) {
	return c.sendPost(ctx, "/posts", "", form)
}

// UpdatePost is sent as a POST carrying _method=PUT so the picture can travel
// in a multipart body.
func (c *Client) UpdatePost(ctx context.Context, id uint, form PostForm) (*Mutation[Post], error) {
	return c.sendPost(ctx, resourcePath("/posts", id), http.MethodPut, form)
}

func (c *Client) DeletePost(ctx context.Context, id uint) (string, error) {
	return c.do(ctx, http.MethodDelete, resourcePath("/posts", id), nil, "", nil)
}

func (c *Client) sendUser(ctx context.Context, method, path string, form UserForm) (*Mutation[User], error) {
	body, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("marshal user form failed: %w", err)
	}

	var out Mutation[User]
	out.Message, err = c.do(ctx, method, path, bytes.NewReader(body), "application/json", &out.Data)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) sendPost(ctx context.Context, path, override string, form PostForm) (*Mutation[Post], error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := [][2]string{{"title", form.Title}, {"content", form.Content}}
	if override != "" {
		fields = append(fields, [2]string{"_method", override})
	}
	for _, field := range fields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, fmt.Errorf("write form field failed: %w", err)
		}
	}

	if form.Picture != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="picture"; filename=%q`, form.Picture.Filename))
		contentType := form.Picture.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create picture part failed: %w", err)
		}
		if _, err := part.Write(form.Picture.Data); err != nil {
			return nil, fmt.Errorf("write picture part failed: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body failed: %w", err)
	}

	var out Mutation[Post]
	var err error
	out.Message, err = c.do(ctx, http.MethodPost, path, &body, writer.FormDataContentType(), &out.Data)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one request and unwraps the {code, message, data} envelope.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response failed: %w", err)
	}

	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	decodeErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Code: envelope.Code, Message: envelope.Message}
		if decodeErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if len(envelope.Data) > 0 {
			var data struct {
				Errors map[string]string `json:"errors"`
			}
			if json.Unmarshal(envelope.Data, &data) == nil {
				apiErr.Fields = data.Errors
			}
		}
		return "", apiErr
	}
	if decodeErr != nil {
		return "", fmt.Errorf("parse response json failed: %w", decodeErr)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return "", fmt.Errorf("parse response data failed: %w", err)
		}
	}
	return envelope.Message, nil
}

func pagePath(base string, page int) string {
	if page <= 1 {
		return base
	}
	return base + "?page=" + strconv.Itoa(page)
}

func resourcePath(base string, id uint) string {
	return base + "/" + strconv.FormatUint(uint64(id), 10)
}
