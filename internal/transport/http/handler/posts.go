package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/app"
	"adminpanel/internal/transport/http/inertia"
	"adminpanel/internal/transport/http/response"
)

const pictureField = "picture"

type PostHandler struct {
	postService *app.PostService
	pageResponder
}

type PostRequest struct {
	Title   *string `json:"title" form:"title"`
	Content *string `json:"content" form:"content"`
}

func NewPostHandler(postService *app.PostService, pages *inertia.Renderer, flash FlashStore) *PostHandler {
	return &PostHandler{
		postService: postService,
		pageResponder: pageResponder{
			pages: pages,
			flash: flash,
			index: "/posts",
		},
	}
}

func (h *PostHandler) Index(c *gin.Context) {
	page, err := h.postService.List(c.Request.Context(), parsePage(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	if inertia.WantsJSON(c) {
		response.OK(c, page)
		return
	}
	h.render(c, "Posts/Index", gin.H{"posts": page})
}

func (h *PostHandler) Store(c *gin.Context) {
	var req PostRequest
	if err := bind(c, &req); err != nil {
		h.badRequest(c)
		return
	}

	upload, closeUpload, err := readUpload(c)
	if err != nil {
		h.badRequest(c)
		return
	}
	defer closeUpload()

	post, err := h.postService.Create(c.Request.Context(), app.PostInput{
		Title:   deref(req.Title),
		Content: deref(req.Content),
	}, upload)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.done(c, http.StatusCreated, app.MsgPostCreated, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, app.ErrPostNotFound)
		return
	}

	var req PostRequest
	if err := bind(c, &req); err != nil {
		h.badRequest(c)
		return
	}

	upload, closeUpload, err := readUpload(c)
	if err != nil {
		h.badRequest(c)
		return
	}
	defer closeUpload()

	post, err := h.postService.Update(c.Request.Context(), id, app.PostPatch{
		Title:   req.Title,
		Content: req.Content,
	}, upload)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.done(c, http.StatusOK, app.MsgPostUpdated, post)
}

func (h *PostHandler) Destroy(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, app.ErrPostNotFound)
		return
	}

	if err := h.postService.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.done(c, http.StatusOK, app.MsgPostDeleted, nil)
}

// readUpload returns nil when the request carries no picture part.
func readUpload(c *gin.Context) (*app.Upload, func(), error) {
	noop := func() {}

	fileHeader, err := c.FormFile(pictureField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, noop, err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &app.Upload{
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: contentType,
		Body:        file,
	}, func() { _ = file.Close() }, nil
}
