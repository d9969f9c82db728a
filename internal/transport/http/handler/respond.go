package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"adminpanel/internal/app"
	"adminpanel/internal/cache"
	"adminpanel/internal/pkg/logger"
	"adminpanel/internal/transport/http/inertia"
	"adminpanel/internal/transport/http/middleware"
	"adminpanel/internal/transport/http/response"
	"adminpanel/internal/validation"
)

type FlashStore interface {
	Put(ctx context.Context, sessionID string, flash cache.Flash) error
	Pull(ctx context.Context, sessionID string) (cache.Flash, error)
}

// pageResponder shapes every resource response: envelopes for API clients,
// page objects for visits, and flash-carrying redirects after mutations.
type pageResponder struct {
	pages *inertia.Renderer
	flash FlashStore
	index string
}

func (p pageResponder) render(c *gin.Context, component string, props gin.H) {
	flash := p.pull(c)
	errs := flash.Errors
	if errs == nil {
		errs = map[string]string{}
	}
	props["flash"] = gin.H{
		"success": flash.Success,
		"error":   flash.Error,
	}
	props["errors"] = errs
	p.pages.Render(c, component, props)
}

func (p pageResponder) done(c *gin.Context, status int, message string, data interface{}) {
	if inertia.WantsJSON(c) {
		response.Done(c, status, message, data)
		return
	}
	p.put(c, cache.Flash{Success: message})
	inertia.Redirect(c, p.index)
}

func (p pageResponder) fail(c *gin.Context, err error) {
	var fields validation.Errors
	switch {
	case errors.As(err, &fields):
		if inertia.WantsJSON(c) {
			response.Invalid(c, fields)
			return
		}
		p.put(c, cache.Flash{Errors: fields})
		inertia.Back(c, p.index)
	case errors.Is(err, app.ErrUserNotFound):
		p.notFound(c, response.CodeUserNotFound, "User not found.")
	case errors.Is(err, app.ErrPostNotFound):
		p.notFound(c, response.CodePostNotFound, "Post not found.")
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		if inertia.WantsJSON(c) {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "internal server error")
			return
		}
		p.put(c, cache.Flash{Error: "Something went wrong. Please try again."})
		inertia.Back(c, p.index)
	}
}

func (p pageResponder) notFound(c *gin.Context, code int, message string) {
	if inertia.WantsJSON(c) {
		response.Error(c, http.StatusNotFound, code, message)
		return
	}
	p.put(c, cache.Flash{Error: message})
	inertia.Redirect(c, p.index)
}

func (p pageResponder) badRequest(c *gin.Context) {
	if inertia.WantsJSON(c) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	p.put(c, cache.Flash{Error: "Invalid request."})
	inertia.Back(c, p.index)
}

func (p pageResponder) put(c *gin.Context, flash cache.Flash) {
	sessionID := middleware.FlashSessionID(c)
	if sessionID == "" || p.flash == nil {
		return
	}
	if err := p.flash.Put(c.Request.Context(), sessionID, flash); err != nil {
		logger.Warn("store flash failed", zap.Error(err))
	}
}

func (p pageResponder) pull(c *gin.Context) cache.Flash {
	sessionID := middleware.FlashSessionID(c)
	if sessionID == "" || p.flash == nil {
		return cache.Flash{}
	}
	flash, err := p.flash.Pull(c.Request.Context(), sessionID)
	if err != nil {
		logger.Warn("read flash failed", zap.Error(err))
		return cache.Flash{}
	}
	return flash
}

// bind tolerates an empty body; every field of the request structs is optional.
func bind(c *gin.Context, req interface{}) error {
	if err := c.ShouldBind(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parsePage(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
