package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/app"
	"adminpanel/internal/transport/http/inertia"
	"adminpanel/internal/transport/http/response"
)

type UserHandler struct {
	userService *app.UserService
	pageResponder
}

// UserRequest binds both JSON bodies and browser forms. Nil fields were not sent.
type UserRequest struct {
	Name     *string `json:"name" form:"name"`
	Email    *string `json:"email" form:"email"`
	Password *string `json:"password" form:"password"`
}

func NewUserHandler(userService *app.UserService, pages *inertia.Renderer, flash FlashStore) *UserHandler {
	return &UserHandler{
		userService: userService,
		pageResponder: pageResponder{
			pages: pages,
			flash: flash,
			index: "/users",
		},
	}
}

func (h *UserHandler) Index(c *gin.Context) {
	page, err := h.userService.List(c.Request.Context(), parsePage(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	if inertia.WantsJSON(c) {
		response.OK(c, page)
		return
	}
	h.render(c, "Users/Index", gin.H{"users": page})
}

func (h *UserHandler) Store(c *gin.Context) {
	var req UserRequest
	if err := bind(c, &req); err != nil {
		h.badRequest(c)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), app.UserInput{
		Name:     deref(req.Name),
		Email:    deref(req.Email),
		Password: deref(req.Password),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.done(c, http.StatusCreated, app.MsgUserCreated, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, app.ErrUserNotFound)
		return
	}

	var req UserRequest
	if err := bind(c, &req); err != nil {
		h.badRequest(c)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, app.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.done(c, http.StatusOK, app.MsgUserUpdated, user)
}

func (h *UserHandler) Destroy(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.fail(c, app.ErrUserNotFound)
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.done(c, http.StatusOK, app.MsgUserDeleted, nil)
}
