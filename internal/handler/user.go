package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-share/internal/service"
)

// UserHandler serves account administration.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

type updateUserReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type setAdminReq struct {
	IsAdmin *bool `json:"isAdmin"`
}

// List returns every account. The route is admin only.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx, actor(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]userResp, 0, len(users))
	for i := range users {
		out = append(out, userFrom(&users[i], true))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "success", "data": out})
}

func (h *UserHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	a := actor(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "success", "data": userFrom(u, a.CanManage(u.ID))})
}

// Update changes name and/or email; empty fields are left untouched.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, actor(c), id, req.Name, req.Email)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "success", "data": userFrom(u, true)})
}

// Delete removes an account with its recipes, favorites and sessions.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, actor(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "success"})
}

func (h *UserHandler) SetAdmin(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	var req setAdminReq
	if err := c.Bind(&req); err != nil || req.IsAdmin == nil {
		return badRequest(c, "isAdmin is required")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.SetAdmin(ctx, actor(c), id, *req.IsAdmin)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "success", "data": userFrom(u, true)})
}
