package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/ticketsplit/internal/api/request"
	"github.com/mmynk/ticketsplit/internal/api/response"
)

type UserHandler struct {
	svc    UserService
	totals TotalsService
}

func NewUserHandler(svc UserService, totals TotalsService) *UserHandler {
	return &UserHandler{svc: svc, totals: totals}
}

func (h *UserHandler) HandleListUsers(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusOK, response.FromUsers(users))
}

func (h *UserHandler) HandleCreateUser(c *gin.Context) {
	var input request.CreateUserRequest
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.svc.Create(c.Request.Context(), input.Name)
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusCreated, response.FromUser(user))
}

func (h *UserHandler) HandleGetUser(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusOK, response.FromUser(user))
}

// HandleDeleteUser releases everything the user claimed, then removes the user.
func (h *UserHandler) HandleDeleteUser(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleUserTotal serves GET /users/:id/total?tax=&tip=&tipFlat=.
func (h *UserHandler) HandleUserTotal(c *gin.Context) {
	var query request.TotalQuery
	if !bindQuery(c, &query) {
		return
	}

	userID := c.Param("id")
	breakdown, err := h.totals.UserTotal(c.Request.Context(), userID, query.Surcharges())
	if err != nil {
		response.RenderErr(c, response.FromService(err))
		return
	}
	c.JSON(http.StatusOK, response.FromBreakdown(userID, "", breakdown))
}
