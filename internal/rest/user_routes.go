package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sleeptracker/backend/internal/api/sleepv1"
	sleepdomain "sleeptracker/backend/internal/sleeplog/domain"
	userhandler "sleeptracker/backend/internal/user/handler"
)

type userRoutes struct {
	users userhandler.UserService
	log   *zap.Logger
}

func (h *userRoutes) bind(c *gin.Context) (sleepv1.UserRequest, bool) {
	var body sleepv1.UserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, h.log, fmt.Errorf("%w: invalid JSON: %v", sleepdomain.ErrMalformedInput, err))
		return body, false
	}
	if err := sleepv1.Validate(body); err != nil {
		handleError(c, h.log, err)
		return body, false
	}
	return body, true
}

func (h *userRoutes) create(c *gin.Context) {
	body, ok := h.bind(c)
	if !ok {
		return
	}
	u, err := h.users.Create(c.Request.Context(), body.UserName)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	c.Header("Location", "/api/v1/user/"+u.ID)
	respond(c, http.StatusCreated, "User created with success!", sleepv1.FromUser(u))
}

func (h *userRoutes) get(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "User found with success!", sleepv1.FromUser(u))
}

func (h *userRoutes) update(c *gin.Context) {
	body, ok := h.bind(c)
	if !ok {
		return
	}
	u, err := h.users.Update(c.Request.Context(), c.Param("id"), body.UserName)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "User updated with success!", sleepv1.FromUser(u))
}

func (h *userRoutes) delete(c *gin.Context) {
	u, err := h.users.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "User deleted with success!", sleepv1.FromUser(u))
}
