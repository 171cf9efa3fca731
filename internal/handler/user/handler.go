package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/user"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Handler struct {
	service *user.Service
}

func NewHandler(service *user.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/admin/users", middleware.RequireRole(model.RoleStaff, model.RoleAdmin))
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.POST("", middleware.RequireRole(model.RoleAdmin), h.CreateUser)
	}
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	u, err := h.service.CreateUser(c.Request.Context(), middleware.MustPrincipal(c), req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(u))
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	u, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(u))
}

func (h *Handler) ListUsers(c *gin.Context) {
	var filter model.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	if filter.Role != "" {
		role, err := model.ParseRole(string(filter.Role))
		if err != nil {
			handler.RespondError(c, apperrors.InvalidField("role", "must be one of: patient doctor staff admin"))
			return
		}
		filter.Role = role
	}
	users, err := h.service.ListUsers(c.Request.Context(), middleware.MustPrincipal(c), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}
