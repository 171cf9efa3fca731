package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/inventory"
)

type Handler struct {
	service *inventory.Service
}

func NewHandler(service *inventory.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin", middleware.RequireRole(model.RoleStaff, model.RoleAdmin))
	{
		admin.GET("/inventory", h.ListItems)
		admin.POST("/inventory", h.CreateItem)
		admin.PUT("/inventory/:id", h.UpdateItem)
		admin.GET("/financial-records", h.ListPurchases)
		admin.POST("/financial-records", h.RecordPurchase)
	}
}

func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.service.ListItems(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(items))
}

func (h *Handler) CreateItem(c *gin.Context) {
	var req model.CreateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	item, err := h.service.CreateItem(c.Request.Context(), req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(item))
}

func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	item, err := h.service.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(item))
}

func (h *Handler) ListPurchases(c *gin.Context) {
	var p model.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	recs, err := h.service.ListPurchases(c.Request.Context(), p)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(recs))
}

func (h *Handler) RecordPurchase(c *gin.Context) {
	var req model.CreateFinancialRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	rec, err := h.service.RecordPurchase(c.Request.Context(), middleware.MustPrincipal(c), req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(rec))
}
