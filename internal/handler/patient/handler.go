package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients", middleware.RequireAuth())
	{
		patients.GET("/me/record", h.GetOwnRecord)
		patients.GET("/:userId/record", h.GetRecord)
		patients.POST("/:userId/record/consultations", h.AddConsultation)
		patients.GET("/:userId/record/consultations/:entryId", h.GetConsultation)
		patients.PUT("/:userId/record/medical-info", h.UpdateMedicalInfo)
	}
}

func (h *Handler) GetOwnRecord(c *gin.Context) {
	p := middleware.MustPrincipal(c)
	rec, err := h.service.GetRecord(c.Request.Context(), p, p.UserID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}

func (h *Handler) GetRecord(c *gin.Context) {
	userID, ok := handler.UUIDParam(c, "userId")
	if !ok {
		return
	}
	rec, err := h.service.GetRecord(c.Request.Context(), middleware.MustPrincipal(c), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}

func (h *Handler) AddConsultation(c *gin.Context) {
	userID, ok := handler.UUIDParam(c, "userId")
	if !ok {
		return
	}
	var req model.AddConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	entry, err := h.service.AddConsultation(c.Request.Context(), middleware.MustPrincipal(c), userID, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(entry))
}

func (h *Handler) GetConsultation(c *gin.Context) {
	userID, ok := handler.UUIDParam(c, "userId")
	if !ok {
		return
	}
	entryID, ok := handler.UUIDParam(c, "entryId")
	if !ok {
		return
	}
	entry, err := h.service.GetConsultation(c.Request.Context(), middleware.MustPrincipal(c), userID, entryID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

func (h *Handler) UpdateMedicalInfo(c *gin.Context) {
	userID, ok := handler.UUIDParam(c, "userId")
	if !ok {
		return
	}
	var req model.UpdateMedicalInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	rec, err := h.service.UpdateMedicalInfo(c.Request.Context(), middleware.MustPrincipal(c), userID, req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}
