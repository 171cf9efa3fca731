package schedule

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/booking"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

// Handler serves doctors, specializations and weekly schedules.
type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/doctors", h.ListDoctors)
	r.GET("/doctors/:id", h.GetDoctor)
	r.PUT("/doctors/:id/schedule", middleware.RequireRole(model.RoleStaff, model.RoleAdmin), h.SetDoctorSchedule)
	r.GET("/specializations", h.ListSpecializations)

	r.GET("/schedule/:doctorId", h.GetSchedule)
	r.GET("/schedule/:doctorId/slots", h.ListSlots)
	r.PUT("/doctor/schedule", middleware.RequireRole(model.RoleDoctor), h.SetOwnSchedule)
}

func (h *Handler) ListDoctors(c *gin.Context) {
	specID, ok := handler.UUIDQuery(c, "specializationId")
	if !ok {
		return
	}
	filter := model.DoctorFilter{SpecializationID: specID, ActiveOnly: true}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			handler.RespondError(c, apperrors.InvalidField("active", "must be true or false"))
			return
		}
		filter.ActiveOnly = active
	}

	docs, err := h.service.ListDoctors(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if docs == nil {
		docs = []*model.Doctor{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(docs))
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.GetDoctor(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(doc))
}

func (h *Handler) ListSpecializations(c *gin.Context) {
	specs, err := h.service.ListSpecializations(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if specs == nil {
		specs = []*model.Specialization{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(specs))
}

func (h *Handler) GetSchedule(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "doctorId")
	if !ok {
		return
	}
	weekly, err := h.service.GetWeeklySchedule(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(weekly))
}

func (h *Handler) ListSlots(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "doctorId")
	if !ok {
		return
	}
	av, err := h.service.ListAvailableSlots(c.Request.Context(), id, c.Query("date"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(av))
}

func (h *Handler) SetOwnSchedule(c *gin.Context) {
	var req model.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	weekly, err := h.service.SetOwnSchedule(c.Request.Context(), middleware.MustPrincipal(c), req.Schedules)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("schedule updated", weekly))
}

func (h *Handler) SetDoctorSchedule(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req model.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	weekly, err := h.service.SetWeeklySchedule(c.Request.Context(), middleware.MustPrincipal(c), id, req.Schedules)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("schedule updated", weekly))
}
