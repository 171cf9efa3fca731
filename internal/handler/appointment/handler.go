package appointment

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/booking"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// FormRedirect is where the legacy booking form lands afterwards.
const FormRedirect = "/appointments.html"

type Handler struct {
	service *booking.Service
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments", middleware.RequireAuth())
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.DELETE("/:id", h.CancelAppointment)
		appointments.PUT("/:id/status", h.UpdateStatus)
		appointments.PUT("/:id/archive", middleware.RequireRole(model.RoleStaff, model.RoleAdmin), h.ToggleArchive)
	}
	h.RegisterFormRoutes(r)
}

// RegisterFormRoutes mounts the browser form endpoint.
func (h *Handler) RegisterFormRoutes(r *gin.RouterGroup) {
	r.POST("/save-data", middleware.RequireAuth(), h.SaveForm)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	a, err := h.service.CreateAppointment(c.Request.Context(), middleware.MustPrincipal(c), req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewMessageResponse("appointment booked", a))
}

// SaveForm books from a url-encoded form and redirects with the outcome.
func (h *Handler) SaveForm(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBind(&req); err != nil {
		msg := "invalid request body"
		if fe, ok := validator.FirstError(err); ok {
			msg = fe.Message
		}
		redirect(c, "error", msg)
		return
	}

	a, err := h.service.CreateAppointment(c.Request.Context(), middleware.MustPrincipal(c), req)
	if err != nil {
		_, body := handler.ErrorBody(err)
		redirect(c, "error", body.Message)
		return
	}
	redirect(c, "message", fmt.Sprintf("Appointment booked with Dr. %s on %s at %s", a.DoctorName, a.Date, a.Time))
}

func redirect(c *gin.Context, key, msg string) {
	c.Redirect(http.StatusFound, FormRedirect+"?"+key+"="+url.QueryEscape(msg))
}

// ListAppointments returns booked times when doctorId and date are both
// given, otherwise the caller's visible appointments.
func (h *Handler) ListAppointments(c *gin.Context) {
	doctorID, ok := handler.UUIDQuery(c, "doctorId")
	if !ok {
		return
	}
	date := c.Query("date")

	if c.Query("doctorId") != "" && date != "" {
		times, err := h.service.BookedTimes(c.Request.Context(), doctorID, date)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		if times == nil {
			times = []model.TimeSlot{}
		}
		c.JSON(http.StatusOK, handler.NewSuccessResponse(times))
		return
	}

	filter := model.AppointmentFilter{DoctorID: doctorID, Date: date}
	if raw := c.Query("status"); raw != "" {
		status, err := model.ParseAppointmentStatus(raw)
		if err != nil {
			handler.RespondError(c, apperrors.InvalidField("status", "must be one of Scheduled, Completed, Cancelled"))
			return
		}
		filter.Status = status
	}
	if raw := c.Query("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			handler.RespondError(c, apperrors.InvalidField("archived", "must be true or false"))
			return
		}
		filter.Archived = &archived
	}
	if err := c.ShouldBindQuery(&filter.Pagination); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	list, err := h.service.ListAppointments(c.Request.Context(), middleware.MustPrincipal(c), filter)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if list == nil {
		list = []*model.Appointment{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	a, err := h.service.GetAppointment(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	a, err := h.service.CancelAppointment(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("appointment cancelled", a))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}
	a, err := h.service.UpdateStatus(c.Request.Context(), middleware.MustPrincipal(c), id, req.Status)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}

func (h *Handler) ToggleArchive(c *gin.Context) {
	id, ok := handler.UUIDParam(c, "id")
	if !ok {
		return
	}
	a, err := h.service.ToggleArchive(c.Request.Context(), middleware.MustPrincipal(c), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}
