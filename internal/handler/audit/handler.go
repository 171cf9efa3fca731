package audit

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/audit"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/admin/audit-logs", middleware.RequireRole(model.RoleAdmin), h.ListLogs)
}

// ListLogs returns the newest entries first, as JSON or as a CSV download
// with ?format=csv.
func (h *Handler) ListLogs(c *gin.Context) {
	actorID, ok := handler.UUIDQuery(c, "actorId")
	if !ok {
		return
	}
	filter := model.AuditFilter{ActorID: actorID, Action: model.AuditAction(c.Query("action"))}
	if err := c.ShouldBindQuery(&filter.Pagination); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	format := c.DefaultQuery("format", "json")
	if format != "csv" && format != "json" {
		handler.RespondError(c, apperrors.InvalidField("format", "must be json or csv"))
		return
	}

	logs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.RespondError(c, apperrors.Internal(err))
		return
	}
	if logs == nil {
		logs = []*model.AuditLog{}
	}

	if format == "json" {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
		return
	}

	filename := fmt.Sprintf("audit_logs_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"ID", "Actor ID", "Actor", "Action", "Target ID", "Details", "Created At"})
	for _, l := range logs {
		target := ""
		if l.TargetID != nil {
			target = l.TargetID.String()
		}
		_ = w.Write([]string{
			l.ID.String(),
			l.ActorID.String(),
			l.ActorName,
			string(l.Action),
			target,
			l.Details,
			l.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
}
