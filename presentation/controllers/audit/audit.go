package audit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nemaks/recordstore/application/usecases/audit"
	"github.com/nemaks/recordstore/domain/apperror"
	"github.com/nemaks/recordstore/domain/filter"
	"github.com/nemaks/recordstore/domain/model"
	"github.com/nemaks/recordstore/presentation/middlewares"
)

type AuditController interface {
	LogEvent(ctx *gin.Context)
	BatchLogEvents(ctx *gin.Context)
	GetLogs(ctx *gin.Context)
}

type auditController struct {
	usecase audit.AuditUseCase
}

func NewAuditController(usecase audit.AuditUseCase) AuditController {
	return &auditController{usecase: usecase}
}

func (c *auditController) LogEvent(ctx *gin.Context) {
	var req LogEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: middlewares.TranslateValidationError(err),
		})
		return
	}

	entry, err := c.usecase.LogEvent(ctx.Request.Context(), model.AuditEvent{
		UserID:     req.UserID,
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Scope:      req.Scope,
		Details:    req.Details,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
	})
	if err != nil {
		respondError(ctx, "log_failed", err)
		return
	}

	ctx.JSON(http.StatusCreated, LogEventResponse{
		Success: true,
		ID:      entry.ID,
	})
}

func (c *auditController) BatchLogEvents(ctx *gin.Context) {
	var req BatchLogEventsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: middlewares.TranslateValidationError(err),
		})
		return
	}

	events := make([]model.AuditEvent, 0, len(req.Events))
	for _, e := range req.Events {
		events = append(events, model.AuditEvent(e))
	}

	count, err := c.usecase.BatchLogEvents(ctx.Request.Context(), events)
	if err != nil {
		respondError(ctx, "batch_failed", err)
		return
	}

	ctx.JSON(http.StatusOK, BatchLogEventsResponse{Count: count})
}

func (c *auditController) GetLogs(ctx *gin.Context) {
	var f filter.AuditLogFilter
	if raw := strings.TrimSpace(ctx.Query("user_id")); raw != "" {
		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "user_id must be a non-negative integer",
			})
			return
		}
		f.UserID = userID
	}
	f.Action = ctx.Query("action")

	page, err := c.usecase.GetLogs(ctx.Request.Context(), f, lenientInt(ctx.Query("page")), lenientInt(ctx.Query("limit")))
	if err != nil {
		respondError(ctx, "fetch_failed", err)
		return
	}

	entries := make([]AuditLogResponse, 0, len(page.Entries))
	for _, e := range page.Entries {
		entries = append(entries, AuditLogResponse{
			ID:         e.ID,
			UserID:     e.UserID,
			Action:     e.Action,
			TargetType: e.TargetType,
			TargetID:   e.TargetID,
			Scope:      e.Scope,
			Details:    e.Details,
			IPAddress:  e.IPAddress,
			UserAgent:  e.UserAgent,
			CreatedAt:  e.FormattedCreatedAt(),
		})
	}

	ctx.JSON(http.StatusOK, GetLogsResponse{
		Entries: entries,
		Total:   page.Total,
	})
}

// lenientInt treats a missing or malformed number as 0; the use case clamps it.
func lenientInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func respondError(ctx *gin.Context, code string, err error) {
	_ = ctx.Error(err)

	if apperror.KindOf(err) == apperror.KindValidation {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: apperror.Message(err),
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   code,
		Message: apperror.Message(err),
	})
}
