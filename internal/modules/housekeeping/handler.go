package housekeeping

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"frontdesk/internal/backend"
	"frontdesk/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	hk := rg.Group("/housekeeping")
	{
		hk.GET("/staff", h.ListHousekeepers)
		hk.GET("/booking-rooms/:id/task", h.GetActiveTask)
		hk.POST("/booking-rooms/:id/task", h.Assign)
		hk.POST("/tasks/:id/cancel", h.Cancel)
	}
}

func (h *Handler) ListHousekeepers(c *gin.Context) {
	staff, err := h.service.Housekeepers(backend.WithToken(c.Request.Context(), c.GetString("token")))
	if err != nil {
		writeError(c, err, "Failed to load housekeepers")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"staff": staff})
}

func (h *Handler) GetActiveTask(c *gin.Context) {
	roomID, ok := paramID(c)
	if !ok {
		return
	}
	task, err := h.service.ActiveTask(backend.WithToken(c.Request.Context(), c.GetString("token")), roomID)
	if err != nil {
		writeError(c, err, "Failed to load housekeeping task")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"task": task})
}

func (h *Handler) Assign(c *gin.Context) {
	roomID, ok := paramID(c)
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err, "Invalid request body")
		return
	}
	ctx := backend.WithToken(c.Request.Context(), c.GetString("token"))
	task, err := h.service.Assign(ctx, c.GetInt64("user_id"), roomID, req.StaffID)
	if err != nil {
		writeError(c, err, "Failed to assign housekeeper")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"task": task})
}

func (h *Handler) Cancel(c *gin.Context) {
	taskID, ok := paramID(c)
	if !ok {
		return
	}
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err, "Invalid request body")
		return
	}
	ctx := backend.WithToken(c.Request.Context(), c.GetString("token"))
	task, err := h.service.Cancel(ctx, c.GetInt64("user_id"), taskID, req.BookingRoomID, req.Confirmed)
	if err != nil {
		writeError(c, err, "Failed to cancel housekeeping task")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"task": task})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrInvalidID):
		response.Error(c, http.StatusBadRequest, "INVALID_ID", err.Error())
	case errors.Is(err, ErrStaffRequired):
		response.Error(c, http.StatusBadRequest, "STAFF_REQUIRED", err.Error())
	case errors.Is(err, ErrConfirmationRequired):
		response.Error(c, http.StatusBadRequest, "CONFIRMATION_REQUIRED", err.Error())
	case errors.Is(err, ErrTaskAlreadyActive):
		response.Error(c, http.StatusConflict, "TASK_ALREADY_ACTIVE", err.Error())
	default:
		_ = c.Error(err)
		var he *backend.HTTPError
		if errors.As(err, &he) {
			status := http.StatusBadGateway
			if he.Status >= 400 && he.Status < 500 {
				status = he.Status
			}
			response.Error(c, status, "BACKEND_ERROR", backend.ServerMessage(err, fallback))
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
