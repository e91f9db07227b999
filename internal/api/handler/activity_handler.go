package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
)

type ActivityHandler struct {
	service ports.ActivityService
}

func NewActivityHandler(service ports.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// List handles GET /v1/activity.
//
// @Summary      Recent account activity
// @Tags         activity
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum records to return"
// @Success      200    {array}   domain.ActivityLogEntry
// @Failure      400    {object}  errorResponse
// @Router       /v1/activity [get]
func (h *ActivityHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			return domain.NewValidationError("limit", "must be an integer")
		}
	}

	logs, err := h.service.List(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []*domain.ActivityLogEntry{}
	}
	return c.JSON(http.StatusOK, logs)
}
