package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vaultguard/credential-vault/internal/api/metrics"
	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
)

// ScanDeduper suppresses repeated scan requests for the same user. Release
// drops a claim whose scan never made it into the queue.
type ScanDeduper interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

// ScanQueue accepts background scan jobs. Enqueue reports false when the
// queue is full.
type ScanQueue interface {
	Enqueue(job ports.ScanJob) bool
}

// AlertHandler handles HTTP requests for security alerts.
type AlertHandler struct {
	service ports.AlertService
	dedup   ScanDeduper
	queue   ScanQueue
}

func NewAlertHandler(service ports.AlertService, dedup ScanDeduper, queue ScanQueue) *AlertHandler {
	return &AlertHandler{service: service, dedup: dedup, queue: queue}
}

// List handles GET /v1/alerts. Only open alerts are returned unless all=true.
//
// @Summary      List security alerts
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Param        all  query     bool  false  "Include resolved alerts"
// @Success      200  {array}   domain.SecurityAlert
// @Failure      400  {object}  errorResponse
// @Router       /v1/alerts [get]
func (h *AlertHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	all := false
	if v := c.QueryParam("all"); v != "" {
		all, err = strconv.ParseBool(v)
		if err != nil {
			return domain.NewValidationError("all", "must be a boolean")
		}
	}

	alerts, err := h.service.List(c.Request().Context(), userID, all)
	if err != nil {
		return err
	}
	if alerts == nil {
		alerts = []*domain.SecurityAlert{}
	}
	return c.JSON(http.StatusOK, alerts)
}

// Resolve handles POST /v1/alerts/:id/resolve.
//
// @Summary      Resolve a security alert
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Alert id"
// @Success      200  {object}  resolveResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	ok, err := h.service.Resolve(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	metrics.AlertsResolvedTotal.Inc()
	return c.JSON(http.StatusOK, resolveResponse{Resolved: true})
}

// Scan handles POST /v1/alerts/scan by queueing a full re-evaluation of the
// caller's vault.
//
// @Summary      Rescan the vault for weak and reused passwords
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Success      202  {object}  scanResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/alerts/scan [post]
func (h *AlertHandler) Scan(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if h.dedup != nil {
		fresh, err := h.dedup.Acquire(c.Request().Context(), userID)
		if err != nil {
			return err
		}
		if !fresh {
			return c.JSON(http.StatusAccepted, scanResponse{Message: "scan already pending", Queued: false})
		}
	}

	if !h.queue.Enqueue(ports.ScanJob{UserID: userID}) {
		if h.dedup != nil {
			// On failure the claim still lapses with its TTL.
			_ = h.dedup.Release(c.Request().Context(), userID)
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "scan queue is full")
	}
	return c.JSON(http.StatusAccepted, scanResponse{Message: "scan queued", Queued: true})
}
