package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaultguard/credential-vault/internal/api/metrics"
	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
	"github.com/vaultguard/credential-vault/internal/core/strength"
)

// AlertCounter reports how many open alerts a user has.
type AlertCounter interface {
	CountUnresolved(ctx context.Context, userID string) (int64, error)
}

// VaultHandler handles HTTP requests for vault entries.
type VaultHandler struct {
	service ports.VaultService
	alerts  AlertCounter
}

func NewVaultHandler(service ports.VaultService, alerts AlertCounter) *VaultHandler {
	return &VaultHandler{service: service, alerts: alerts}
}

// List handles GET /v1/passwords.
//
// @Summary      List vault entries
// @Tags         passwords
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   entryResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/passwords [get]
func (h *VaultHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	entries, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/passwords/:id.
//
// @Summary      Get a vault entry
// @Tags         passwords
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entry id"
// @Success      200  {object}  entryResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/passwords/{id} [get]
func (h *VaultHandler) Get(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	entry, err := h.service.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResponse(entry))
}

// Create handles POST /v1/passwords.
//
// @Summary      Store a new vault entry
// @Tags         passwords
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createEntryRequest  true  "Entry"
// @Success      201   {object}  entryResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /v1/passwords [post]
func (h *VaultHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req createEntryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := h.service.Create(c.Request().Context(), ports.CreateEntryInput{
		UserID:   userID,
		Title:    req.Title,
		Username: req.Username,
		URL:      req.URL,
		Notes:    req.Notes,
		Category: req.Category,
		Payload:  req.Payload,
		Meta:     requestMeta(c),
	})
	if err != nil {
		return err
	}

	metrics.VaultMutationsTotal.WithLabelValues(domain.ActionCreatePassword).Inc()
	metrics.EntryStrength.Observe(float64(entry.Strength))
	return c.JSON(http.StatusCreated, toEntryResponse(entry))
}

// Update handles PATCH /v1/passwords/:id.
//
// @Summary      Update a vault entry
// @Tags         passwords
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Entry id"
// @Param        body  body      updateEntryRequest  true  "Fields to change"
// @Success      200   {object}  entryResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/passwords/{id} [patch]
func (h *VaultHandler) Update(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	var req updateEntryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	entry, err := h.service.Update(c.Request().Context(), ports.UpdateEntryInput{
		UserID:  userID,
		EntryID: c.Param("id"),
		Patch: domain.EntryPatch{
			Title:    req.Title,
			Username: req.Username,
			URL:      req.URL,
			Notes:    req.Notes,
			Category: req.Category,
			Payload:  req.Payload,
		},
		Meta: requestMeta(c),
	})
	if err != nil {
		return err
	}

	metrics.VaultMutationsTotal.WithLabelValues(domain.ActionUpdatePassword).Inc()
	if req.Payload != nil {
		metrics.EntryStrength.Observe(float64(entry.Strength))
	}
	return c.JSON(http.StatusOK, toEntryResponse(entry))
}

// Delete handles DELETE /v1/passwords/:id.
//
// @Summary      Delete a vault entry
// @Tags         passwords
// @Security     BearerAuth
// @Param        id   path  string  true  "Entry id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/passwords/{id} [delete]
func (h *VaultHandler) Delete(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	ok, err := h.service.Delete(c.Request().Context(), userID, c.Param("id"), requestMeta(c))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}

	metrics.VaultMutationsTotal.WithLabelValues(domain.ActionDeletePassword).Inc()
	return c.NoContent(http.StatusNoContent)
}

// Stats handles GET /v1/stats.
//
// @Summary      Vault health statistics
// @Tags         passwords
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statsResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/stats [get]
func (h *VaultHandler) Stats(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	st, err := h.service.Stats(ctx, userID)
	if err != nil {
		return err
	}
	open, err := h.alerts.CountUnresolved(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toStatsResponse(st, open))
}

func toEntryResponse(e *domain.CredentialEntry) entryResponse {
	return entryResponse{
		ID:        e.ID,
		Title:     e.Title,
		Username:  e.Username,
		URL:       e.URL,
		Notes:     e.Notes,
		Category:  e.Category,
		Payload:   e.Payload,
		Strength:  e.Strength,
		Class:     string(strength.Classify(e.Strength)),
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

func toStatsResponse(st *domain.PasswordStats, openAlerts int64) statsResponse {
	denom := st.Total
	if denom < 1 {
		denom = 1
	}
	return statsResponse{
		Total:            st.Total,
		Strong:           st.Strong,
		Weak:             st.Weak,
		Medium:           st.Medium,
		StrongPercent:    percent(st.Strong, denom),
		WeakPercent:      percent(st.Weak, denom),
		UnresolvedAlerts: openAlerts,
	}
}

// percent rounds to one decimal place.
func percent(n, denom int) float64 {
	return float64(n*1000/denom) / 10
}
