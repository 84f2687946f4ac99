// Package httpapi exposes the rename service over a thin HTTP API. The
// handlers are glue: they parse ids, delegate to the service and map errors
// to status codes.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"

	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/errs"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/invalidation"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/model"
	"github.com/desarrolladores-de-pila-completa/app-desacoplada-sub000/internal/service"
)

// Handler wires the rename service into HTTP routes.
type Handler struct {
	svc service.RenameService
	inv *invalidation.Coordinator
}

// New constructs a handler with injected collaborators.
func New(svc service.RenameService, inv *invalidation.Coordinator) *Handler {
	return &Handler{svc: svc, inv: inv}
}

// Register mounts all routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/usuarios/:id/rename", h.rename)
	e.POST("/usuarios/:id/rename/preview", h.preview)
	e.GET("/usuarios/:id/redirects/stats", h.redirectStats)
	e.POST("/admin/redirects/cleanup", h.cleanupRedirects)
	e.GET("/admin/cache/stats", h.cacheStats)
	e.POST("/admin/cache/clear", h.cacheClear)
}

type renameRequest struct {
	NewHandle             string `json:"new_handle"`
	DryRun                bool   `json:"dry_run"`
	SkipContentUpdate     bool   `json:"skip_content_update"`
	SkipCacheInvalidation bool   `json:"skip_cache_invalidation"`
	SkipRedirects         bool   `json:"skip_redirects"`
	PreserveUserID        bool   `json:"preserve_user_id"`
}

func userID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "bad user id")
	}
	return id, nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrHandleTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) rename(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "bad request body")
	}

	res, err := h.svc.Rename(c.Request().Context(), id, req.NewHandle, model.RenameOptions{
		DryRun:                req.DryRun,
		SkipContentUpdate:     req.SkipContentUpdate,
		SkipCacheInvalidation: req.SkipCacheInvalidation,
		SkipRedirects:         req.SkipRedirects,
		PreserveUserID:        req.PreserveUserID,
	})
	if err != nil {
		// The structured result still goes out; the status carries the class.
		return c.JSON(statusFor(err), res)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) preview(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "bad request body")
	}

	p, err := h.svc.Preview(c.Request().Context(), id, req.NewHandle)
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) redirectStats(c echo.Context) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	n, err := h.svc.RedirectStats(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int64{"redirects": n})
}

func (h *Handler) cleanupRedirects(c echo.Context) error {
	n, err := h.svc.CleanupExpiredRedirects(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(statusFor(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": n})
}

func (h *Handler) cacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.inv.Stats())
}

func (h *Handler) cacheClear(c echo.Context) error {
	h.inv.ClearAll()
	return c.NoContent(http.StatusNoContent)
}
