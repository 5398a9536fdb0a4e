package main

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "github.com/nyxwave/fleetmesh/pkg/errors"
	"github.com/nyxwave/fleetmesh/pkg/registry"
	"github.com/nyxwave/fleetmesh/pkg/twin"
	"github.com/nyxwave/fleetmesh/pkg/twinstore"
)

// handlers implements the thin REST façade named in the device-twin wire
// contract: GET/POST/DELETE /devicetwins, GET/PUT /devicetwins/:target,
// GET /devicetwins/records. It never implements business logic beyond
// what twinstore/registry already expose — this is a wire adapter, not a
// second copy of the reconciliation rule.
type handlers struct {
	store    twinstore.Store
	registry *registry.Registry
	validate *validator.Validate
}

func newHandlers(store twinstore.Store, reg *registry.Registry) *handlers {
	return &handlers{store: store, registry: reg, validate: validator.New()}
}

func (h *handlers) register(e *echo.Echo) {
	e.POST("/devicetwins", h.createDevice)
	e.GET("/devicetwins", h.getDevice)
	e.DELETE("/devicetwins", h.deleteDevice)
	e.GET("/devicetwins/records", h.listDevices)
	e.GET("/devicetwins/:target", h.getTarget)
	e.PUT("/devicetwins/:target", h.putTarget)
}

// createDevice handles POST /devicetwins: the minimal admin input to
// provision a new twin (§4.3's NewDeviceRequest).
func (h *handlers) createDevice(c echo.Context) error {
	var req twin.NewDeviceRequest
	if err := c.Bind(&req); err != nil {
		return appErrorResponse(c, apperrors.InvalidArgument("malformed request body", err))
	}
	if err := h.validate.Struct(req); err != nil {
		return appErrorResponse(c, apperrors.InvalidArgument("invalid device request", err))
	}

	t := twin.NewTwin(req, time.Now().UnixNano())
	stored, err := h.store.Insert(c.Request().Context(), req.DeviceID, t)
	if err != nil {
		return appErrorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, stored)
}

// getDevice handles GET /devicetwins?device_id=X, returning the whole
// twin document.
func (h *handlers) getDevice(c echo.Context) error {
	deviceID := c.QueryParam("device_id")
	if deviceID == "" {
		return appErrorResponse(c, apperrors.InvalidArgument("device_id query parameter is required", nil))
	}

	t, err := h.store.SelectByDeviceID(c.Request().Context(), deviceID)
	if err != nil {
		return appErrorResponse(c, err)
	}
	if t == nil {
		return appErrorResponse(c, twinstore.ErrRecordNotFound(deviceID))
	}
	return c.JSON(http.StatusOK, t)
}

// deleteDevice handles DELETE /devicetwins?device_id=X: a hard delete.
func (h *handlers) deleteDevice(c echo.Context) error {
	deviceID := c.QueryParam("device_id")
	if deviceID == "" {
		return appErrorResponse(c, apperrors.InvalidArgument("device_id query parameter is required", nil))
	}

	t, err := h.store.Delete(c.Request().Context(), deviceID)
	if err != nil {
		return appErrorResponse(c, err)
	}
	if t == nil {
		return appErrorResponse(c, twinstore.ErrRecordNotFound(deviceID))
	}
	return c.NoContent(http.StatusNoContent)
}

// listDevices handles GET /devicetwins/records: the unfiltered admin
// listing, backed by twinstore.Store.SelectAll.
func (h *handlers) listDevices(c echo.Context) error {
	twins, err := h.store.SelectAll(c.Request().Context())
	if err != nil {
		return appErrorResponse(c, err)
	}
	return c.JSON(http.StatusOK, twins)
}

// getTarget handles GET /devicetwins/:target?device_id=X, returning just
// the selected property group (or the whole document for "all").
func (h *handlers) getTarget(c echo.Context) error {
	deviceID := c.QueryParam("device_id")
	if deviceID == "" {
		return appErrorResponse(c, apperrors.InvalidArgument("device_id query parameter is required", nil))
	}

	target, ok := twin.ParseTarget(c.Param("target"))
	if !ok {
		return appErrorResponse(c, apperrors.InvalidArgument("unrecognized target: "+c.Param("target"), nil))
	}

	t, err := h.store.SelectByDeviceID(c.Request().Context(), deviceID)
	if err != nil {
		return appErrorResponse(c, err)
	}
	if t == nil {
		return appErrorResponse(c, twinstore.ErrRecordNotFound(deviceID))
	}

	return c.JSON(http.StatusOK, selectTarget(*t, target))
}

func selectTarget(t twin.Twin, target twin.Target) any {
	switch target {
	case twin.TargetMeta:
		return t.Meta
	case twin.TargetTag:
		return t.Tag
	case twin.TargetDesired:
		return t.Desired
	case twin.TargetReported:
		return t.Reported
	default:
		return t
	}
}

// putTarget handles PUT /devicetwins/:target?device_id=X: runs the
// version-reconciliation admission rule (§4.5) on the tag, desired or
// reported group, then — for desired — fans the new value out to the device's
// inbox so it arrives without polling.
func (h *handlers) putTarget(c echo.Context) error {
	deviceID := c.QueryParam("device_id")
	if deviceID == "" {
		return appErrorResponse(c, apperrors.InvalidArgument("device_id query parameter is required", nil))
	}

	target, ok := twin.ParseTarget(c.Param("target"))
	if !ok || target == twin.TargetMeta || target == twin.TargetAll {
		return appErrorResponse(c, apperrors.InvalidArgument("target must be one of tag, desired, reported", nil))
	}

	var props twin.Properties
	if err := c.Bind(&props); err != nil {
		return appErrorResponse(c, apperrors.InvalidArgument("malformed request body", err))
	}

	updated, err := twinstore.Reconcile(c.Request().Context(), h.store, deviceID, target, props)
	if err != nil {
		return appErrorResponse(c, err)
	}

	if target == twin.TargetDesired {
		if err := h.registry.PublishDesiredUpdate(c.Request().Context(), deviceID, updated.Desired); err != nil {
			return appErrorResponse(c, apperrors.Internal("reconciled desired properties but failed to notify device", err))
		}
	}

	return c.JSON(http.StatusOK, updated)
}

// appErrorResponse maps a typed error to the HTTP status the admin API's
// wire contract promises (§7): AppError carries its own HTTPStatus,
// twinstore.StaleWriteError converts to one, and anything else falls back
// to 500.
func appErrorResponse(c echo.Context, err error) error {
	if ae, ok := err.(*apperrors.AppError); ok {
		return c.JSON(ae.HTTPStatus(), echo.Map{"error": ae.Error(), "code": ae.Code})
	}
	if stale, ok := err.(*twinstore.StaleWriteError); ok {
		ae := stale.AsAppError()
		return c.JSON(ae.HTTPStatus(), echo.Map{"error": ae.Error(), "code": ae.Code})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
}
