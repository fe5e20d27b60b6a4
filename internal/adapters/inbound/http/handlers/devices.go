package handlers

import (
	"net/http"

	"github.com/architeacher/gateways/internal/domain/model"
	"github.com/architeacher/gateways/internal/usecases"
	"github.com/architeacher/gateways/internal/usecases/commands"
	"github.com/architeacher/gateways/internal/usecases/queries"
	"github.com/architeacher/gateways/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const deviceViewPath = "/device/view/"

type DeviceHandler struct {
	app *usecases.WebApplication
	responder
}

func NewDeviceHandler(app *usecases.WebApplication, log logger.Logger) *DeviceHandler {
	return &DeviceHandler{
		app:       app,
		responder: responder{logger: log.Component("device_handler")},
	}
}

func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	r = withCacheStatus(w, r)

	devices, err := h.app.Queries.ListDevices.Execute(r.Context(), queries.ListDevicesQuery{})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	if len(devices) == 0 {
		writeNoContent(w)

		return
	}

	writeJSON(w, http.StatusOK, toDeviceResponses(devices))
}

func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseDeviceID(chi.URLParam(r, ParamID))
	if err != nil {
		writeNoContent(w)

		return
	}

	r = withCacheStatus(w, r)

	device, err := h.app.Queries.GetDevice.Execute(r.Context(), queries.GetDeviceQuery{ID: id})
	if err != nil {
		h.writeReadError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, toDeviceResponse(device))
}

func (h *DeviceHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := req.input()
	if err := in.Validate(); err != nil {
		h.writeError(w, r, err)

		return
	}

	device, err := h.app.Commands.CreateDevice.Handle(r.Context(), commands.CreateDeviceCommand{Input: in})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	h.logCreated(r, "device", device.ID.String())

	w.Header().Set(locationHeader, deviceViewPath+device.ID.String())
	writeJSON(w, http.StatusCreated, toDeviceResponse(device))
}

func (h *DeviceHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, ParamID)

	id, err := model.ParseDeviceID(raw)
	if err != nil {
		writeMalformedID(w, raw)

		return
	}

	var req deviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := req.input()
	if err := in.Validate(); err != nil {
		h.writeError(w, r, err)

		return
	}

	device, err := h.app.Commands.UpdateDevice.Handle(r.Context(), commands.UpdateDeviceCommand{ID: id, Input: in})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, toDeviceResponse(device))
}

func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseDeviceID(chi.URLParam(r, ParamID))
	if err != nil {
		writeNoContent(w)

		return
	}

	removed, err := h.app.Commands.DeleteDevice.Handle(r.Context(), commands.DeleteDeviceCommand{ID: id})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	if !removed {
		writeNoContent(w)

		return
	}

	w.WriteHeader(http.StatusOK)
}
