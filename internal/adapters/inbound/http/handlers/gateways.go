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

const (
	ParamID        = "id"
	ParamGatewayID = "gatewayID"
	ParamDeviceID  = "deviceID"

	gatewayViewPath = "/gateway/view/"
)

type GatewayHandler struct {
	app *usecases.WebApplication
	responder
}

func NewGatewayHandler(app *usecases.WebApplication, log logger.Logger) *GatewayHandler {
	return &GatewayHandler{
		app:       app,
		responder: responder{logger: log.Component("gateway_handler")},
	}
}

func (h *GatewayHandler) ListGateways(w http.ResponseWriter, r *http.Request) {
	r = withCacheStatus(w, r)

	gateways, err := h.app.Queries.ListGateways.Execute(r.Context(), queries.ListGatewaysQuery{})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	if len(gateways) == 0 {
		writeNoContent(w)

		return
	}

	writeJSON(w, http.StatusOK, toGatewayResponses(gateways))
}

func (h *GatewayHandler) GetGateway(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseGatewayID(chi.URLParam(r, ParamID))
	if err != nil {
		writeNoContent(w)

		return
	}

	r = withCacheStatus(w, r)

	gateway, err := h.app.Queries.GetGateway.Execute(r.Context(), queries.GetGatewayQuery{ID: id})
	if err != nil {
		h.writeReadError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, toGatewayResponse(gateway))
}

func (h *GatewayHandler) CreateGateway(w http.ResponseWriter, r *http.Request) {
	var req gatewayRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := req.input()
	if err := in.Validate(); err != nil {
		h.writeError(w, r, err)

		return
	}

	gateway, err := h.app.Commands.CreateGateway.Handle(r.Context(), commands.CreateGatewayCommand{Input: in})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	h.logCreated(r, "gateway", gateway.ID.String())

	w.Header().Set(locationHeader, gatewayViewPath+gateway.ID.String())
	writeJSON(w, http.StatusCreated, toGatewayResponse(gateway))
}

func (h *GatewayHandler) UpdateGateway(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, ParamID)

	id, err := model.ParseGatewayID(raw)
	if err != nil {
		writeMalformedID(w, raw)

		return
	}

	var req gatewayRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := req.input()
	if err := in.Validate(); err != nil {
		h.writeError(w, r, err)

		return
	}

	gateway, err := h.app.Commands.UpdateGateway.Handle(r.Context(), commands.UpdateGatewayCommand{ID: id, Input: in})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, toGatewayResponse(gateway))
}

// DeleteGateway answers 200 when a gateway was removed and 204 when there was
// nothing to remove, a malformed id included.
func (h *GatewayHandler) DeleteGateway(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseGatewayID(chi.URLParam(r, ParamID))
	if err != nil {
		writeNoContent(w)

		return
	}

	removed, err := h.app.Commands.DeleteGateway.Handle(r.Context(), commands.DeleteGatewayCommand{ID: id})
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

func (h *GatewayHandler) AttachDevice(w http.ResponseWriter, r *http.Request) {
	gatewayID, deviceID, ok := pairFromPath(w, r)
	if !ok {
		return
	}

	gateway, err := h.app.Commands.AttachDevice.Handle(r.Context(), commands.AttachDeviceCommand{
		GatewayID: gatewayID,
		DeviceID:  deviceID,
	})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, toGatewayResponse(gateway))
}

func (h *GatewayHandler) DetachDevice(w http.ResponseWriter, r *http.Request) {
	gatewayID, deviceID, ok := pairFromPath(w, r)
	if !ok {
		return
	}

	gateway, err := h.app.Commands.DetachDevice.Handle(r.Context(), commands.DetachDeviceCommand{
		GatewayID: gatewayID,
		DeviceID:  deviceID,
	})
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, toGatewayResponse(gateway))
}

// DevicesOf lists the devices attached to a gateway. An empty list is still a 200.
func (h *GatewayHandler) DevicesOf(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseGatewayID(chi.URLParam(r, ParamID))
	if err != nil {
		writeNoContent(w)

		return
	}

	devices, err := h.app.Queries.DevicesOf.Execute(r.Context(), queries.DevicesOfQuery{GatewayID: id})
	if err != nil {
		h.writeReadError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, toDeviceResponses(devices))
}

func pairFromPath(w http.ResponseWriter, r *http.Request) (model.GatewayID, model.DeviceID, bool) {
	rawGateway := chi.URLParam(r, ParamGatewayID)

	gatewayID, err := model.ParseGatewayID(rawGateway)
	if err != nil {
		writeMalformedID(w, rawGateway)

		return model.GatewayID{}, model.DeviceID{}, false
	}

	rawDevice := chi.URLParam(r, ParamDeviceID)

	deviceID, err := model.ParseDeviceID(rawDevice)
	if err != nil {
		writeMalformedID(w, rawDevice)

		return model.GatewayID{}, model.DeviceID{}, false
	}

	return gatewayID, deviceID, true
}
