package handlers

import (
	"time"

	"github.com/architeacher/gateways/internal/domain/model"
)

type (
	gatewayRequest struct {
		SerialNumber string `json:"serialNumber"`
		Name         string `json:"name"`
		IPAddress    string `json:"ipAddress"`
	}

	deviceRequest struct {
		UID       *int64     `json:"uid"`
		Vendor    string     `json:"vendor"`
		CreatedAt *time.Time `json:"createdAt"`
		Status    string     `json:"status"`
	}

	deviceResponse struct {
		ID        string    `json:"id"`
		UID       int64     `json:"uid"`
		Vendor    string    `json:"vendor"`
		CreatedAt time.Time `json:"createdAt"`
		Status    string    `json:"status"`
		GatewayID *string   `json:"gatewayId,omitempty"`
	}

	gatewayResponse struct {
		ID           string           `json:"id"`
		SerialNumber string           `json:"serialNumber"`
		Name         string           `json:"name"`
		IPAddress    string           `json:"ipAddress"`
		Devices      []deviceResponse `json:"devices"`
	}
)

func (req gatewayRequest) input() model.GatewayInput {
	return model.GatewayInput{
		SerialNumber: req.SerialNumber,
		Name:         req.Name,
		IPAddress:    req.IPAddress,
	}
}

func (req deviceRequest) input() model.DeviceInput {
	return model.DeviceInput{
		UID:       req.UID,
		Vendor:    req.Vendor,
		CreatedAt: req.CreatedAt,
		Status:    req.Status,
	}
}

func toDeviceResponse(device *model.Device) deviceResponse {
	resp := deviceResponse{
		ID:        device.ID.String(),
		UID:       device.UID,
		Vendor:    device.Vendor,
		CreatedAt: device.CreatedAt,
		Status:    device.Status.String(),
	}

	if device.GatewayID != nil {
		gatewayID := device.GatewayID.String()
		resp.GatewayID = &gatewayID
	}

	return resp
}

func toDeviceResponses(devices []*model.Device) []deviceResponse {
	resp := make([]deviceResponse, 0, len(devices))
	for _, device := range devices {
		resp = append(resp, toDeviceResponse(device))
	}

	return resp
}

func toGatewayResponse(gateway *model.Gateway) gatewayResponse {
	return gatewayResponse{
		ID:           gateway.ID.String(),
		SerialNumber: gateway.SerialNumber,
		Name:         gateway.Name,
		IPAddress:    gateway.IPAddress,
		Devices:      toDeviceResponses(gateway.Devices),
	}
}

func toGatewayResponses(gateways []*model.Gateway) []gatewayResponse {
	resp := make([]gatewayResponse, 0, len(gateways))
	for _, gateway := range gateways {
		resp = append(resp, toGatewayResponse(gateway))
	}

	return resp
}
