package model

// Client-facing messages for domain rejections. Format verbs take the offending id or limit.
const (
	MsgGatewayNotFound         = "Gateway not found with ID: %s"
	MsgGatewayNotFoundOnUpdate = "Gateway of id: %s not found at update"
	MsgGatewayNotResolved      = "Gateway of id: %s could not be found"

	MsgDeviceNotFound         = "Device not found with ID: %s"
	MsgDeviceNotFoundOnUpdate = "The specified Device with id: %s could not be modified because it does not exist"
	MsgDeviceNotResolved      = "Device of id: %s could not be found"
	MsgDeviceNotAttached      = "The specified device of id: %s is not attached to the specified gateway"

	MsgDeviceLimitExceeded = "The amount of devices exceeds the predefined limit of %d devices"
	MsgUIDDuplicated       = "A device with the specified uid already exists"
	MsgUIDTaken            = "The specified uid is associated to another device"
)
