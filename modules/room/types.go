package room

// JoinDeviceRequest represents a device registration request.
type JoinDeviceRequest struct {
	UserID     string `json:"user_id"`
	DeviceName string `json:"device_name"`
}

// JoinDeviceResponse represents a device registration response.
type JoinDeviceResponse struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
}

// SendDataRequest represents a message-with-optional-move request.
type SendDataRequest struct {
	UserID       string `json:"user_id"`
	DeviceName   string `json:"device_name"`
	Text         string `json:"text"`
	ToDeviceName string `json:"to_device_name,omitempty"`
}

// SendDataResponse represents the outcome of a send-data request.
type SendDataResponse struct {
	Moved        bool   `json:"moved"`
	ToDeviceName string `json:"to_device_name,omitempty"`
}
