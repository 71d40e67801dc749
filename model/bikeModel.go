// model/bike.go
package model

type BikeStatus string

const (
	BikeAvailable BikeStatus = "available"
	BikeInService BikeStatus = "in_service"
)

type Bike struct {
	ID                 string     `json:"id"`
	Model              string     `json:"model"`
	FrameNumber        string     `json:"frame_number"`
	BatteryNumbers     []string   `json:"battery_numbers"`
	RegistrationNumber string     `json:"registration_number"`
	IoTDeviceID        string     `json:"iot_device_id"`
	ExtraEquipment     string     `json:"extra_equipment"`
	Status             BikeStatus `json:"status"`
	ServiceReason      *string    `json:"service_reason,omitempty"`
}
