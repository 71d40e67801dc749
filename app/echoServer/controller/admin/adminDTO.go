package admin

// Admin payloads keep the snake_case keys the admin panel sends.

type FinalizeReturnReq struct {
	RentalID      string   `json:"rental_id" validate:"required"`
	NewBikeStatus string   `json:"new_bike_status" validate:"required,oneof=available in_service"`
	ServiceReason string   `json:"service_reason"`
	ReturnActURL  string   `json:"return_act_url"`
	Defects       []string `json:"defects"`
}

type SetVerificationStatusReq struct {
	UserID string `json:"userId" validate:"required"`
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}
