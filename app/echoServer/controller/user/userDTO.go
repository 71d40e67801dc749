package user

type VerifyTokenReq struct {
	Token string `json:"token" validate:"required"`
}

type UpdateLocationReq struct {
	UserID    string   `json:"userId" validate:"required"`
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
}

type PendingContractsReq struct {
	UserID string `json:"userId" validate:"required"`
}

type ContractDetailsReq struct {
	UserID   string `json:"userId" validate:"required"`
	RentalID string `json:"rentalId" validate:"required"`
}

type ConfirmContractReq struct {
	UserID        string `json:"userId" validate:"required"`
	RentalID      string `json:"rentalId" validate:"required"`
	SignatureData string `json:"signatureData" validate:"required"`
}

type ActiveRentalReq struct {
	UserID string `json:"userId" validate:"required"`
}

type PaymentMethodReq struct {
	UserID string `json:"userId" validate:"required"`
}

type GenerateReturnActReq struct {
	UserID   string `json:"userId" validate:"required"`
	RentalID string `json:"rentalId" validate:"required"`
}

type ConfirmReturnActReq struct {
	UserID        string `json:"userId" validate:"required"`
	RentalID      string `json:"rentalId" validate:"required"`
	SignatureData string `json:"signatureData" validate:"required"`
}

type UnbindPaymentMethodReq struct {
	UserID string `json:"userId" validate:"required"`
}
