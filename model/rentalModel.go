// model/rental.go
package model

import "time"

type RentalStatus string

const (
	RentalAwaitingContractSigning RentalStatus = "awaiting_contract_signing"
	RentalActive                  RentalStatus = "active"
	RentalOverdue                 RentalStatus = "overdue"
	RentalPendingReturn           RentalStatus = "pending_return"
	RentalAwaitingReturnSignature RentalStatus = "awaiting_return_signature"
	RentalCompleted               RentalStatus = "completed"
)

// Extra metadata keys. The extra map is additive: operations merge single keys
// and never replace the whole map.
const (
	ExtraContractDocumentURL = "contract_document_url"
	ExtraReturnActURL        = "return_act_url"
	ExtraDefects             = "defects"
	ExtraDamageAmount        = "damage_amount"
)

type Rental struct {
	ID        string         `json:"id"`
	ClientID  string         `json:"client_id"`
	BikeID    string         `json:"bike_id"`
	TariffID  string         `json:"tariff_id"`
	Status    RentalStatus   `json:"status"`
	Extra     map[string]any `json:"extra,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// RentalSnapshot is the rental+client+bike join used for document rendering
// and contract details.
type RentalSnapshot struct {
	Rental Rental `json:"rental"`
	Client Client `json:"client"`
	Bike   Bike   `json:"bike"`
}
