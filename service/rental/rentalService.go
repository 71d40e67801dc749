package rentalsvc

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kerpat/serverdogovor/model"
	"github.com/kerpat/serverdogovor/service/document"
)

// errors used by controllers

type ErrCode string

const (
	ErrInvalidToken          ErrCode = "INVALID_TOKEN"
	ErrNotFound              ErrCode = "NOT_FOUND"
	ErrInvalidState          ErrCode = "INVALID_STATE"
	ErrNoPaymentMethod       ErrCode = "NO_PAYMENT_METHOD"
	ErrServiceReasonRequired ErrCode = "SERVICE_REASON_REQUIRED"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts the error code, or "" for plain errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// collaborators

type ClientRepo interface {
	ByToken(ctx context.Context, token string) (string, error)
	ByID(ctx context.Context, id string) (*model.Client, error)
	UpdateLocation(ctx context.Context, id string, lat, lon float64) error
	SetVerificationStatus(ctx context.Context, id string, st model.VerificationStatus) error
	RemovePaymentMethod(ctx context.Context, id string) error
}

type RentalRepo interface {
	ByID(ctx context.Context, id string) (*model.Rental, error)
	Snapshot(ctx context.Context, rentalID, clientID string) (*model.RentalSnapshot, error)
	ListByStatuses(ctx context.Context, clientID string, statuses []model.RentalStatus) ([]model.Rental, error)
	LatestByStatuses(ctx context.Context, clientID string, statuses []model.RentalStatus) (*model.Rental, error)
	MergeExtra(ctx context.Context, rentalID string, patch map[string]any) error
	MergeExtraAndSetStatus(ctx context.Context, rentalID string, patch map[string]any, st model.RentalStatus) error
}

type BikeRepo interface {
	UpdateStatus(ctx context.Context, id string, st model.BikeStatus, serviceReason *string) error
}

type Publisher interface {
	Publish(ctx context.Context, kind document.Kind, clientID, rentalID string, signed bool, body string) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, chatID, text, actionURL string)
}

// FinalizeReturnInput is the admin finalize-return payload after validation.
type FinalizeReturnInput struct {
	RentalID      string
	NewBikeStatus model.BikeStatus
	ServiceReason string
	ReturnActURL  string
	Defects       []string
}

type Service interface {
	VerifyToken(ctx context.Context, token string) (string, error)
	UpdateLocation(ctx context.Context, clientID string, lat, lon float64) error
	PendingContracts(ctx context.Context, clientID string) ([]model.Rental, error)
	ActiveRental(ctx context.Context, clientID string) (*model.Rental, error)
	ContractDetails(ctx context.Context, clientID, rentalID string) (*model.RentalSnapshot, error)
	PaymentMethod(ctx context.Context, clientID string) (map[string]any, error)
	ConfirmContract(ctx context.Context, clientID, rentalID, signatureData string) error
	GenerateReturnAct(ctx context.Context, clientID, rentalID string) (string, error)
	ConfirmReturnAct(ctx context.Context, clientID, rentalID, signatureData string) error
	UnbindPaymentMethod(ctx context.Context, clientID string) error
	FinalizeReturn(ctx context.Context, in FinalizeReturnInput) error
	SetVerificationStatus(ctx context.Context, clientID string, st model.VerificationStatus) (notified bool, err error)
}

// state machine

var pendingSignatureStatuses = []model.RentalStatus{
	model.RentalAwaitingContractSigning,
	model.RentalAwaitingReturnSignature,
}

var activeClassStatuses = []model.RentalStatus{
	model.RentalActive,
	model.RentalOverdue,
	model.RentalPendingReturn,
}

type service struct {
	clients   ClientRepo
	rentals   RentalRepo
	bikes     BikeRepo
	pub       Publisher
	notif     Notifier
	webAppURL string
	log       *slog.Logger
}

func New(clients ClientRepo, rentals RentalRepo, bikes BikeRepo, pub Publisher, notif Notifier, webAppURL string, log *slog.Logger) Service {
	return &service{
		clients:   clients,
		rentals:   rentals,
		bikes:     bikes,
		pub:       pub,
		notif:     notif,
		webAppURL: webAppURL,
		log:       log,
	}
}

func (s *service) VerifyToken(ctx context.Context, token string) (string, error) {
	id, err := s.clients.ByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", makeErr(ErrInvalidToken)
		}
		return "", err
	}
	return id, nil
}

func (s *service) UpdateLocation(ctx context.Context, clientID string, lat, lon float64) error {
	if err := s.clients.UpdateLocation(ctx, clientID, lat, lon); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	return nil
}

// PendingContracts surfaces both "needs client signature" states together.
func (s *service) PendingContracts(ctx context.Context, clientID string) ([]model.Rental, error) {
	return s.rentals.ListByStatuses(ctx, clientID, pendingSignatureStatuses)
}

// ActiveRental returns the most recently created in-flight rental or nil.
// No match is a valid, non-error outcome.
func (s *service) ActiveRental(ctx context.Context, clientID string) (*model.Rental, error) {
	r, err := s.rentals.LatestByStatuses(ctx, clientID, activeClassStatuses)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

func (s *service) ContractDetails(ctx context.Context, clientID, rentalID string) (*model.RentalSnapshot, error) {
	snap, err := s.rentals.Snapshot(ctx, rentalID, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	return snap, nil
}

func (s *service) PaymentMethod(ctx context.Context, clientID string) (map[string]any, error) {
	c, err := s.clients.ByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}
	pm, ok := c.Extra["payment_method"].(map[string]any)
	if !ok {
		return nil, makeErr(ErrNoPaymentMethod)
	}
	return pm, nil
}

// ConfirmContract renders the contract with the signature embedded, publishes
// it and activates the rental. The status flip and the document URL land in
// one merge, so a render or upload failure leaves the rental untouched.
func (s *service) ConfirmContract(ctx context.Context, clientID, rentalID, signatureData string) error {
	snap, err := s.rentals.Snapshot(ctx, rentalID, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if snap.Rental.Status != model.RentalAwaitingContractSigning {
		return makeErr(ErrInvalidState)
	}

	html := document.RenderContract(*snap, signatureData)
	url, err := s.pub.Publish(ctx, document.KindContract, clientID, rentalID, true, html)
	if err != nil {
		return err
	}

	return s.rentals.MergeExtraAndSetStatus(ctx, rentalID,
		map[string]any{model.ExtraContractDocumentURL: url},
		model.RentalActive,
	)
}

// GenerateReturnAct publishes an unsigned return act. Rental status does not
// change.
func (s *service) GenerateReturnAct(ctx context.Context, clientID, rentalID string) (string, error) {
	snap, err := s.rentals.Snapshot(ctx, rentalID, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", makeErr(ErrNotFound)
		}
		return "", err
	}

	html := document.RenderReturnAct(*snap,
		defectsFromExtra(snap.Rental.Extra),
		damageFromExtra(snap.Rental.Extra),
		"",
	)
	return s.pub.Publish(ctx, document.KindReturnAct, clientID, rentalID, false, html)
}

func (s *service) ConfirmReturnAct(ctx context.Context, clientID, rentalID, signatureData string) error {
	snap, err := s.rentals.Snapshot(ctx, rentalID, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if snap.Rental.Status != model.RentalAwaitingReturnSignature {
		return makeErr(ErrInvalidState)
	}

	html := document.RenderReturnAct(*snap,
		defectsFromExtra(snap.Rental.Extra),
		damageFromExtra(snap.Rental.Extra),
		signatureData,
	)
	url, err := s.pub.Publish(ctx, document.KindReturnAct, clientID, rentalID, true, html)
	if err != nil {
		return err
	}

	return s.rentals.MergeExtraAndSetStatus(ctx, rentalID,
		map[string]any{model.ExtraReturnActURL: url},
		model.RentalCompleted,
	)
}

func (s *service) UnbindPaymentMethod(ctx context.Context, clientID string) error {
	if err := s.clients.RemovePaymentMethod(ctx, clientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	return nil
}

// FinalizeReturn moves an in-flight rental to awaiting_return_signature and
// updates the bike. The bike update and the client notification are best
// effort: their failure never rolls back the rental transition.
func (s *service) FinalizeReturn(ctx context.Context, in FinalizeReturnInput) error {
	// Validated before any record is touched.
	if in.NewBikeStatus == model.BikeInService && strings.TrimSpace(in.ServiceReason) == "" {
		return makeErr(ErrServiceReasonRequired)
	}

	r, err := s.rentals.ByID(ctx, in.RentalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	if !statusIn(r.Status, activeClassStatuses) {
		return makeErr(ErrInvalidState)
	}

	patch := map[string]any{}
	if in.ReturnActURL != "" {
		patch[model.ExtraReturnActURL] = in.ReturnActURL
	}
	if in.Defects != nil {
		patch[model.ExtraDefects] = in.Defects
	}
	if err := s.rentals.MergeExtraAndSetStatus(ctx, in.RentalID, patch, model.RentalAwaitingReturnSignature); err != nil {
		return err
	}

	var reason *string
	if in.ServiceReason != "" {
		reason = &in.ServiceReason
	}
	if err := s.bikes.UpdateStatus(ctx, r.BikeID, in.NewBikeStatus, reason); err != nil {
		s.log.Error("bike status update failed after return finalization",
			"rental_id", in.RentalID, "bike_id", r.BikeID, "err", err)
	}

	c, err := s.clients.ByID(ctx, r.ClientID)
	if err != nil {
		s.log.Warn("client lookup for return notification failed",
			"rental_id", in.RentalID, "client_id", r.ClientID, "err", err)
		return nil
	}
	s.notif.Notify(ctx, c.TelegramChatID,
		"Ваш возврат оформлен. Пожалуйста, подпишите акт возврата.",
		s.signLink(in.RentalID),
	)
	return nil
}

// SetVerificationStatus updates the decision and tells the client. A failed
// client lookup degrades to notified=false, not an error.
func (s *service) SetVerificationStatus(ctx context.Context, clientID string, st model.VerificationStatus) (bool, error) {
	if err := s.clients.SetVerificationStatus(ctx, clientID, st); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, makeErr(ErrNotFound)
		}
		return false, err
	}

	c, err := s.clients.ByID(ctx, clientID)
	if err != nil {
		s.log.Warn("client lookup for verification notification failed",
			"client_id", clientID, "err", err)
		return false, nil
	}

	text := "Ваш аккаунт успешно подтверждён!"
	if st == model.VerificationRejected {
		text = "К сожалению, ваш аккаунт не прошёл проверку. Обратитесь в поддержку."
	}
	s.notif.Notify(ctx, c.TelegramChatID, text, "")
	return true, nil
}

func (s *service) signLink(rentalID string) string {
	if s.webAppURL == "" {
		return ""
	}
	return strings.TrimRight(s.webAppURL, "/") + "/?rental_id=" + rentalID
}

func statusIn(st model.RentalStatus, set []model.RentalStatus) bool {
	for _, v := range set {
		if v == st {
			return true
		}
	}
	return false
}

// defectsFromExtra reads the defect list out of rental extra metadata,
// defaulting to none. Values arrive as []any after a jsonb round trip.
func defectsFromExtra(extra map[string]any) []string {
	switch v := extra[model.ExtraDefects].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// damageFromExtra defaults to zero, which suppresses the damage clause.
func damageFromExtra(extra map[string]any) float64 {
	switch v := extra[model.ExtraDamageAmount].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
