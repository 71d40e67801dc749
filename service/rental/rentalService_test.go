// service/rental/rental_service_test.go
package rentalsvc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/kerpat/serverdogovor/model"
	"github.com/kerpat/serverdogovor/service/document"
)

// --- mocks ---

type mockClients struct {
	byTokenFn   func(ctx context.Context, token string) (string, error)
	byIDFn      func(ctx context.Context, id string) (*model.Client, error)
	updateLocFn func(ctx context.Context, id string, lat, lon float64) error
	setVerifFn  func(ctx context.Context, id string, st model.VerificationStatus) error
	removePMFn  func(ctx context.Context, id string) error
}

var _ ClientRepo = (*mockClients)(nil)

func (m *mockClients) ByToken(ctx context.Context, token string) (string, error) {
	if m.byTokenFn == nil {
		return "", pgx.ErrNoRows
	}
	return m.byTokenFn(ctx, token)
}
func (m *mockClients) ByID(ctx context.Context, id string) (*model.Client, error) {
	if m.byIDFn == nil {
		return &model.Client{ID: id}, nil
	}
	return m.byIDFn(ctx, id)
}
func (m *mockClients) UpdateLocation(ctx context.Context, id string, lat, lon float64) error {
	if m.updateLocFn == nil {
		return nil
	}
	return m.updateLocFn(ctx, id, lat, lon)
}
func (m *mockClients) SetVerificationStatus(ctx context.Context, id string, st model.VerificationStatus) error {
	if m.setVerifFn == nil {
		return nil
	}
	return m.setVerifFn(ctx, id, st)
}
func (m *mockClients) RemovePaymentMethod(ctx context.Context, id string) error {
	if m.removePMFn == nil {
		return nil
	}
	return m.removePMFn(ctx, id)
}

type mockRentals struct {
	byIDFn     func(ctx context.Context, id string) (*model.Rental, error)
	snapshotFn func(ctx context.Context, rentalID, clientID string) (*model.RentalSnapshot, error)
	listFn     func(ctx context.Context, clientID string, statuses []model.RentalStatus) ([]model.Rental, error)
	latestFn   func(ctx context.Context, clientID string, statuses []model.RentalStatus) (*model.Rental, error)
	mergeFn    func(ctx context.Context, rentalID string, patch map[string]any) error
	mergeSetFn func(ctx context.Context, rentalID string, patch map[string]any, st model.RentalStatus) error
}

var _ RentalRepo = (*mockRentals)(nil)

func (m *mockRentals) ByID(ctx context.Context, id string) (*model.Rental, error) {
	return m.byIDFn(ctx, id)
}
func (m *mockRentals) Snapshot(ctx context.Context, rentalID, clientID string) (*model.RentalSnapshot, error) {
	return m.snapshotFn(ctx, rentalID, clientID)
}
func (m *mockRentals) ListByStatuses(ctx context.Context, clientID string, statuses []model.RentalStatus) ([]model.Rental, error) {
	return m.listFn(ctx, clientID, statuses)
}
func (m *mockRentals) LatestByStatuses(ctx context.Context, clientID string, statuses []model.RentalStatus) (*model.Rental, error) {
	return m.latestFn(ctx, clientID, statuses)
}
func (m *mockRentals) MergeExtra(ctx context.Context, rentalID string, patch map[string]any) error {
	if m.mergeFn == nil {
		return nil
	}
	return m.mergeFn(ctx, rentalID, patch)
}
func (m *mockRentals) MergeExtraAndSetStatus(ctx context.Context, rentalID string, patch map[string]any, st model.RentalStatus) error {
	if m.mergeSetFn == nil {
		return nil
	}
	return m.mergeSetFn(ctx, rentalID, patch, st)
}

type mockBikes struct {
	updateFn func(ctx context.Context, id string, st model.BikeStatus, reason *string) error
	calls    int
}

var _ BikeRepo = (*mockBikes)(nil)

func (m *mockBikes) UpdateStatus(ctx context.Context, id string, st model.BikeStatus, reason *string) error {
	m.calls++
	if m.updateFn == nil {
		return nil
	}
	return m.updateFn(ctx, id, st, reason)
}

type mockPublisher struct {
	publishFn func(ctx context.Context, kind document.Kind, clientID, rentalID string, signed bool, body string) (string, error)
	calls     int
}

var _ Publisher = (*mockPublisher)(nil)

func (m *mockPublisher) Publish(ctx context.Context, kind document.Kind, clientID, rentalID string, signed bool, body string) (string, error) {
	m.calls++
	if m.publishFn == nil {
		return "https://cdn.example.com/doc.pdf", nil
	}
	return m.publishFn(ctx, kind, clientID, rentalID, signed, body)
}

type mockNotifier struct {
	notifyFn func(ctx context.Context, chatID, text, actionURL string)
	calls    int
}

var _ Notifier = (*mockNotifier)(nil)

func (m *mockNotifier) Notify(ctx context.Context, chatID, text, actionURL string) {
	m.calls++
	if m.notifyFn != nil {
		m.notifyFn(ctx, chatID, text, actionURL)
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(c *mockClients, r *mockRentals, b *mockBikes, p *mockPublisher, n *mockNotifier) Service {
	return New(c, r, b, p, n, "https://app.example.com", testLogger())
}

func snapshotWithStatus(st model.RentalStatus) *model.RentalSnapshot {
	return &model.RentalSnapshot{
		Rental: model.Rental{
			ID:        "r1",
			ClientID:  "u1",
			BikeID:    "b1",
			Status:    st,
			Extra:     map[string]any{},
			CreatedAt: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		},
		Client: model.Client{ID: "u1", Name: "Иванов Иван"},
		Bike:   model.Bike{ID: "b1", Model: "Eltreco XT"},
	}
}

// --- tests ---

func TestVerifyToken(t *testing.T) {
	ctx := context.Background()

	svc := newService(&mockClients{
		byTokenFn: func(ctx context.Context, token string) (string, error) {
			if token == "good" {
				return "u1", nil
			}
			return "", pgx.ErrNoRows
		},
	}, &mockRentals{}, &mockBikes{}, &mockPublisher{}, &mockNotifier{})

	id, err := svc.VerifyToken(ctx, "good")
	require.NoError(t, err)
	require.Equal(t, "u1", id)

	_, err = svc.VerifyToken(ctx, "bad")
	require.Error(t, err)
	require.Equal(t, ErrInvalidToken, Code(err))
}

func TestConfirmContract_Success(t *testing.T) {
	ctx := context.Background()

	var gotPatch map[string]any
	var gotStatus model.RentalStatus
	rentals := &mockRentals{
		snapshotFn: func(ctx context.Context, rentalID, clientID string) (*model.RentalSnapshot, error) {
			return snapshotWithStatus(model.RentalAwaitingContractSigning), nil
		},
		mergeSetFn: func(ctx context.Context, rentalID string, patch map[string]any, st model.RentalStatus) error {
			gotPatch = patch
			gotStatus = st
			return nil
		},
	}
	pub := &mockPublisher{
		publishFn: func(ctx context.Context, kind document.Kind, clientID, rentalID string, signed bool, body string) (string, error) {
			require.Equal(t, document.KindContract, kind)
			require.True(t, signed)
			require.Equal(t, "u1", clientID)
			require.Equal(t, "r1", rentalID)
			return "https://cdn.example.com/signed/u1/rental_r1_signed.pdf", nil
		},
	}

	svc := newService(&mockClients{}, rentals, &mockBikes{}, pub, &mockNotifier{})
	err := svc.ConfirmContract(ctx, "u1", "r1", "base64sig")
	require.NoError(t, err)

	require.Equal(t, model.RentalActive, gotStatus)
	// The patch carries only the document URL key; sibling extra keys are the
	// repository merge's responsibility and must not be clobbered from here.
	require.Len(t, gotPatch, 1)
	require.Equal(t, "https://cdn.example.com/signed/u1/rental_r1_signed.pdf", gotPatch[model.ExtraContractDocumentURL])
}

func TestConfirmContract_WrongState(t *testing.T) {
	ctx := context.Background()

	pub := &mockPublisher{}
	rentals := &mockRentals{
		snapshotFn: func(ctx context.Context, rentalID, clientID string) (*model.RentalSnapshot, error) {
			return snapshotWithStatus(model.RentalActive), nil
		},
	}
	svc := newService(&mockClients{}, rentals, &mockBikes{}, pub, &mockNotifier{})

	err := svc.ConfirmContract(ctx, "u1", "r1", "sig")
	require.Error(t, err)
	require.Equal(t, ErrInvalidState, Code(err))
	require.Zero(t, pub.calls)
}

func TestConfirmContract_PublishFailureLeavesStateAlone(t *testing.T) {
	ctx := context.Background()

	merged := false
	rentals := &mockRentals{
		snapshotFn: func(ctx context.Context, rentalID, clientID string) (*model.RentalSnapshot, error) {
			return snapshotWithStatus(model.RentalAwaitingContractSigning), nil
		},
		mergeSetFn: func(ctx context.Context, rentalID string, patch map[string]any, st model.RentalStatus) error {
			merged = true
			return nil
		},
	}
	pub := &mockPublisher{
		publishFn: func(ctx context.Context, kind document.Kind, clientID, rentalID string, signed bool, body string) (string, error) {
			return "", errors.New("upload failed")
		},
	}
	svc := newService(&mockClients{}, rentals, &mockBikes{}, pub, &mockNotifier{})

	err := svc.ConfirmContract(ctx, "u1", "r1", "sig")
	require.Error(t, err)
	require.Equal(t, ErrCode(""), Code(err))
	require.False(t, merged)
}

func TestConfirmReturnAct_RendersDefectsFromExtra(t *testing.T) {
	ctx := context.Background()

	snap := snapshotWithStatus(model.RentalAwaitingReturnSignature)
	snap.Rental.Extra = map[string]any{
		model.ExtraDefects:      []any{"царапина на раме", "порван чехол"},
		model.ExtraDamageAmount: float64(1500),
	}

	var publishedBody string
	rentals := &mockRentals{
		snapshotFn: func(ctx context.Context, rentalID, clientID string) (*model.RentalSnapshot, error) {
			return snap, nil
		},
	}
	pub := &mockPublisher{
		publishFn: func(ctx context.Context, kind document.Kind, clientID, rentalID string, signed bool, body string) (string, error) {
			require.Equal(t, document.KindReturnAct, kind)
			require.True(t, signed)
			publishedBody = body
			return "https://cdn.example.com/returns/u1/return_act_r1_signed.pdf", nil
		},
	}
	svc := newService(&mockClients{}, rentals, &mockBikes{}, pub, &mockNotifier{})

	require.NoError(t, svc.ConfirmReturnAct(ctx, "u1", "r1", "sig"))
	require.Contains(t, publishedBody, "царапина на раме")
	require.Contains(t, publishedBody, "1500.00")
}

func TestGenerateReturnAct_DoesNotTouchStatus(t *testing.T) {
	ctx := context.Background()

	rentals := &mockRentals{
		snapshotFn: func(ctx context.Context, rentalID, clientID string) (*model.RentalSnapshot, error) {
			return snapshotWithStatus(model.RentalPendingReturn), nil
		},
		mergeSetFn: func(ctx context.Context, rentalID string, patch map[string]any, st model.RentalStatus) error {
			t.Fatal("generate-return-act must not change rental state")
			return nil
		},
	}
	svc := newService(&mockClients{}, rentals, &mockBikes{}, &mockPublisher{}, &mockNotifier{})

	url, err := svc.GenerateReturnAct(ctx, "u1", "r1")
	require.NoError(t, err)
	require.NotEmpty(t, url)
}

func TestActiveRental(t *testing.T) {
	ctx := context.Background()

	later := model.Rental{ID: "r2", Status: model.RentalPendingReturn,
		CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}

	rentals := &mockRentals{
		latestFn: func(ctx context.Context, clientID string, statuses []model.RentalStatus) (*model.Rental, error) {
			require.ElementsMatch(t, []model.RentalStatus{
				model.RentalActive, model.RentalOverdue, model.RentalPendingReturn,
			}, statuses)
			return &later, nil
		},
	}
	svc := newService(&mockClients{}, rentals, &mockBikes{}, &mockPublisher{}, &mockNotifier{})

	r, err := svc.ActiveRental(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "r2", r.ID)
}

func TestActiveRental_NoneIsNotAnError(t *testing.T) {
	ctx := context.Background()

	rentals := &mockRentals{
		latestFn: func(ctx context.Context, clientID string, statuses []model.RentalStatus) (*model.Rental, error) {
			return nil, pgx.ErrNoRows
		},
	}
	svc := newService(&mockClients{}, rentals, &mockBikes{}, &mockPublisher{}, &mockNotifier{})

	r, err := svc.ActiveRental(ctx, "u1")
	require.NoError(t, err)
	require.Nil(t, r)
}

func TestPendingContracts_CoversBothSignatureStates(t *testing.T) {
	ctx := context.Background()

	rentals := &mockRentals{
		listFn: func(ctx context.Context, clientID string, statuses []model.RentalStatus) ([]model.Rental, error) {
			require.ElementsMatch(t, []model.RentalStatus{
				model.RentalAwaitingContractSigning, model.RentalAwaitingReturnSignature,
			}, statuses)
			return []model.Rental{{ID: "r1"}}, nil
		},
	}
	svc := newService(&mockClients{}, rentals, &mockBikes{}, &mockPublisher{}, &mockNotifier{})

	rows, err := svc.PendingContracts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestFinalizeReturn_ServiceReasonRequired(t *testing.T) {
	ctx := context.Background()

	rentals := &mockRentals{
		byIDFn: func(ctx context.Context, id string) (*model.Rental, error) {
			t.Fatal("no record may be read before validation passes")
			return nil, nil
		},
	}
	svc := newService(&mockClients{}, rentals, &mockBikes{}, &mockPublisher{}, &mockNotifier{})

	err := svc.FinalizeReturn(ctx, FinalizeReturnInput{
		RentalID:      "r2",
		NewBikeStatus: model.BikeInService,
	})
	require.Error(t, err)
	require.Equal(t, ErrServiceReasonRequired, Code(err))
}

func TestFinalizeReturn_Success(t *testing.T) {
	ctx := context.Background()

	var gotPatch map[string]any
	var gotStatus model.RentalStatus
	rentals := &mockRentals{
		byIDFn: func(ctx context.Context, id string) (*model.Rental, error) {
			return &model.Rental{ID: id, ClientID: "u1", BikeID: "b1", Status: model.RentalActive}, nil
		},
		mergeSetFn: func(ctx context.Context, rentalID string, patch map[string]any, st model.RentalStatus) error {
			gotPatch = patch
			gotStatus = st
			return nil
		},
	}
	clients := &mockClients{
		byIDFn: func(ctx context.Context, id string) (*model.Client, error) {
			return &model.Client{ID: id, TelegramChatID: "12345"}, nil
		},
	}
	bikes := &mockBikes{
		updateFn: func(ctx context.Context, id string, st model.BikeStatus, reason *string) error {
			require.Equal(t, "b1", id)
			require.Equal(t, model.BikeInService, st)
			require.NotNil(t, reason)
			require.Equal(t, "сломана ось", *reason)
			return nil
		},
	}
	notif := &mockNotifier{
		notifyFn: func(ctx context.Context, chatID, text, actionURL string) {
			require.Equal(t, "12345", chatID)
			require.Contains(t, actionURL, "rental_id=r1")
		},
	}

	svc := newService(clients, rentals, bikes, &mockPublisher{}, notif)
	err := svc.FinalizeReturn(ctx, FinalizeReturnInput{
		RentalID:      "r1",
		NewBikeStatus: model.BikeInService,
		ServiceReason: "сломана ось",
		ReturnActURL:  "https://cdn.example.com/returns/u1/return_act_r1.pdf",
		Defects:       []string{"царапина"},
	})
	require.NoError(t, err)

	require.Equal(t, model.RentalAwaitingReturnSignature, gotStatus)
	require.Equal(t, []string{"царапина"}, gotPatch[model.ExtraDefects])
	require.Equal(t, "https://cdn.example.com/returns/u1/return_act_r1.pdf", gotPatch[model.ExtraReturnActURL])
	require.Equal(t, 1, bikes.calls)
	require.Equal(t, 1, notif.calls)
}

func TestFinalizeReturn_WrongState(t *testing.T) {
	ctx := context.Background()

	rentals := &mockRentals{
		byIDFn: func(ctx context.Context, id string) (*model.Rental, error) {
			return &model.Rental{ID: id, Status: model.RentalCompleted}, nil
		},
		mergeSetFn: func(ctx context.Context, rentalID string, patch map[string]any, st model.RentalStatus) error {
			t.Fatal("completed rental must not be mutated")
			return nil
		},
	}
	svc := newService(&mockClients{}, rentals, &mockBikes{}, &mockPublisher{}, &mockNotifier{})

	err := svc.FinalizeReturn(ctx, FinalizeReturnInput{RentalID: "r1", NewBikeStatus: model.BikeAvailable})
	require.Error(t, err)
	require.Equal(t, ErrInvalidState, Code(err))
}

func TestFinalizeReturn_BikeUpdateFailureTolerated(t *testing.T) {
	ctx := context.Background()

	rentals := &mockRentals{
		byIDFn: func(ctx context.Context, id string) (*model.Rental, error) {
			return &model.Rental{ID: id, ClientID: "u1", BikeID: "b1", Status: model.RentalOverdue}, nil
		},
	}
	bikes := &mockBikes{
		updateFn: func(ctx context.Context, id string, st model.BikeStatus, reason *string) error {
			return errors.New("bikes table unavailable")
		},
	}
	notif := &mockNotifier{}

	svc := newService(&mockClients{}, rentals, bikes, &mockPublisher{}, notif)
	err := svc.FinalizeReturn(ctx, FinalizeReturnInput{RentalID: "r1", NewBikeStatus: model.BikeAvailable})
	require.NoError(t, err)
	require.Equal(t, 1, notif.calls)
}

func TestSetVerificationStatus_NotifyLookupDegrades(t *testing.T) {
	ctx := context.Background()

	clients := &mockClients{
		byIDFn: func(ctx context.Context, id string) (*model.Client, error) {
			return nil, errors.New("db down")
		},
	}
	notif := &mockNotifier{}
	svc := newService(clients, &mockRentals{}, &mockBikes{}, &mockPublisher{}, notif)

	notified, err := svc.SetVerificationStatus(ctx, "u1", model.VerificationApproved)
	require.NoError(t, err)
	require.False(t, notified)
	require.Zero(t, notif.calls)
}

func TestSetVerificationStatus_RejectedMessage(t *testing.T) {
	ctx := context.Background()

	var gotText string
	clients := &mockClients{
		byIDFn: func(ctx context.Context, id string) (*model.Client, error) {
			return &model.Client{ID: id, TelegramChatID: "42"}, nil
		},
	}
	notif := &mockNotifier{
		notifyFn: func(ctx context.Context, chatID, text, actionURL string) { gotText = text },
	}
	svc := newService(clients, &mockRentals{}, &mockBikes{}, &mockPublisher{}, notif)

	notified, err := svc.SetVerificationStatus(ctx, "u1", model.VerificationRejected)
	require.NoError(t, err)
	require.True(t, notified)
	require.True(t, strings.Contains(gotText, "не прошёл"))
}

func TestPaymentMethod(t *testing.T) {
	ctx := context.Background()

	clients := &mockClients{
		byIDFn: func(ctx context.Context, id string) (*model.Client, error) {
			if id == "with" {
				return &model.Client{ID: id, Extra: map[string]any{
					"payment_method": map[string]any{"card_last4": "1234"},
					"other_key":      "untouched",
				}}, nil
			}
			return &model.Client{ID: id, Extra: map[string]any{}}, nil
		},
	}
	svc := newService(clients, &mockRentals{}, &mockBikes{}, &mockPublisher{}, &mockNotifier{})

	pm, err := svc.PaymentMethod(ctx, "with")
	require.NoError(t, err)
	require.Equal(t, "1234", pm["card_last4"])

	_, err = svc.PaymentMethod(ctx, "without")
	require.Error(t, err)
	require.Equal(t, ErrNoPaymentMethod, Code(err))
}

func TestCodeExtractor(t *testing.T) {
	require.Equal(t, ErrNotFound, Code(makeErr(ErrNotFound)))
	require.Equal(t, ErrCode(""), Code(errors.New("plain")))
}
