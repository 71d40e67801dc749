package user

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/kerpat/serverdogovor/model"
	rentalsvc "github.com/kerpat/serverdogovor/service/rental"
)

// Action is the closed set of client operations. The dispatch table below is
// the single source of truth; an action missing there is rejected up front.
type Action string

const (
	ActionVerifyToken       Action = "verify-token"
	ActionUpdateLocation    Action = "update-location"
	ActionPendingContracts  Action = "get-pending-contracts"
	ActionContractDetails   Action = "get-contract-details"
	ActionConfirmContract   Action = "confirm-contract"
	ActionActiveRental      Action = "get-active-rental"
	ActionPaymentMethod     Action = "get-payment-method"
	ActionGenerateReturnAct Action = "generate-return-act"
	ActionConfirmReturnAct  Action = "confirm-return-act"
	ActionUnbindPayment     Action = "unbind-payment-method"
)

type handlerFunc func(c echo.Context, body []byte) error

type Controller struct {
	Svc rentalsvc.Service
	V   *validator.Validate
	Log *slog.Logger

	handlers map[Action]handlerFunc
}

func New(svc rentalsvc.Service, v *validator.Validate, log *slog.Logger) *Controller {
	h := &Controller{Svc: svc, V: v, Log: log}
	h.handlers = map[Action]handlerFunc{
		ActionVerifyToken:       h.verifyToken,
		ActionUpdateLocation:    h.updateLocation,
		ActionPendingContracts:  h.pendingContracts,
		ActionContractDetails:   h.contractDetails,
		ActionConfirmContract:   h.confirmContract,
		ActionActiveRental:      h.activeRental,
		ActionPaymentMethod:     h.paymentMethod,
		ActionGenerateReturnAct: h.generateReturnAct,
		ActionConfirmReturnAct:  h.confirmReturnAct,
		ActionUnbindPayment:     h.unbindPaymentMethod,
	}
	return h
}

// POST /api/user
func (h *Controller) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON"})
	}
	var env struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON"})
	}
	fn, ok := h.handlers[env.Action]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid action"})
	}
	return fn(c, body)
}

// bind unmarshals and validates the action payload; on failure it writes the
// 400 itself and reports false, so no side effect is attempted.
func (h *Controller) bind(c echo.Context, body []byte, dst any) bool {
	if err := json.Unmarshal(body, dst); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON"})
		return false
	}
	if err := h.V.Struct(dst); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		return false
	}
	return true
}

func (h *Controller) fail(c echo.Context, action Action, err error) error {
	h.Log.Error("user action failed", "action", string(action), "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
}

func (h *Controller) verifyToken(c echo.Context, body []byte) error {
	var req VerifyTokenReq
	if !h.bind(c, body, &req) {
		return nil
	}
	userID, err := h.Svc.VerifyToken(c.Request().Context(), req.Token)
	if err != nil {
		if rentalsvc.Code(err) == rentalsvc.ErrInvalidToken {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid token"})
		}
		return h.fail(c, ActionVerifyToken, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"userId": userID})
}

func (h *Controller) updateLocation(c echo.Context, body []byte) error {
	var req UpdateLocationReq
	if !h.bind(c, body, &req) {
		return nil
	}
	err := h.Svc.UpdateLocation(c.Request().Context(), req.UserID, *req.Latitude, *req.Longitude)
	if err != nil {
		if rentalsvc.Code(err) == rentalsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
		}
		return h.fail(c, ActionUpdateLocation, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Location updated"})
}

func (h *Controller) pendingContracts(c echo.Context, body []byte) error {
	var req PendingContractsReq
	if !h.bind(c, body, &req) {
		return nil
	}
	rows, err := h.Svc.PendingContracts(c.Request().Context(), req.UserID)
	if err != nil {
		return h.fail(c, ActionPendingContracts, err)
	}
	if rows == nil {
		rows = []model.Rental{}
	}
	return c.JSON(http.StatusOK, echo.Map{"contracts": rows})
}

func (h *Controller) contractDetails(c echo.Context, body []byte) error {
	var req ContractDetailsReq
	if !h.bind(c, body, &req) {
		return nil
	}
	snap, err := h.Svc.ContractDetails(c.Request().Context(), req.UserID, req.RentalID)
	if err != nil {
		if rentalsvc.Code(err) == rentalsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Rental not found"})
		}
		return h.fail(c, ActionContractDetails, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Controller) confirmContract(c echo.Context, body []byte) error {
	var req ConfirmContractReq
	if !h.bind(c, body, &req) {
		return nil
	}
	err := h.Svc.ConfirmContract(c.Request().Context(), req.UserID, req.RentalID, req.SignatureData)
	if err != nil {
		switch rentalsvc.Code(err) {
		case rentalsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Rental not found"})
		case rentalsvc.ErrInvalidState:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Rental is not awaiting contract signing"})
		default:
			return h.fail(c, ActionConfirmContract, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Contract signed and rental activated"})
}

func (h *Controller) activeRental(c echo.Context, body []byte) error {
	var req ActiveRentalReq
	if !h.bind(c, body, &req) {
		return nil
	}
	r, err := h.Svc.ActiveRental(c.Request().Context(), req.UserID)
	if err != nil {
		return h.fail(c, ActionActiveRental, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"rental": r})
}

func (h *Controller) paymentMethod(c echo.Context, body []byte) error {
	var req PaymentMethodReq
	if !h.bind(c, body, &req) {
		return nil
	}
	pm, err := h.Svc.PaymentMethod(c.Request().Context(), req.UserID)
	if err != nil {
		switch rentalsvc.Code(err) {
		case rentalsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
		case rentalsvc.ErrNoPaymentMethod:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Payment method not found"})
		default:
			return h.fail(c, ActionPaymentMethod, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"paymentMethod": pm})
}

func (h *Controller) generateReturnAct(c echo.Context, body []byte) error {
	var req GenerateReturnActReq
	if !h.bind(c, body, &req) {
		return nil
	}
	url, err := h.Svc.GenerateReturnAct(c.Request().Context(), req.UserID, req.RentalID)
	if err != nil {
		if rentalsvc.Code(err) == rentalsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Rental not found"})
		}
		return h.fail(c, ActionGenerateReturnAct, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"url": url})
}

func (h *Controller) confirmReturnAct(c echo.Context, body []byte) error {
	var req ConfirmReturnActReq
	if !h.bind(c, body, &req) {
		return nil
	}
	err := h.Svc.ConfirmReturnAct(c.Request().Context(), req.UserID, req.RentalID, req.SignatureData)
	if err != nil {
		switch rentalsvc.Code(err) {
		case rentalsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Rental not found"})
		case rentalsvc.ErrInvalidState:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Rental is not awaiting return signature"})
		default:
			return h.fail(c, ActionConfirmReturnAct, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Return act signed and rental completed"})
}

func (h *Controller) unbindPaymentMethod(c echo.Context, body []byte) error {
	var req UnbindPaymentMethodReq
	if !h.bind(c, body, &req) {
		return nil
	}
	err := h.Svc.UnbindPaymentMethod(c.Request().Context(), req.UserID)
	if err != nil {
		if rentalsvc.Code(err) == rentalsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Client not found"})
		}
		return h.fail(c, ActionUnbindPayment, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Payment method unbound"})
}
