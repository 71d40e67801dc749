package admin

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

type Action string

const (
	ActionFinalizeReturn        Action = "finalize-return"
	ActionSetVerificationStatus Action = "set-verification-status"
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
		ActionFinalizeReturn:        h.finalizeReturn,
		ActionSetVerificationStatus: h.setVerificationStatus,
	}
	return h
}

// POST /api/admin
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
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid admin action"})
	}
	return fn(c, body)
}

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
	h.Log.Error("admin action failed", "action", string(action), "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
}

func (h *Controller) finalizeReturn(c echo.Context, body []byte) error {
	var req FinalizeReturnReq
	if !h.bind(c, body, &req) {
		return nil
	}
	err := h.Svc.FinalizeReturn(c.Request().Context(), rentalsvc.FinalizeReturnInput{
		RentalID:      req.RentalID,
		NewBikeStatus: model.BikeStatus(req.NewBikeStatus),
		ServiceReason: req.ServiceReason,
		ReturnActURL:  req.ReturnActURL,
		Defects:       req.Defects,
	})
	if err != nil {
		switch rentalsvc.Code(err) {
		case rentalsvc.ErrServiceReasonRequired:
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Причина ремонта обязательна, если велосипед отправляется в сервис.",
			})
		case rentalsvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Аренда не найдена"})
		case rentalsvc.ErrInvalidState:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Аренда не может быть завершена из текущего статуса"})
		default:
			return h.fail(c, ActionFinalizeReturn, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Возврат оформлен, ожидается подпись клиента"})
}

func (h *Controller) setVerificationStatus(c echo.Context, body []byte) error {
	var req SetVerificationStatusReq
	if !h.bind(c, body, &req) {
		return nil
	}
	notified, err := h.Svc.SetVerificationStatus(c.Request().Context(), req.UserID, model.VerificationStatus(req.Status))
	if err != nil {
		if rentalsvc.Code(err) == rentalsvc.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Клиент не найден"})
		}
		return h.fail(c, ActionSetVerificationStatus, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Статус верификации обновлён",
		"notified": notified,
	})
}
