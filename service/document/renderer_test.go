package document

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kerpat/serverdogovor/model"
)

func fullSnapshot() model.RentalSnapshot {
	return model.RentalSnapshot{
		Rental: model.Rental{
			ID:        "r1",
			ClientID:  "u1",
			BikeID:    "b1",
			Status:    model.RentalAwaitingContractSigning,
			CreatedAt: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		},
		Client: model.Client{
			ID:   "u1",
			Name: "Иванов Иван Иванович",
			City: "Москва",
			PassportData: map[string]any{
				"birth_date":    "01.02.1990",
				"series_number": "4510 123456",
			},
		},
		Bike: model.Bike{
			ID:             "b1",
			Model:          "Eltreco XT",
			FrameNumber:    "FR-001",
			BatteryNumbers: []string{"АКБ-1", "АКБ-2"},
		},
	}
}

func TestRenderContract_Full(t *testing.T) {
	html := RenderContract(fullSnapshot(), "")

	require.Contains(t, html, "Договор аренды велосипеда")
	require.Contains(t, html, "Eltreco XT")
	require.Contains(t, html, "FR-001")
	require.Contains(t, html, "АКБ-1, АКБ-2")
	require.Contains(t, html, "Иванов Иван Иванович")
	require.Contains(t, html, "4510 123456")
	require.Contains(t, html, "10.05.2024")
	// acceptance boilerplate
	require.Contains(t, html, "Подписывая настоящий договор")
}

func TestRenderContract_EmptySnapshotDegradesToPlaceholders(t *testing.T) {
	var snap model.RentalSnapshot

	require.NotPanics(t, func() {
		html := RenderContract(snap, "")
		require.Contains(t, html, "не указано")
		// every optional field defaults independently
		require.GreaterOrEqual(t, strings.Count(html, "не указано"), 11)
	})
}

func TestRenderContract_SignatureEmbedding(t *testing.T) {
	signed := RenderContract(fullSnapshot(), "aGVsbG8=")
	require.Contains(t, signed, `src="data:image/png;base64,aGVsbG8="`)

	dataURI := RenderContract(fullSnapshot(), "data:image/jpeg;base64,xyz")
	require.Contains(t, dataURI, `src="data:image/jpeg;base64,xyz"`)

	blank := RenderContract(fullSnapshot(), "")
	require.NotContains(t, blank, "sign-img")
	require.Contains(t, blank, "sign-line")
}

func TestRenderReturnAct_Defects(t *testing.T) {
	none := RenderReturnAct(fullSnapshot(), nil, 0, "")
	require.Contains(t, none, "Дефектов не обнаружено.")
	require.NotContains(t, none, "<li>")

	listed := RenderReturnAct(fullSnapshot(), []string{"царапина", "скол"}, 0, "")
	require.NotContains(t, listed, "Дефектов не обнаружено.")
	first := strings.Index(listed, "царапина")
	second := strings.Index(listed, "скол")
	require.Greater(t, first, 0)
	require.Greater(t, second, first) // input order preserved
	require.Equal(t, 2, strings.Count(listed, "<li>"))
}

func TestRenderReturnAct_DamageClause(t *testing.T) {
	free := RenderReturnAct(fullSnapshot(), nil, 0, "")
	require.NotContains(t, free, "Сумма ущерба")

	charged := RenderReturnAct(fullSnapshot(), nil, 2500.5, "")
	require.Contains(t, charged, "Сумма ущерба")
	require.Contains(t, charged, "2500.50")
}

func TestRenderReturnAct_Title(t *testing.T) {
	html := RenderReturnAct(fullSnapshot(), nil, 0, "")
	require.Contains(t, html, "Акт возврата велосипеда")
}
