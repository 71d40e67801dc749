package document

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/kerpat/serverdogovor/model"
)

type Kind string

const (
	KindContract  Kind = "contract"
	KindReturnAct Kind = "return_act"
)

// Placeholder printed for any field the snapshot is missing. Rendering never
// fails on absent data.
const placeholder = "не указано"

type renderData struct {
	Date string

	Model          string
	FrameNumber    string
	Batteries      string
	RegNumber      string
	IoTID          string
	ExtraEquipment string

	Name                string
	City                string
	BirthDate           string
	SeriesNumber        string
	IssuedBy            string
	IssueDate           string
	RegistrationAddress string

	Defects      []string
	DamageAmount float64

	Signature template.URL
}

// RenderContract produces the rental contract markup with the client's
// signature embedded.
func RenderContract(snap model.RentalSnapshot, signatureData string) string {
	data := buildData(snap, signatureData)
	return execute("contract", data)
}

// RenderReturnAct produces the return act markup. Defects and damage come
// from rental extra metadata; a zero damage amount suppresses the damage
// clause entirely. An empty signature renders a blank signature line.
func RenderReturnAct(snap model.RentalSnapshot, defects []string, damageAmount float64, signatureData string) string {
	data := buildData(snap, signatureData)
	data.Defects = defects
	data.DamageAmount = damageAmount
	return execute("return_act", data)
}

func buildData(snap model.RentalSnapshot, signatureData string) renderData {
	p := ParsePassport(snap.Client.PassportData)
	return renderData{
		Date: snap.Rental.CreatedAt.Format("02.01.2006"),

		Model:          orDefault(snap.Bike.Model),
		FrameNumber:    orDefault(snap.Bike.FrameNumber),
		Batteries:      orDefault(strings.Join(snap.Bike.BatteryNumbers, ", ")),
		RegNumber:      orDefault(snap.Bike.RegistrationNumber),
		IoTID:          orDefault(snap.Bike.IoTDeviceID),
		ExtraEquipment: orDefault(snap.Bike.ExtraEquipment),

		Name:                orDefault(snap.Client.Name),
		City:                orDefault(snap.Client.City),
		BirthDate:           orDefault(p.BirthDate),
		SeriesNumber:        orDefault(p.SeriesNumber),
		IssuedBy:            orDefault(p.IssuedBy),
		IssueDate:           orDefault(p.IssueDate),
		RegistrationAddress: orDefault(p.RegistrationAddress),

		Signature: signatureURL(signatureData),
	}
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// signatureURL normalizes the captured image to a data URI. The payload is
// opaque; it is embedded, never persisted on its own.
func signatureURL(signatureData string) template.URL {
	if signatureData == "" {
		return ""
	}
	if strings.HasPrefix(signatureData, "data:") {
		return template.URL(signatureData)
	}
	return template.URL("data:image/png;base64," + signatureData)
}

func execute(name string, data renderData) string {
	var buf bytes.Buffer
	if err := docTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		// Templates are static and Must-parsed; data is plain values.
		panic(err)
	}
	return buf.String()
}

var docTmpl = template.Must(template.New("doc").Parse(`
{{define "equipment"}}
<h2>Оборудование</h2>
<table class="props">
  <tr><td>Модель</td><td>{{.Model}}</td></tr>
  <tr><td>Номер рамы</td><td>{{.FrameNumber}}</td></tr>
  <tr><td>Номера АКБ</td><td>{{.Batteries}}</td></tr>
  <tr><td>Регистрационный номер</td><td>{{.RegNumber}}</td></tr>
  <tr><td>IoT-устройство</td><td>{{.IoTID}}</td></tr>
  <tr><td>Дополнительное оборудование</td><td>{{.ExtraEquipment}}</td></tr>
</table>
{{end}}

{{define "renter"}}
<h2>Арендатор</h2>
<table class="props">
  <tr><td>ФИО</td><td>{{.Name}}</td></tr>
  <tr><td>Дата рождения</td><td>{{.BirthDate}}</td></tr>
  <tr><td>Паспорт (серия и номер)</td><td>{{.SeriesNumber}}</td></tr>
  <tr><td>Кем выдан</td><td>{{.IssuedBy}}</td></tr>
  <tr><td>Дата выдачи</td><td>{{.IssueDate}}</td></tr>
  <tr><td>Адрес регистрации</td><td>{{.RegistrationAddress}}</td></tr>
</table>
{{end}}

{{define "signature"}}
<div class="sign-block">
  <div class="sign-line">
    {{if .Signature}}<img class="sign-img" src="{{.Signature}}" alt="подпись">{{end}}
  </div>
  <div class="sign-caption">подпись Арендатора</div>
</div>
{{end}}

{{define "contract"}}
<h1>Договор аренды велосипеда</h1>
<p class="doc-meta">г. {{.City}}, {{.Date}}</p>
{{template "equipment" .}}
{{template "renter" .}}
<p class="clause">Подписывая настоящий договор, Арендатор подтверждает, что
осмотрел оборудование, претензий к его внешнему виду и техническому состоянию
не имеет, и обязуется вернуть оборудование в исправном состоянии.</p>
{{template "signature" .}}
{{end}}

{{define "return_act"}}
<h1>Акт возврата велосипеда</h1>
<p class="doc-meta">г. {{.City}}, договор от {{.Date}}</p>
{{template "equipment" .}}
{{template "renter" .}}
<h2>Дефекты</h2>
{{if .Defects}}
<ul class="defects">
{{range .Defects}}  <li>{{.}}</li>
{{end}}</ul>
{{else}}
<p>Дефектов не обнаружено.</p>
{{end}}
{{if gt .DamageAmount 0.0}}
<p class="clause">Сумма ущерба, подлежащая возмещению Арендатором, составляет
{{printf "%.2f" .DamageAmount}} руб.</p>
{{end}}
{{template "signature" .}}
{{end}}
`))
