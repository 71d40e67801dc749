package document

import (
	"encoding/json"
	"log/slog"
)

// Passport is the canonical recognition record. Stored payloads are not
// uniform: older client builds wrote Russian-labeled keys, newer ones write
// snake_case, and the whole value may itself arrive JSON-encoded as a string.
// Each logical field is read under both conventions and defaults
// independently.
type Passport struct {
	BirthDate           string
	SeriesNumber        string
	IssuedBy            string
	IssueDate           string
	RegistrationAddress string
}

func ParsePassport(raw any) Passport {
	return passportFromMap(passportMap(raw))
}

// passportMap normalizes the raw payload to a (possibly empty) mapping.
// Decode failures are logged and swallowed so rendering always proceeds.
func passportMap(raw any) map[string]any {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return v
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			slog.Warn("passport payload is not valid JSON", "err", err)
			return map[string]any{}
		}
		return m
	case []byte:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			slog.Warn("passport payload is not valid JSON", "err", err)
			return map[string]any{}
		}
		return passportMap(decoded)
	case json.RawMessage:
		return passportMap([]byte(v))
	default:
		slog.Warn("passport payload has unexpected shape")
		return map[string]any{}
	}
}

func passportFromMap(m map[string]any) Passport {
	return Passport{
		BirthDate:           pick(m, "birth_date", "Дата рождения"),
		SeriesNumber:        pick(m, "series_number", "Серия и номер"),
		IssuedBy:            pick(m, "issued_by", "Кем выдан"),
		IssueDate:           pick(m, "issue_date", "Дата выдачи"),
		RegistrationAddress: pick(m, "registration_address", "Адрес регистрации"),
	}
}

func pick(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
