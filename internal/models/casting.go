package models

import (
	"encoding/json"
	"strings"
)

// ApprovalStatus is the moderation state of a casting application.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// IsTerminal reports whether no moderation transition leaves the status.
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// Label is the capitalized form used in operator messages.
func (s ApprovalStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// CastingApplication is a casting call awaiting moderation. Roles are owned by it.
type CastingApplication struct {
	ID             int            `json:"id"`
	Title          string         `json:"title"`
	CompanyName    string         `json:"companyName"`
	Category       string         `json:"category"`
	CallerJobTitle string         `json:"callerJobTitle"`
	AuditionType   string         `json:"auditionType"`
	Area           string         `json:"area"`
	ShortDesc      string         `json:"shortDesc"`
	ZipCode        string         `json:"zipCode"`
	ContactNo      string         `json:"contactNo"`
	Status         ApprovalStatus `json:"status"`
	AdminStatus    ApprovalStatus `json:"adminStatus"`
	Amount         string         `json:"amount"`
	Period         string         `json:"period"`
	ExpirationDate string         `json:"expirationDate"`
	CreatedAt      string         `json:"createdAt"`
	UpdatedAt      string         `json:"updatedAt"`
	Roles          []CastingRole  `json:"roles"`
}

// ModerationState is the status the moderation workflow acts on.
func (a *CastingApplication) ModerationState() ApprovalStatus {
	if a.AdminStatus != "" {
		return a.AdminStatus
	}
	if a.Status != "" {
		return a.Status
	}
	return ApprovalPending
}

// CastingRole is one role sought by a casting application.
type CastingRole struct {
	ID          int    `json:"id"`
	CastingRole string `json:"castingRole"`
	CastingType string `json:"castingType"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AgeMin      string `json:"ageMin"`
	AgeMax      string `json:"ageMax"`
	Ethnicity   string `json:"ethnicity"`
	Gender      string `json:"gender"`
}

// EthnicityDisplay is the role's ethnicity formatted for display.
func (r CastingRole) EthnicityDisplay() string {
	return ParseEthnicity(r.Ethnicity)
}

// ParseEthnicity turns a JSON encoded array ("[\"Asian\",\"White\"]") into
// "Asian, White". Plain or malformed input is returned unchanged and empty
// input displays as "N/A".
func ParseEthnicity(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "N/A"
	}
	if !strings.HasPrefix(trimmed, "[") {
		return raw
	}

	var values []interface{}
	if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
		return raw
	}

	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, ToString(v))
	}
	return strings.Join(parts, ", ")
}

// CastingApplicationFromRecord maps a normalized detail record.
func CastingApplicationFromRecord(rec ResourceRecord) *CastingApplication {
	app := &CastingApplication{
		ID:             rec.ID,
		Title:          rec.String("title"),
		CompanyName:    rec.String("companyName"),
		Category:       rec.String("category"),
		CallerJobTitle: rec.String("callerJobTitle"),
		AuditionType:   rec.String("auditionType"),
		Area:           rec.String("area"),
		ShortDesc:      rec.String("shortDesc"),
		ZipCode:        rec.String("zipCode"),
		ContactNo:      rec.String("contactNo"),
		Status:         ApprovalStatus(strings.ToLower(rec.String("status"))),
		AdminStatus:    ApprovalStatus(strings.ToLower(rec.String("adminStatus"))),
		Amount:         rec.String("amount"),
		Period:         rec.String("period"),
		ExpirationDate: rec.String("expirationDate"),
		CreatedAt:      rec.String("createdAt"),
		UpdatedAt:      rec.String("updatedAt"),
	}

	rawRoles, _ := rec.Value("roles")
	list, _ := rawRoles.([]interface{})
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		role := CastingRole{
			CastingRole: ToString(m["castingRole"]),
			CastingType: ToString(m["castingType"]),
			Title:       ToString(m["title"]),
			Description: ToString(m["description"]),
			AgeMin:      ToString(m["ageMin"]),
			AgeMax:      ToString(m["ageMax"]),
			Gender:      ToString(m["gender"]),
		}
		role.ID, _ = ToInt(m["id"])
		// the API spells the key "ethinicity"
		if v, ok := m["ethinicity"]; ok {
			role.Ethnicity = ToString(v)
		} else {
			role.Ethnicity = ToString(m["ethnicity"])
		}
		app.Roles = append(app.Roles, role)
	}
	return app
}
