package resources

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"casting-admin/internal/display"
	"casting-admin/internal/models"
)

// SortRule names an explicit client-side ordering. The zero value keeps the
// server order.
type SortRule string

const (
	SortServerOrder SortRule = ""
	SortIDDesc      SortRule = "id-desc"
)

// Apply orders records in place.
func (r SortRule) Apply(records []models.ResourceRecord) {
	switch r {
	case SortIDDesc:
		sort.SliceStable(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	}
}

// StatusToggle describes a mutable two-state status column.
type StatusToggle struct {
	Field             string
	Body              func(active bool) map[string]interface{}
	AckPaths          []string
	ActivateConfirm   string
	DeactivateConfirm string
}

func (s *StatusToggle) Confirmation(active bool) string {
	if active {
		return s.ActivateConfirm
	}
	return s.DeactivateConfirm
}

// Acknowledged returns the state the server reports after the mutation. A
// response without any acknowledgement field confirms the requested state.
func (s *StatusToggle) Acknowledged(resp map[string]interface{}, requested bool) bool {
	for _, path := range s.AckPaths {
		v, ok := models.Lookup(resp, path)
		if !ok {
			continue
		}
		if active, ok := activeFlag(v); ok {
			return active
		}
	}
	return requested
}

// Current reads the record's status flag.
func (s *StatusToggle) Current(rec models.ResourceRecord) bool {
	v, _ := rec.Value(s.Field)
	active, _ := activeFlag(v)
	return active
}

// ParseActive accepts the status labels and flag spellings an operator may type.
func ParseActive(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active", "activate", "1", "true", "on":
		return true, true
	case "deactivate", "inactive", "0", "false", "off":
		return false, true
	}
	return false, false
}

func activeFlag(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case int:
		return t != 0, true
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b, true
		}
	}
	return false, false
}

// ListSpec configures one list screen.
type ListSpec struct {
	Resource string
	Noun     string
	Columns  []models.Column
	Cells    func(rec models.ResourceRecord) map[string]string
	Sort     SortRule
	Status   *StatusToggle

	ViewPath string
	EditPath string
	AddPath  string
}

// Row maps a record to its display row.
func (l *ListSpec) Row(rec models.ResourceRecord) models.DisplayRow {
	row := models.DisplayRow{ID: rec.ID, Cells: l.Cells(rec)}
	if l.Status != nil {
		row.Status = display.ActiveLabel(l.Status.Current(rec))
		row.Cells[l.Status.Field] = row.Status
	}
	return row
}

func (l *ListSpec) DeleteConfirmation() string {
	return "Are you sure you want to delete this " + l.Noun + "?"
}

func (l *ListSpec) DeletedMessage() string {
	return strings.ToUpper(l.Noun[:1]) + l.Noun[1:] + " deleted successfully"
}

// Path fills "{id}" in a navigation template.
func Path(template string, id int) string {
	return strings.ReplaceAll(template, "{id}", strconv.Itoa(id))
}

// ==========================
// List definitions
// ==========================

func cols(pairs ...string) []models.Column {
	out := make([]models.Column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, models.Column{Key: pairs[i], Header: pairs[i+1]})
	}
	return out
}

func ts(rec models.ResourceRecord, key string) string {
	v, _ := rec.Value(key)
	return display.Timestamp(v, time.Local)
}

func val(rec models.ResourceRecord, key string) string {
	return display.OrNA(rec.String(key))
}

func idCell(rec models.ResourceRecord) string {
	return strconv.Itoa(rec.ID)
}

func userAccess() *StatusToggle {
	return &StatusToggle{
		Field: "adminActive",
		Body: func(active bool) map[string]interface{} {
			flag := 0
			if active {
				flag = 1
			}
			return map[string]interface{}{"activate": flag}
		},
		AckPaths:          []string{"user.adminActive", "adminActive", "activate"},
		ActivateConfirm:   "You are about to activate this user.",
		DeactivateConfirm: "You are about to deactivate this user.",
	}
}

func peopleCells(rec models.ResourceRecord) map[string]string {
	return map[string]string{
		"id":       idCell(rec),
		"name":     val(rec, "name"),
		"email":    val(rec, "email"),
		"imageURL": val(rec, "imageURL"),
	}
}

var peopleColumns = cols("id", "ID", "name", "Name", "email", "Email", "imageURL", "Image", "adminActive", "Admin Active")

func castingCells(rec models.ResourceRecord) map[string]string {
	roles, _ := rec.Value("roles")
	list, _ := roles.([]interface{})
	return map[string]string{
		"id":             idCell(rec),
		"title":          val(rec, "title"),
		"category":       val(rec, "category"),
		"contactNo":      val(rec, "contactNo"),
		"companyName":    val(rec, "companyName"),
		"expirationDate": display.OrNA(display.Date(mustValue(rec, "expirationDate"))),
		"roleCount":      strconv.Itoa(len(list)),
		"createdAt":      ts(rec, "createdAt"),
	}
}

var castingColumns = cols("id", "ID", "title", "Title", "category", "Category", "contactNo", "Contact No",
	"companyName", "Company", "expirationDate", "Expires", "roleCount", "Roles", "createdAt", "Created At")

func mustValue(rec models.ResourceRecord, key string) interface{} {
	v, _ := rec.Value(key)
	return v
}

func listSpecs() []*ListSpec {
	return []*ListSpec{
		{
			Resource: Coupons,
			Noun:     "coupon",
			Columns: cols("id", "ID", "code", "Code", "details", "Details", "amount", "Amount",
				"status", "Status", "createdAt", "Created At", "updatedAt", "Updated At"),
			Cells: func(rec models.ResourceRecord) map[string]string {
				return map[string]string{
					"id":        idCell(rec),
					"code":      val(rec, "code"),
					"details":   val(rec, "details"),
					"amount":    val(rec, "amount"),
					"status":    val(rec, "status"),
					"createdAt": ts(rec, "createdAt"),
					"updatedAt": ts(rec, "updatedAt"),
				}
			},
			ViewPath: "/coupons/view/{id}",
			EditPath: "/coupons/edit/{id}",
			AddPath:  "/coupons/add",
		},
		{
			Resource: Billing,
			Noun:     "billing record",
			Columns: cols("id", "ID", "name", "Name", "amount", "Amount", "currency", "Currency",
				"status", "Status", "createdAt", "Created At"),
			Cells: func(rec models.ResourceRecord) map[string]string {
				return map[string]string{
					"id":        idCell(rec),
					"name":      display.FullName(rec.String("first_name"), rec.String("last_name")),
					"amount":    val(rec, "payments.amount"),
					"currency":  display.OrNA(strings.ToUpper(rec.String("payments.currency"))),
					"status":    val(rec, "payments.status"),
					"createdAt": ts(rec, "createdAt"),
				}
			},
		},
		{
			Resource: Payments,
			Noun:     "payment",
			Columns: cols("id", "ID", "fullName", "Full Name", "company_name", "Company", "email_add", "Email",
				"phone", "Phone", "amount", "Amount", "createdAt", "Created At"),
			Cells: func(rec models.ResourceRecord) map[string]string {
				return map[string]string{
					"id":           idCell(rec),
					"fullName":     val(rec, "fullName"),
					"company_name": val(rec, "company_name"),
					"email_add":    val(rec, "email_add"),
					"phone":        val(rec, "phone"),
					"amount":       display.Cents(mustValue(rec, "payments.amount")),
					"createdAt":    ts(rec, "createdAt"),
				}
			},
			ViewPath: "/payments/view/{id}",
		},
		{
			Resource: Blogs,
			Noun:     "blog",
			Columns: cols("id", "ID", "title", "Title", "author", "Author", "email", "Email", "type", "Type",
				"status", "Status", "noOfReaders", "Readers", "description", "Description"),
			Cells: func(rec models.ResourceRecord) map[string]string {
				return map[string]string{
					"id":          idCell(rec),
					"title":       val(rec, "title"),
					"author":      val(rec, "author"),
					"email":       val(rec, "email"),
					"type":        val(rec, "type"),
					"status":      val(rec, "status"),
					"noOfReaders": val(rec, "noOfReaders"),
					"description": display.Truncate(display.PlainText(rec.String("description")), 80),
				}
			},
			ViewPath: "/blog/view/{id}",
			EditPath: "/blog/edit/{id}",
			AddPath:  "/blog/add",
		},
		{
			Resource: Feedbacks,
			Noun:     "feedback",
			Columns:  cols("id", "ID", "name", "Name", "email", "Email", "message", "Message", "createdAt", "Created At"),
			Cells: func(rec models.ResourceRecord) map[string]string {
				return map[string]string{
					"id":        idCell(rec),
					"name":      val(rec, "name"),
					"email":     val(rec, "email"),
					"message":   display.OrNA(display.PlainText(rec.String("message"))),
					"createdAt": ts(rec, "createdAt"),
				}
			},
			ViewPath: "/feedbacks/view/{id}",
		},
		{
			Resource: Packages,
			Noun:     "package",
			Columns: cols("id", "ID", "title", "Title", "type", "Type", "price", "Price",
				"count", "Count", "status", "Status"),
			Cells: func(rec models.ResourceRecord) map[string]string {
				return map[string]string{
					"id":     idCell(rec),
					"title":  val(rec, "title"),
					"type":   val(rec, "type"),
					"price":  val(rec, "price"),
					"count":  val(rec, "count"),
					"status": val(rec, "status"),
				}
			},
			EditPath: "/packages/edit/{id}",
		},
		{
			Resource: Projects,
			Noun:     "project",
			Columns: cols("id", "ID", "title", "Title", "start_date", "Start Date", "end_date", "End Date",
				"status", "Status"),
			Cells: func(rec models.ResourceRecord) map[string]string {
				return map[string]string{
					"id":         idCell(rec),
					"title":      val(rec, "title"),
					"start_date": display.OrNA(display.Date(mustValue(rec, "start_date"))),
					"end_date":   display.OrNA(display.Date(mustValue(rec, "end_date"))),
					"status":     val(rec, "status"),
				}
			},
			Sort:     SortIDDesc,
			ViewPath: "/projects/view/{id}",
			EditPath: "/projects/edit/{id}",
			AddPath:  "/projects/add",
		},
		{
			Resource: PendingCastings,
			Noun:     "casting",
			Columns:  castingColumns,
			Cells:    castingCells,
			ViewPath: "/pending/view/{id}",
		},
		{
			Resource: ApprovedCastings,
			Noun:     "casting",
			Columns:  castingColumns,
			Cells:    castingCells,
			ViewPath: "/approved/view/{id}",
		},
		{
			Resource: Banners,
			Noun:     "banner",
			Columns:  cols("id", "ID", "websiteURL", "Website", "imageURL", "Image"),
			Cells: func(rec models.ResourceRecord) map[string]string {
				return map[string]string{
					"id":         idCell(rec),
					"websiteURL": val(rec, "websiteURL"),
					"imageURL":   val(rec, "imageURL"),
				}
			},
			EditPath: "/changeBanner/edit/{id}",
			AddPath:  "/changeBanner/add",
		},
		{
			Resource: Directors,
			Noun:     "director",
			Columns:  peopleColumns,
			Cells:    peopleCells,
			Status:   userAccess(),
		},
		{
			Resource: Actors,
			Noun:     "actor",
			Columns:  peopleColumns,
			Cells:    peopleCells,
			Status:   userAccess(),
		},
		{
			Resource: Producers,
			Noun:     "producer",
			Columns:  peopleColumns,
			Cells:    peopleCells,
			Status:   userAccess(),
			ViewPath: "/producers/view/{id}",
		},
	}
}
