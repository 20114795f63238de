package resources

import (
	"strconv"
	"time"

	"casting-admin/internal/api"
	"casting-admin/internal/common/validation"
	"casting-admin/internal/display"
	"casting-admin/internal/models"
)

// Encoding is the request body format of a form.
type Encoding string

const (
	EncodingJSON      Encoding = "json"
	EncodingMultipart Encoding = "multipart"
)

// FormSpec configures one create/edit form.
type FormSpec struct {
	Name     string
	Resource string
	Modes    []models.FormMode

	CreateSchema *validation.Schema
	EditSchema   *validation.Schema

	Encoding Encoding
	// Parts renames fields in the request per mode.
	Parts map[models.FormMode]map[string]string
	// Omit lists fields that are validated but never sent.
	Omit []string

	Success        map[models.FormMode]string
	StatusMessages map[int]string
	NavigateTo     string
	Delays         map[models.FormMode]time.Duration

	// UsesAdminID submits against the signed in admin instead of a record id.
	UsesAdminID     bool
	LogoutOnSuccess bool

	// Blank edit forms start from defaults; nothing is fetched.
	Blank bool
}

func (f *FormSpec) Supports(mode models.FormMode) bool {
	for _, m := range f.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

func (f *FormSpec) Schema(mode models.FormMode) *validation.Schema {
	if mode == models.FormEdit && f.EditSchema != nil {
		return f.EditSchema
	}
	if f.CreateSchema != nil {
		return f.CreateSchema
	}
	return f.EditSchema
}

func (f *FormSpec) Delay(mode models.FormMode) time.Duration {
	return f.Delays[mode]
}

func (f *FormSpec) SuccessMessage(mode models.FormMode) string {
	return f.Success[mode]
}

// StatusMessage returns the form specific text for an API status, if any.
func (f *FormSpec) StatusMessage(status int) (string, bool) {
	msg, ok := f.StatusMessages[status]
	return msg, ok
}

func (f *FormSpec) partName(mode models.FormMode, field string) string {
	if name, ok := f.Parts[mode][field]; ok {
		return name
	}
	return field
}

func (f *FormSpec) omitted(field string) bool {
	for _, o := range f.Omit {
		if o == field {
			return true
		}
	}
	return false
}

// Payload builds the request body from draft values. Only schema fields are
// sent; numbers are coerced and empty file fields are left out.
func (f *FormSpec) Payload(mode models.FormMode, values map[string]interface{}) api.Payload {
	payload := api.Payload{
		Values:    make(map[string]interface{}),
		Files:     make(map[string]*models.FileUpload),
		Multipart: f.Encoding == EncodingMultipart,
	}

	for _, field := range f.Schema(mode).Fields() {
		if f.omitted(field.Name) {
			continue
		}
		raw, ok := values[field.Name]
		if !ok {
			continue
		}
		name := f.partName(mode, field.Name)

		switch field.Kind {
		case validation.KindFile:
			if file, ok := raw.(*models.FileUpload); ok && file != nil {
				payload.Files[name] = file
			}
		case validation.KindNumber, validation.KindInteger:
			if n, ok := validation.ToNumber(raw); ok {
				payload.Values[name] = n
			} else if !validation.IsEmpty(raw) {
				payload.Values[name] = raw
			}
		default:
			if raw != nil {
				payload.Values[name] = raw
			}
		}
	}
	return payload
}

// DraftValues maps a fetched record into form values for the given mode.
func (f *FormSpec) DraftValues(mode models.FormMode, rec models.ResourceRecord) map[string]interface{} {
	values := make(map[string]interface{})
	for _, field := range f.Schema(mode).Fields() {
		if field.Kind == validation.KindFile || field.Kind == validation.KindPassword {
			continue
		}
		v, ok := rec.Value(field.Name)
		if !ok || v == nil {
			continue
		}
		if field.Kind == validation.KindDate {
			values[field.Name] = display.Date(v)
			continue
		}
		values[field.Name] = v
	}
	return values
}

// ==========================
// Form definitions
// ==========================

var (
	editOnly  = []models.FormMode{models.FormEdit}
	bothModes = []models.FormMode{models.FormCreate, models.FormEdit}
)

func messages(create, edit string) map[models.FormMode]string {
	return map[models.FormMode]string{models.FormCreate: create, models.FormEdit: edit}
}

func delays(create, edit time.Duration) map[models.FormMode]time.Duration {
	return map[models.FormMode]time.Duration{models.FormCreate: create, models.FormEdit: edit}
}

func couponFields() []validation.Field {
	return []validation.Field{
		{Name: "code", Label: "Code", Kind: validation.KindText, Required: true},
		{Name: "details", Label: "Details", Kind: validation.KindText, Required: true},
		{Name: "amount", Label: "Amount", Kind: validation.KindNumber, Required: true, Positive: true,
			Messages: validation.Messages{Positive: "Amount must be a positive number"}},
		{Name: "status", Label: "Status", Kind: validation.KindText, Required: true, OneOf: []string{"Active", "Inactive"}, Default: "Active"},
	}
}

func blogFields(imageRequired bool) []validation.Field {
	return []validation.Field{
		{Name: "title", Label: "Title", Kind: validation.KindText, Required: true},
		{Name: "description", Label: "Description", Kind: validation.KindText, Required: true},
		{Name: "author", Label: "Author", Kind: validation.KindText, Required: true},
		{Name: "email", Label: "Email", Kind: validation.KindEmail, Required: true},
		{Name: "noOfReaders", Label: "Number of readers", Kind: validation.KindInteger, Required: true, Positive: true},
		{Name: "type", Label: "Type", Kind: validation.KindText, Required: true},
		{Name: "status", Label: "Status", Kind: validation.KindText, Required: true, Default: "Active"},
		{Name: "blog-image", Label: "Image", Kind: validation.KindFile, Required: imageRequired},
	}
}

func bannerFields(imageRequired bool) []validation.Field {
	return []validation.Field{
		{Name: "websiteURL", Label: "Website URL", Kind: validation.KindURL, Required: true},
		{Name: "image", Label: "Image", Kind: validation.KindFile, Required: imageRequired},
	}
}

func projectSchema() *validation.Schema {
	return validation.MustSchema([]validation.Field{
		{Name: "title", Label: "Title", Kind: validation.KindText, Required: true},
		{Name: "description", Label: "Description", Kind: validation.KindText, Required: true},
		{Name: "start_date", Label: "Start date", Kind: validation.KindDate, Required: true},
		{Name: "end_date", Label: "End date", Kind: validation.KindDate, Required: true},
		{Name: "status", Label: "Status", Kind: validation.KindText, Required: true, Default: "Active"},
	}, validation.DateOrder{
		Start:         "start_date",
		End:           "end_date",
		EqualMessage:  "End date cannot be the same as start date",
		BeforeMessage: "End date must be after start date",
	})
}

func contentSchema() *validation.Schema {
	var fields []validation.Field
	for _, prefix := range []string{"title", "content"} {
		for i := 1; i <= 4; i++ {
			name := prefix + strconv.Itoa(i)
			fields = append(fields, validation.Field{
				Name:     name,
				Kind:     validation.KindText,
				Required: true,
				Messages: validation.Messages{Required: "Input cannot be empty"},
			})
		}
	}
	return validation.MustSchema(fields)
}

func formSpecs(d Delays) []*FormSpec {
	return []*FormSpec{
		{
			Name:         Coupons,
			Resource:     Coupons,
			Modes:        bothModes,
			CreateSchema: validation.MustSchema(couponFields()),
			Encoding:     EncodingJSON,
			Success:      messages("Coupon created successfully!", "Coupon updated successfully!"),
			NavigateTo:   "/coupons",
			Delays:       delays(d.Coupon, d.Default),
		},
		{
			Name:         Blogs,
			Resource:     Blogs,
			Modes:        bothModes,
			CreateSchema: validation.MustSchema(blogFields(true)),
			EditSchema:   validation.MustSchema(blogFields(false)),
			Encoding:     EncodingMultipart,
			Success:      messages("Blog created successfully!", "Blog updated successfully!"),
			NavigateTo:   "/blog",
			Delays:       delays(d.Default, d.Default),
		},
		{
			Name:         Banners,
			Resource:     Banners,
			Modes:        bothModes,
			CreateSchema: validation.MustSchema(bannerFields(true)),
			EditSchema:   validation.MustSchema(bannerFields(false)),
			Encoding:     EncodingMultipart,
			Parts: map[models.FormMode]map[string]string{
				models.FormCreate: {"image": "imageURL"},
			},
			Success:    messages("Banner image uploaded successfully!", "Banner details updated successfully!"),
			NavigateTo: "/changeBanner",
			Delays:     delays(d.Default, d.Default),
		},
		{
			Name:         Projects,
			Resource:     Projects,
			Modes:        bothModes,
			CreateSchema: projectSchema(),
			Encoding:     EncodingJSON,
			Success:      messages("Project created successfully!", "Project updated successfully!"),
			NavigateTo:   "/projects",
			Delays:       delays(d.Default, d.Default),
		},
		{
			Name:     Packages,
			Resource: Packages,
			Modes:    editOnly,
			EditSchema: validation.MustSchema([]validation.Field{
				{Name: "title", Label: "Title", Kind: validation.KindText, Required: true},
				{Name: "type", Label: "Type", Kind: validation.KindText, Required: true, OneOf: []string{"calls", "months"}},
				{Name: "price", Label: "Price", Kind: validation.KindNumber, Required: true, Positive: true},
				{Name: "count", Label: "Count", Kind: validation.KindInteger, Required: true, Min: validation.FloatPtr(1),
					Messages: validation.Messages{Min: "Count must be at least 1"}},
			}),
			Encoding:   EncodingJSON,
			Success:    messages("", "Subscription package updated successfully!"),
			NavigateTo: "/packages",
			Delays:     delays(0, d.Default),
		},
		{
			Name:       Content,
			Resource:   Content,
			Modes:      editOnly,
			EditSchema: contentSchema(),
			Encoding:   EncodingJSON,
			Success:    messages("", "Content updated successfully!"),
			NavigateTo: "/changeContent",
			Delays:     delays(0, d.Default),
		},
		{
			Name:     "admin-profile",
			Resource: Admin,
			Modes:    editOnly,
			EditSchema: validation.MustSchema([]validation.Field{
				{Name: "name", Label: "Name", Kind: validation.KindText, Required: true},
				{Name: "email", Label: "Email", Kind: validation.KindEmail, Required: true},
				{Name: "imageFile", Label: "Image", Kind: validation.KindFile},
			}),
			Encoding:    EncodingMultipart,
			Success:     messages("", "Your admin details have been updated."),
			NavigateTo:  "/dd",
			Delays:      delays(0, d.Default),
			UsesAdminID: true,
		},
		{
			Name:     ChangePassword,
			Resource: ChangePassword,
			Modes:    editOnly,
			EditSchema: validation.MustSchema([]validation.Field{
				{Name: "oldPassword", Label: "Old password", Kind: validation.KindPassword, Required: true},
				{Name: "newPassword", Label: "New password", Kind: validation.KindPassword, Required: true, MinLength: 8,
					Messages: validation.Messages{MinLength: "Password must be at least 8 characters"}},
				{Name: "confirmPassword", Label: "Confirm password", Kind: validation.KindPassword, Required: true},
			},
				validation.PasswordStrength{
					Field:   "newPassword",
					Message: "Password must contain upper and lower case letters, a number and a special character",
				},
				validation.Matches{Field: "confirmPassword", Other: "newPassword", Message: "Passwords must match"},
			),
			Omit:            []string{"confirmPassword"},
			Encoding:        EncodingJSON,
			Success:         messages("", "Password changed successfully."),
			StatusMessages:  map[int]string{400: "Incorrect old password!"},
			NavigateTo:      "/",
			Delays:          delays(0, d.Default),
			UsesAdminID:     true,
			LogoutOnSuccess: true,
			Blank:           true,
		},
	}
}
