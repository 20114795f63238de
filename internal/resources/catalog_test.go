package resources

import (
	"sort"
	"testing"
	"time"

	"casting-admin/internal/api"
	"casting-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return New(Delays{Default: 2 * time.Second, Coupon: 3 * time.Second})
}

func record(id int, fields map[string]interface{}) models.ResourceRecord {
	return models.ResourceRecord{ID: id, Fields: fields}
}

// ==========================
// Catalog consistency
// ==========================

func TestCatalog_ListsHaveListEndpoints(t *testing.T) {
	c := testCatalog()
	for _, name := range c.ListNames() {
		t.Run(name, func(t *testing.T) {
			spec, err := c.List(name)
			require.NoError(t, err)
			res, err := c.Resource(spec.Resource)
			require.NoError(t, err)
			assert.True(t, res.Supports(api.OpList))
			if spec.Status != nil {
				assert.True(t, res.Supports(api.OpStatus))
			}
			for _, col := range spec.Columns {
				assert.NotEmpty(t, col.Header)
			}
		})
	}
}

func TestCatalog_FormsHaveMutationEndpoints(t *testing.T) {
	c := testCatalog()
	for _, name := range c.FormNames() {
		t.Run(name, func(t *testing.T) {
			spec, err := c.Form(name)
			require.NoError(t, err)
			res, err := c.Resource(spec.Resource)
			require.NoError(t, err)
			if spec.Supports(models.FormCreate) {
				assert.True(t, res.Supports(api.OpCreate))
				assert.NotNil(t, spec.Schema(models.FormCreate))
			}
			if spec.Supports(models.FormEdit) {
				assert.True(t, res.Supports(api.OpUpdate))
				assert.NotNil(t, spec.Schema(models.FormEdit))
			}
			assert.NotEmpty(t, spec.NavigateTo)
		})
	}
}

func TestCatalog_UnknownNames(t *testing.T) {
	c := testCatalog()
	_, err := c.List("nope")
	assert.Error(t, err)
	_, err = c.Form("nope")
	assert.Error(t, err)
	_, err = c.Resource("nope")
	assert.Error(t, err)
}

func TestFlattenProfile(t *testing.T) {
	item := map[string]interface{}{
		"user":    map[string]interface{}{"id": 7.0, "name": "Greta", "adminActive": true},
		"profile": map[string]interface{}{"imageURL": "https://cdn/greta.png"},
	}

	out := flattenProfile(item)
	assert.Equal(t, 7.0, out["id"])
	assert.Equal(t, "Greta", out["name"])
	assert.Equal(t, "https://cdn/greta.png", out["imageURL"])

	plain := map[string]interface{}{"id": 1.0}
	assert.Equal(t, plain, flattenProfile(plain))
}

// ==========================
// Lists
// ==========================

func TestSortRule_IDDesc(t *testing.T) {
	records := []models.ResourceRecord{{ID: 2}, {ID: 9}, {ID: 5}}
	SortIDDesc.Apply(records)
	assert.Equal(t, []int{9, 5, 2}, []int{records[0].ID, records[1].ID, records[2].ID})

	records = []models.ResourceRecord{{ID: 2}, {ID: 9}}
	SortServerOrder.Apply(records)
	assert.Equal(t, 2, records[0].ID)
}

func TestStatusToggle_Acknowledged(t *testing.T) {
	toggle := userAccess()

	tests := []struct {
		name      string
		resp      map[string]interface{}
		requested bool
		expected  bool
	}{
		{"nested user flag", map[string]interface{}{"user": map[string]interface{}{"adminActive": false}}, true, false},
		{"top level flag", map[string]interface{}{"adminActive": true}, false, true},
		{"numeric activate", map[string]interface{}{"activate": 1.0}, false, true},
		{"message only", map[string]interface{}{"message": "User access updated"}, true, true},
		{"nil response", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, toggle.Acknowledged(tt.resp, tt.requested))
		})
	}

	assert.Equal(t, map[string]interface{}{"activate": 1}, toggle.Body(true))
	assert.Equal(t, map[string]interface{}{"activate": 0}, toggle.Body(false))
	assert.Equal(t, "You are about to deactivate this user.", toggle.Confirmation(false))
}

func TestParseActive(t *testing.T) {
	for _, in := range []string{"Active", "activate", "1", "TRUE"} {
		v, ok := ParseActive(in)
		assert.True(t, ok, in)
		assert.True(t, v, in)
	}
	v, ok := ParseActive("Deactivate")
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = ParseActive("maybe")
	assert.False(t, ok)
}

func TestListSpec_Rows(t *testing.T) {
	c := testCatalog()

	payments, err := c.List(Payments)
	require.NoError(t, err)
	row := payments.Row(record(3, map[string]interface{}{
		"fullName": "Ava Stone",
		"payments": map[string]interface{}{"amount": 1999.0},
	}))
	assert.Equal(t, "$19.99", row.Cells["amount"])
	assert.Equal(t, "N/A", row.Cells["phone"])

	blogs, err := c.List(Blogs)
	require.NoError(t, err)
	row = blogs.Row(record(1, map[string]interface{}{"description": "<p>Open <b>call</b> for   actors</p>"}))
	assert.Equal(t, "Open call for actors", row.Cells["description"])

	directors, err := c.List(Directors)
	require.NoError(t, err)
	row = directors.Row(record(4, map[string]interface{}{"name": "Greta", "adminActive": true}))
	assert.Equal(t, "Active", row.Status)
	assert.Equal(t, "Active", row.Cells["adminActive"])

	castings, err := c.List(PendingCastings)
	require.NoError(t, err)
	row = castings.Row(record(8, map[string]interface{}{"roles": []interface{}{map[string]interface{}{}, map[string]interface{}{}}}))
	assert.Equal(t, "2", row.Cells["roleCount"])
}

func TestListSpec_Texts(t *testing.T) {
	spec, err := testCatalog().List(Coupons)
	require.NoError(t, err)
	assert.Equal(t, "Are you sure you want to delete this coupon?", spec.DeleteConfirmation())
	assert.Equal(t, "Coupon deleted successfully", spec.DeletedMessage())
	assert.Equal(t, "/coupons/edit/12", Path(spec.EditPath, 12))
}

// ==========================
// Forms
// ==========================

func TestCouponForm(t *testing.T) {
	spec, err := testCatalog().Form(Coupons)
	require.NoError(t, err)

	schema := spec.Schema(models.FormCreate)
	assert.Equal(t, map[string]interface{}{"status": "Active"}, schema.Defaults())

	result := schema.Validate(map[string]interface{}{"status": "Active", "amount": "10"})
	assert.Equal(t, []string{"code", "details"}, sortedKeys(result.FieldErrors()))

	result = schema.Validate(map[string]interface{}{"code": "X", "details": "y", "amount": "-1", "status": "Active"})
	assert.Equal(t, "Amount must be a positive number", result.FieldErrors()["amount"])

	payload := spec.Payload(models.FormCreate, map[string]interface{}{
		"code": "SAVE10", "details": "10% off", "amount": "10", "status": "Active", "extra": "dropped",
	})
	assert.False(t, payload.IsMultipart())
	assert.Equal(t, map[string]interface{}{"code": "SAVE10", "details": "10% off", "amount": 10.0, "status": "Active"}, payload.Values)

	assert.Equal(t, 3*time.Second, spec.Delay(models.FormCreate))
	assert.Equal(t, 2*time.Second, spec.Delay(models.FormEdit))
	assert.Equal(t, "Coupon created successfully!", spec.SuccessMessage(models.FormCreate))
}

func TestProjectForm_DateOrder(t *testing.T) {
	spec, err := testCatalog().Form(Projects)
	require.NoError(t, err)
	schema := spec.Schema(models.FormCreate)

	base := func(end string) map[string]interface{} {
		return map[string]interface{}{
			"title": "Pilot", "description": "Shoot", "status": "Active",
			"start_date": "2024-01-01", "end_date": end,
		}
	}

	assert.Equal(t, "End date cannot be the same as start date", schema.Validate(base("2024-01-01")).FieldErrors()["end_date"])
	assert.Equal(t, "End date must be after start date", schema.Validate(base("2023-12-31")).FieldErrors()["end_date"])
	assert.True(t, schema.Validate(base("2024-01-02")).Valid)

	draft := spec.DraftValues(models.FormEdit, record(3, map[string]interface{}{
		"title": "Pilot", "start_date": "2024-01-01T00:00:00.000Z", "createdAt": "2024-01-01T00:00:00.000Z",
	}))
	assert.Equal(t, map[string]interface{}{"title": "Pilot", "start_date": "2024-01-01"}, draft)
}

func TestBannerForm_PartNames(t *testing.T) {
	spec, err := testCatalog().Form(Banners)
	require.NoError(t, err)
	img := &models.FileUpload{Name: "b.png", ContentType: "image/png", Data: []byte{1}}

	create := spec.Payload(models.FormCreate, map[string]interface{}{"websiteURL": "https://x.io", "image": img})
	assert.Contains(t, create.Files, "imageURL")
	assert.True(t, create.IsMultipart())

	edit := spec.Payload(models.FormEdit, map[string]interface{}{"websiteURL": "https://x.io", "image": img})
	assert.Contains(t, edit.Files, "image")

	noFile := spec.Payload(models.FormEdit, map[string]interface{}{"websiteURL": "https://x.io"})
	assert.Empty(t, noFile.Files)
	assert.True(t, noFile.IsMultipart())

	assert.False(t, spec.Schema(models.FormCreate).Validate(map[string]interface{}{"websiteURL": "https://x.io"}).Valid)
	assert.True(t, spec.Schema(models.FormEdit).Validate(map[string]interface{}{"websiteURL": "https://x.io"}).Valid)
}

func TestChangePasswordForm(t *testing.T) {
	spec, err := testCatalog().Form(ChangePassword)
	require.NoError(t, err)
	assert.True(t, spec.UsesAdminID)
	assert.True(t, spec.LogoutOnSuccess)

	msg, ok := spec.StatusMessage(400)
	assert.True(t, ok)
	assert.Equal(t, "Incorrect old password!", msg)

	values := map[string]interface{}{"oldPassword": "old", "newPassword": "Secret#123", "confirmPassword": "Secret#123"}
	assert.True(t, spec.Schema(models.FormEdit).Validate(values).Valid)

	payload := spec.Payload(models.FormEdit, values)
	assert.Equal(t, map[string]interface{}{"oldPassword": "old", "newPassword": "Secret#123"}, payload.Values)

	values["confirmPassword"] = "Secret#999"
	assert.Equal(t, "Passwords must match", spec.Schema(models.FormEdit).Validate(values).FieldErrors()["confirmPassword"])
}

func TestContentForm_RequiresEveryField(t *testing.T) {
	spec, err := testCatalog().Form(Content)
	require.NoError(t, err)

	result := spec.Schema(models.FormEdit).Validate(map[string]interface{}{"title1": "Hello"})
	errs := result.FieldErrors()
	assert.Len(t, errs, 7)
	assert.Equal(t, "Input cannot be empty", errs["content4"])
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
