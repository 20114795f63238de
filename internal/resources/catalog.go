// Package resources holds the per-resource configuration: endpoints and
// envelopes, list columns and sort rules, form schemas and messages.
package resources

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"casting-admin/internal/api"
	"casting-admin/internal/common/config"
	"casting-admin/internal/common/errors"
)

// Resource names.
const (
	Coupons          = "coupons"
	Billing          = "billing"
	Payments         = "payments"
	Blogs            = "blogs"
	Feedbacks        = "feedbacks"
	Packages         = "packages"
	Admin            = "admin"
	Content          = "content"
	Projects         = "projects"
	PendingCastings  = "pending-castings"
	ApprovedCastings = "approved-castings"
	Banners          = "banners"
	Directors        = "directors"
	Actors           = "actors"
	Producers        = "producers"
	ChangePassword   = "change-password"
)

// ModerationTransition is the approval endpoint; "{status}" is approved or rejected.
var ModerationTransition = api.Endpoint{Method: http.MethodPatch, Path: "admin/castingAdminApproval/{id}/{status}"}

// ModerationHost serves the casting applications.
const ModerationHost = config.HostCasting

// Delays are the navigation delays applied after a successful submit.
type Delays struct {
	Default time.Duration
	Coupon  time.Duration
}

// DelaysFromConfig converts the configured millisecond values.
func DelaysFromConfig(ux config.UXConfig) Delays {
	return Delays{
		Default: config.GetDuration(ux.NavigationDelay),
		Coupon:  config.GetDuration(ux.CouponNavigationDelay),
	}
}

// Catalog is the full set of resource, list and form definitions.
type Catalog struct {
	resources map[string]*api.Resource
	lists     map[string]*ListSpec
	forms     map[string]*FormSpec
}

func New(delays Delays) *Catalog {
	c := &Catalog{
		resources: make(map[string]*api.Resource),
		lists:     make(map[string]*ListSpec),
		forms:     make(map[string]*FormSpec),
	}
	for _, r := range endpoints() {
		c.resources[r.Name] = r
	}
	for _, l := range listSpecs() {
		c.lists[l.Resource] = l
	}
	for _, f := range formSpecs(delays) {
		c.forms[f.Name] = f
	}
	return c
}

// Resources returns the endpoint definitions sorted by name.
func (c *Catalog) Resources() []*api.Resource {
	out := make([]*api.Resource, 0, len(c.resources))
	for _, r := range c.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Catalog) Resource(name string) (*api.Resource, error) {
	r, ok := c.resources[name]
	if !ok {
		return nil, errors.NewConfigError(fmt.Sprintf("unknown resource %q", name))
	}
	return r, nil
}

func (c *Catalog) List(name string) (*ListSpec, error) {
	l, ok := c.lists[name]
	if !ok {
		return nil, errors.NewConfigError(fmt.Sprintf("resource %q has no list screen", name))
	}
	return l, nil
}

func (c *Catalog) Form(name string) (*FormSpec, error) {
	f, ok := c.forms[name]
	if !ok {
		return nil, errors.NewConfigError(fmt.Sprintf("no form named %q", name))
	}
	return f, nil
}

func (c *Catalog) ListNames() []string {
	return sortedNames(c.lists)
}

func (c *Catalog) FormNames() []string {
	return sortedNames(c.forms)
}

func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ==========================
// Endpoints
// ==========================

func get(path string) *api.Endpoint    { return &api.Endpoint{Method: http.MethodGet, Path: path} }
func post(path string) *api.Endpoint   { return &api.Endpoint{Method: http.MethodPost, Path: path} }
func put(path string) *api.Endpoint    { return &api.Endpoint{Method: http.MethodPut, Path: path} }
func patch(path string) *api.Endpoint  { return &api.Endpoint{Method: http.MethodPatch, Path: path} }
func remove(path string) *api.Endpoint { return &api.Endpoint{Method: http.MethodDelete, Path: path} }

func endpoints() []*api.Resource {
	billing, casting, projects := config.HostBilling, config.HostCasting, config.HostProjects

	return []*api.Resource{
		{
			Name:           Coupons,
			Host:           billing,
			List:           get("payapi/getAllCoupon"),
			Get:            get("payapi/getCouponById/{id}"),
			Create:         post("payapi/createCoupon"),
			Update:         put("payapi/updateCouponByID/{id}"),
			Delete:         remove("payapi/deleteCouponByID/{id}"),
			ListEnvelope:   api.Nested("result").WithFlag("status"),
			DetailEnvelope: api.Nested("result"),
		},
		{
			Name:         Billing,
			Host:         billing,
			List:         get("payapi/getAllBilling"),
			ListEnvelope: api.Nested("result"),
		},
		{
			Name:           Payments,
			Host:           billing,
			List:           get("payapi/getAllPayments"),
			Get:            get("payapi/payment-details/{id}"),
			ListEnvelope:   api.Nested("result").WithFlag("success"),
			DetailEnvelope: api.Nested("result"),
		},
		{
			Name:           Blogs,
			Host:           billing,
			List:           get("blog/getAllBlogs"),
			Get:            get("blog/getBlogById/{id}"),
			Create:         post("blog/createBlog"),
			Update:         put("blog/updateBlogByID/{id}"),
			Delete:         remove("blog/deleteBlogByID/{id}"),
			ListEnvelope:   api.Nested("result"),
			DetailEnvelope: api.Nested("result"),
		},
		{
			Name:           Feedbacks,
			Host:           billing,
			List:           get("feedback/getAllFeedbacks"),
			Get:            get("feedback/getFeedbackById/{id}"),
			Delete:         remove("feedback/deleteFeedbackByID/{id}"),
			ListEnvelope:   api.Nested("result"),
			DetailEnvelope: api.Nested("result"),
		},
		{
			Name:           Packages,
			Host:           billing,
			List:           get("subscriptionPackage/getAll"),
			Get:            get("subscriptionPackage/findById/{id}"),
			Update:         put("subscriptionPackage/update/{id}"),
			ListEnvelope:   api.Nested("result"),
			DetailEnvelope: api.Nested("result"),
		},
		{
			// getAdmin returns every admin; the detail view uses the first one
			Name:           Admin,
			Host:           billing,
			List:           get("admin/getAdmin"),
			Get:            get("admin/getAdmin"),
			Update:         put("admin/updateUserDetails/{id}"),
			ListEnvelope:   api.Bare(),
			DetailEnvelope: api.Bare(),
		},
		{
			Name:           Content,
			Host:           casting,
			Get:            get("content/get"),
			Update:         patch("content/patch"),
			DetailEnvelope: api.Bare(),
			Singleton:      true,
		},
		{
			Name:           Projects,
			Host:           projects,
			List:           get("project/getAll"),
			Get:            get("project/getById/{id}"),
			Create:         post("project/create"),
			Update:         put("project/update/{id}"),
			Delete:         remove("project/delete/{id}"),
			ListEnvelope:   api.Nested("data.data"),
			DetailEnvelope: api.Nested("data.data"),
		},
		{
			Name:           PendingCastings,
			Host:           casting,
			List:           get("casting/getCastingsListByStatus/pending"),
			Get:            get("casting/getCasting/{id}"),
			Delete:         remove("casting/delete/{id}"),
			ListEnvelope:   api.Nested("castings"),
			DetailEnvelope: api.Nested("casting"),
		},
		{
			Name:           ApprovedCastings,
			Host:           casting,
			List:           get("casting/getCastingsListByStatus/approved"),
			Get:            get("casting/getCasting/{id}"),
			Delete:         remove("casting/delete/{id}"),
			ListEnvelope:   api.Nested("castings"),
			DetailEnvelope: api.Nested("casting"),
		},
		{
			Name:           Banners,
			Host:           casting,
			List:           get("casting/getCastingAllImageDetails"),
			Get:            get("casting/getCastingImageDetails/{id}"),
			Create:         post("casting/addCastingBannerImage"),
			Update:         put("casting/updateCastingBannerDetails/{id}"),
			Delete:         remove("casting/deleteCastingImageDetails/{id}"),
			ListEnvelope:   api.Nested("castings").WithFlag("success"),
			DetailEnvelope: api.Nested("casting"),
		},
		{
			Name:         Directors,
			Host:         casting,
			List:         get("director/getAllDirectors"),
			Status:       patch("user/updateUserAccess/{id}"),
			ListEnvelope: api.Nested("users.directorProfiles"),
			Adapt:        flattenProfile,
		},
		{
			Name:         Actors,
			Host:         casting,
			List:         get("actor/getAllActors"),
			Status:       patch("user/updateUserAccess/{id}"),
			ListEnvelope: api.Nested("users.actorProfiles"),
			Adapt:        flattenProfile,
		},
		{
			Name:           Producers,
			Host:           casting,
			List:           get("producer/getAllProducers"),
			Get:            get("producer/getProducer/{id}"),
			Status:         patch("user/updateUserAccess/{id}"),
			ListEnvelope:   api.Nested("users.producerProfiles"),
			DetailEnvelope: api.Nested("user"),
			Adapt:          flattenProfile,
		},
		{
			// the id is the signed in admin
			Name:   ChangePassword,
			Host:   casting,
			Update: post("user/changePassword/{id}"),
		},
	}
}

// flattenProfile lifts {user, profile} list items into one record: the user
// fields plus the profile image.
func flattenProfile(item map[string]interface{}) map[string]interface{} {
	user, ok := item["user"].(map[string]interface{})
	if !ok {
		return item
	}
	out := make(map[string]interface{}, len(user)+1)
	for k, v := range user {
		out[k] = v
	}
	if profile, ok := item["profile"].(map[string]interface{}); ok {
		out["imageURL"] = profile["imageURL"]
	} else if img, ok := item["imageURL"]; ok {
		out["imageURL"] = img
	}
	return out
}
