package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"casting-admin/internal/common/errors"
	commonhttp "casting-admin/internal/common/http"
	"casting-admin/internal/common/logger"
	"casting-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeTokens struct {
	mu    sync.Mutex
	token string
}

func (f *fakeTokens) CurrentToken(ctx context.Context) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeTokens) set(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate(ctx context.Context) { f.calls++ }

func createTestClient(t *testing.T, handler http.HandlerFunc, tokens TokenSource, inv Invalidator) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Options{
		HTTPClient:  commonhttp.NewClient(5 * time.Second),
		Hosts:       map[string]string{"test": srv.URL + "/"},
		Tokens:      tokens,
		Invalidator: inv,
		Logger:      logger.NewTestLogger(t),
	})
	c.Register(
		&Resource{
			Name:           "coupons",
			Host:           "test",
			List:           &Endpoint{Method: http.MethodGet, Path: "payapi/getAllCoupon"},
			Get:            &Endpoint{Method: http.MethodGet, Path: "payapi/getCouponById/{id}"},
			Create:         &Endpoint{Method: http.MethodPost, Path: "payapi/createCoupon"},
			Update:         &Endpoint{Method: http.MethodPut, Path: "payapi/updateCouponByID/{id}"},
			Delete:         &Endpoint{Method: http.MethodDelete, Path: "payapi/deleteCouponByID/{id}"},
			ListEnvelope:   Nested("result").WithFlag("status"),
			DetailEnvelope: Nested("result"),
		},
		&Resource{
			Name:         "directors",
			Host:         "test",
			List:         &Endpoint{Method: http.MethodGet, Path: "director/getAllDirectors"},
			Status:       &Endpoint{Method: http.MethodPatch, Path: "user/updateUserAccess/{id}"},
			ListEnvelope: Nested("users.directorProfiles"),
			Adapt: func(item map[string]interface{}) map[string]interface{} {
				user, _ := item["user"].(map[string]interface{})
				out := map[string]interface{}{}
				for k, v := range user {
					out[k] = v
				}
				return out
			},
		},
	)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// ==========================
// Envelope Tests
// ==========================

func TestEnvelope_Items(t *testing.T) {
	tests := []struct {
		name      string
		envelope  Envelope
		body      string
		count     int
		shapeFail bool
	}{
		{"result wrapper", Nested("result").WithFlag("status"), `{"status":true,"result":[{"id":1},{"id":2}]}`, 2, false},
		{"data.data wrapper", Nested("data.data"), `{"status":true,"data":{"data":[{"id":3}]}}`, 1, false},
		{"castings wrapper", Nested("castings"), `{"castings":[{"id":4},{"id":5},{"id":6}]}`, 3, false},
		{"nested profiles", Nested("users.directorProfiles"), `{"users":{"directorProfiles":[]}}`, 0, false},
		{"bare array", Bare(), `[{"id":1}]`, 1, false},
		{"null payload is empty", Nested("result"), `{"result":null}`, 0, false},
		{"success flag false", Nested("result").WithFlag("success"), `{"success":false,"result":[]}`, 0, true},
		{"missing path", Nested("result"), `{"data":[]}`, 0, true},
		{"object where list expected", Nested("result"), `{"result":{"id":1}}`, 0, true},
		{"scalar items", Bare(), `[1,2]`, 0, true},
		{"wrapper expected but array sent", Nested("result"), `[{"id":1}]`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc interface{}
			require.NoError(t, json.Unmarshal([]byte(tt.body), &doc))

			items, err := tt.envelope.Items("test", doc)
			if tt.shapeFail {
				assert.True(t, errors.Is(err, errors.ErrCodeShape), "expected shape error, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.count)
		})
	}
}

func TestEnvelope_Item(t *testing.T) {
	tests := []struct {
		name     string
		envelope Envelope
		body     string
		id       interface{}
	}{
		{"result object", Nested("result"), `{"result":{"id":9}}`, 9.0},
		{"casting object", Nested("casting"), `{"casting":{"id":10}}`, 10.0},
		{"bare object", Bare(), `{"title1":"Hello"}`, nil},
		{"bare array first element", Bare(), `[{"id":1},{"id":2}]`, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc interface{}
			require.NoError(t, json.Unmarshal([]byte(tt.body), &doc))

			item, err := tt.envelope.Item("test", doc)
			require.NoError(t, err)
			require.NotNil(t, item)
			assert.Equal(t, tt.id, item["id"])
		})
	}
}

// ==========================
// Client Operation Tests
// ==========================

func TestClient_List(t *testing.T) {
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payapi/getAllCoupon", r.URL.Path)
		writeJSON(w, 200, `{"status":true,"result":[
			{"id":2,"code":"SAVE10","amount":10,"createdAt":"2024-01-02T10:00:00.000Z"},
			{"id":1,"code":"WELCOME","amount":5}]}`)
	}, nil, nil)

	records, err := client.List(context.Background(), "coupons")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].ID)
	assert.Equal(t, "SAVE10", records[0].String("code"))
	assert.False(t, records[0].CreatedAt.IsZero())
	assert.Equal(t, 1, records[1].ID)
}

func TestClient_ListEmpty(t *testing.T) {
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"status":true,"result":[]}`)
	}, nil, nil)

	records, err := client.List(context.Background(), "coupons")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestClient_ListAdaptsItems(t *testing.T) {
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"users":{"directorProfiles":[{"user":{"id":7,"name":"Greta"},"profile":{}}]}}`)
	}, nil, nil)

	records, err := client.List(context.Background(), "directors")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 7, records[0].ID)
	assert.Equal(t, "Greta", records[0].String("name"))
}

func TestClient_ListRecordWithoutID(t *testing.T) {
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"result":[{"code":"X"}]}`)
	}, nil, nil)

	_, err := client.List(context.Background(), "coupons")
	assert.True(t, errors.Is(err, errors.ErrCodeShape))
}

func TestClient_BearerTokenReadAtCallTime(t *testing.T) {
	var seen []string
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		writeJSON(w, 200, `{"result":[]}`)
	}, nil, nil)
	tokens := &fakeTokens{}
	client.tokens = tokens

	tokens.set("first")
	_, err := client.List(context.Background(), "coupons")
	require.NoError(t, err)

	tokens.set("second")
	_, err = client.List(context.Background(), "coupons")
	require.NoError(t, err)

	tokens.set("")
	_, err = client.List(context.Background(), "coupons")
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer first", "Bearer second", ""}, seen)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    errors.ErrorCode
		message string
	}{
		{"server message", 500, `{"message":"Database unavailable"}`, errors.ErrCodeAPI, "Database unavailable"},
		{"no message", 502, `<html>bad gateway</html>`, errors.ErrCodeAPI, errors.GenericAPIMessage},
		{"error key", 400, `{"error":"Invalid id"}`, errors.ErrCodeAPI, "Invalid id"},
		{"unauthorized", 401, `{"message":"jwt expired"}`, errors.ErrCodeAuth, "jwt expired"},
		{"non json success", 200, `OK`, errors.ErrCodeShape, "Unexpected response format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}, nil, nil)

			_, err := client.List(context.Background(), "coupons")
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
			assert.Equal(t, tt.message, errors.UserMessage(err))
		})
	}
}

func TestClient_UnauthorizedInvalidatesSession(t *testing.T) {
	inv := &fakeInvalidator{}
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, `{}`)
	}, &fakeTokens{token: "stale"}, inv)

	err := client.Delete(context.Background(), "coupons", 3)
	assert.True(t, errors.Is(err, errors.ErrCodeAuth))
	assert.Equal(t, 1, inv.calls)
}

func TestClient_GetByID(t *testing.T) {
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payapi/getCouponById/5":
			writeJSON(w, 200, `{"result":{"id":5,"code":"FIVE"}}`)
		case "/payapi/getCouponById/6":
			writeJSON(w, 200, `{"result":null}`)
		default:
			writeJSON(w, 404, `{"message":"Coupon not found"}`)
		}
	}, nil, nil)

	rec, err := client.GetByID(context.Background(), "coupons", 5)
	require.NoError(t, err)
	assert.Equal(t, "FIVE", rec.String("code"))

	_, err = client.GetByID(context.Background(), "coupons", 6)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	_, err = client.GetByID(context.Background(), "coupons", 7)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestClient_CreateJSON(t *testing.T) {
	var calls int
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payapi/createCoupon", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"code":"SAVE10","details":"10% off","amount":10,"status":"Active"}`, string(raw))
		writeJSON(w, 201, `{"message":"Coupon created"}`)
	}, nil, nil)

	rec, err := client.Create(context.Background(), "coupons", JSONPayload(map[string]interface{}{
		"code": "SAVE10", "details": "10% off", "amount": 10.0, "status": "Active",
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "SAVE10", rec.String("code"))
}

func TestClient_UpdateMultipart(t *testing.T) {
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/payapi/updateCouponByID/4", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "SAVE10", r.FormValue("code"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "banner.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

		writeJSON(w, 200, `{"result":{"id":4,"code":"SAVE10"}}`)
	}, nil, nil)

	rec, err := client.Update(context.Background(), "coupons", 4, Payload{
		Values: map[string]interface{}{"code": "SAVE10"},
		Files: map[string]*models.FileUpload{
			"image":   {Name: "banner.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
			"ignored": nil,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rec.ID)
}

func TestClient_SetStatus(t *testing.T) {
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/user/updateUserAccess/7", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 1.0, body["activate"])
		writeJSON(w, 200, `{"user":{"adminActive":true}}`)
	}, nil, nil)

	resp, err := client.SetStatus(context.Background(), "directors", 7, map[string]interface{}{"activate": 1})
	require.NoError(t, err)
	v, ok := models.Lookup(resp, "user.adminActive")
	assert.True(t, ok)
	assert.Equal(t, true, v)
}

func TestClient_UnsupportedOperation(t *testing.T) {
	client := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, nil, nil)

	err := client.Delete(context.Background(), "directors", 1)
	assert.True(t, errors.Is(err, errors.ErrCodeConfig))

	_, err = client.List(context.Background(), "unknown")
	assert.True(t, errors.Is(err, errors.ErrCodeConfig))
}

func TestClient_NetworkErrorAndCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(Options{Hosts: map[string]string{"test": url}})
	client.Register(&Resource{Name: "coupons", Host: "test", List: &Endpoint{Method: http.MethodGet, Path: "x"}, ListEnvelope: Bare()})

	_, err := client.List(context.Background(), "coupons")
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.List(ctx, "coupons")
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork))
	assert.ErrorIs(t, err, context.Canceled)
}
