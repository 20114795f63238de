package audit

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"casting-admin/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type memoryRecorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *memoryRecorder) Record(ctx context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

type staticAdmin string

func (s staticAdmin) AdminID(ctx context.Context) (string, bool) {
	return string(s), s != ""
}

func sampleEvent() Event {
	return Event{
		ID:         "4f8d2b1e-5a3c-4b9e-8f71-2c6d0e9a1b34",
		Timestamp:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Action:     "delete",
		Resource:   "coupons",
		ResourceID: "12",
		AdminID:    "5",
		Outcome:    "success",
	}
}

// ==========================
// Trail Tests
// ==========================

func TestTrail_Log(t *testing.T) {
	rec := &memoryRecorder{}
	trail := NewTrail(rec, staticAdmin("5"), logger.NewTestLogger(t))

	trail.Log(context.Background(), "delete", "coupons", 12, "success", "")

	require.Len(t, rec.events, 1)
	e := rec.events[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "delete", e.Action)
	assert.Equal(t, "coupons", e.Resource)
	assert.Equal(t, "12", e.ResourceID)
	assert.Equal(t, "5", e.AdminID)
	assert.Equal(t, "success", e.Outcome)
	assert.False(t, e.Timestamp.IsZero())
}

func TestTrail_SurvivesCancelledContextAndSinkFailure(t *testing.T) {
	rec := &memoryRecorder{err: goerrors.New("disk full")}
	trail := NewTrail(rec, nil, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		trail.Log(ctx, "approve", "pending-castings", 3, "failure", "Request failed")
	})
	require.Len(t, rec.events, 1)
	assert.Empty(t, rec.events[0].AdminID)
	assert.Equal(t, "3", rec.events[0].ResourceID)

	var nilTrail *Trail
	assert.NotPanics(t, func() { nilTrail.Log(ctx, "x", "y", 1, "success", "") })
}

func TestMulti_TriesEveryRecorder(t *testing.T) {
	failing := &memoryRecorder{err: goerrors.New("es down")}
	ok := &memoryRecorder{}

	err := Multi{failing, ok}.Record(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "es down")
	assert.Len(t, ok.events, 1)

	assert.NoError(t, Noop{}.Record(context.Background(), sampleEvent()))
}

// ==========================
// Postgres Tests
// ==========================

func TestPostgresRecorder_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec, err := NewPostgresRecorder(db, "admin_audit_log")
	require.NoError(t, err)

	e := sampleEvent()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO admin_audit_log")).
		WithArgs(e.ID, e.Timestamp, "delete", "coupons", "12", "5", "success", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, rec.Record(context.Background(), e))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecorder_Errors(t *testing.T) {
	_, err := NewPostgresRecorder(nil, "audit; DROP TABLE users")
	assert.Error(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec, err := NewPostgresRecorder(db, "admin_audit_log")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS admin_audit_log").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, rec.EnsureSchema(context.Background()))

	mock.ExpectExec("INSERT INTO admin_audit_log").WillReturnError(goerrors.New("connection reset"))
	err = rec.Record(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "failed to insert audit event")

	require.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Elasticsearch Tests
// ==========================

func newTestES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticsearchRecorder_Record(t *testing.T) {
	var gotPath, gotMethod string
	var gotDoc map[string]interface{}

	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotDoc)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	e := sampleEvent()
	require.NoError(t, NewElasticsearchRecorder(client, "admin-audit").Record(context.Background(), e))

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/admin-audit/_doc/"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, e.ID), gotPath)
	assert.Equal(t, "coupons", gotDoc["resource"])
	assert.Equal(t, "12", gotDoc["resourceId"])
}

func TestElasticsearchRecorder_ErrorResponse(t *testing.T) {
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})

	err := NewElasticsearchRecorder(client, "admin-audit").Record(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "index audit event failed")
}
