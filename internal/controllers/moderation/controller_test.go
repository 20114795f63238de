package moderation

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"casting-admin/internal/api"
	"casting-admin/internal/common/config"
	"casting-admin/internal/common/errors"
	"casting-admin/internal/common/logger"
	"casting-admin/internal/console"
	"casting-admin/internal/controllers"
	"casting-admin/internal/models"
	"casting-admin/internal/resources"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetByID(ctx context.Context, resource string, id int) (models.ResourceRecord, error) {
	args := m.Called(ctx, resource, id)
	return args.Get(0).(models.ResourceRecord), args.Error(1)
}

func (m *MockClient) Call(ctx context.Context, name, host, method, path string, payload *api.Payload) (interface{}, error) {
	args := m.Called(ctx, name, host, method, path, payload)
	return args.Get(0), args.Error(1)
}

type staticSession bool

func (s staticSession) IsAuthenticated(ctx context.Context) bool { return bool(s) }

type navigation struct {
	path  string
	delay time.Duration
}

type notices struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	navs      []navigation
}

func (n *notices) NotifySuccess(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *notices) NotifyError(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *notices) Navigate(ctx context.Context, path string, delay time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.navs = append(n.navs, navigation{path: path, delay: delay})
}

func createTestController(t *testing.T, client *MockClient, confirmer console.Confirmer) (*Controller, *notices) {
	n := &notices{}
	ctrl := NewController(client, staticSession(true), 2*time.Second, controllers.Deps{
		Confirmer: confirmer,
		Notifier:  n,
		Navigator: n,
		Logger:    logger.NewTestLogger(t),
	})
	return ctrl, n
}

func pendingRecord(id int, status string) models.ResourceRecord {
	return models.ResourceRecord{
		ID: id,
		Fields: map[string]interface{}{
			"title":       "Lead for indie feature",
			"companyName": "Open Curtains",
			"adminStatus": status,
			"roles": []interface{}{
				map[string]interface{}{"id": 1.0, "castingRole": "Lead", "ethinicity": `["Asian","White"]`},
				map[string]interface{}{"id": 2.0, "castingRole": "Extra", "ethinicity": ""},
			},
		},
	}
}

func transitionPath(id, status string) string {
	return "admin/castingAdminApproval/" + id + "/" + status
}

// ==========================
// Load Tests
// ==========================

func TestLoadApplication(t *testing.T) {
	client := new(MockClient)
	client.On("GetByID", mock.Anything, resources.PendingCastings, 12).Return(pendingRecord(12, "pending"), nil)
	ctrl, _ := createTestController(t, client, console.AutoConfirm(true))

	app, err := ctrl.LoadApplication(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, 12, app.ID)
	assert.Equal(t, models.ApprovalPending, app.ModerationState())
	require.Len(t, app.Roles, 2)
	assert.Equal(t, "Lead", app.Roles[0].CastingRole)
	assert.Equal(t, "Asian, White", app.Roles[0].EthnicityDisplay())
	assert.Equal(t, "N/A", app.Roles[1].EthnicityDisplay())
	assert.Same(t, app, ctrl.Application())
}

func TestLoadApplication_NotFound(t *testing.T) {
	client := new(MockClient)
	client.On("GetByID", mock.Anything, resources.PendingCastings, 99).
		Return(models.ResourceRecord{}, errors.NewNotFoundError(resources.PendingCastings, 99))
	ctrl, n := createTestController(t, client, console.AutoConfirm(true))

	_, err := ctrl.LoadApplication(context.Background(), 99)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	assert.Len(t, n.errors, 1)
	assert.Nil(t, ctrl.Application())
}

// ==========================
// Transition Tests
// ==========================

func TestTransitions_Success(t *testing.T) {
	tests := []struct {
		name    string
		run     func(c *Controller) error
		status  string
		message string
	}{
		{"approve", func(c *Controller) error { return c.Approve(context.Background(), 12) }, "approved", "Status successfully changed to Approved."},
		{"reject", func(c *Controller) error { return c.Reject(context.Background(), 12) }, "rejected", "Status successfully changed to Rejected."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockClient)
			client.On("GetByID", mock.Anything, resources.PendingCastings, 12).Return(pendingRecord(12, "pending"), nil)
			client.On("Call", mock.Anything, "moderation", config.HostCasting, http.MethodPatch, transitionPath("12", tt.status), mock.Anything).
				Return(map[string]interface{}{"message": "ok"}, nil).Once()
			ctrl, n := createTestController(t, client, console.AutoConfirm(true))

			_, err := ctrl.LoadApplication(context.Background(), 12)
			require.NoError(t, err)

			require.NoError(t, tt.run(ctrl))
			assert.Equal(t, []string{tt.message}, n.successes)
			assert.Equal(t, []navigation{{path: "/pending", delay: 2 * time.Second}}, n.navs)
			assert.True(t, ctrl.Application().ModerationState().IsTerminal())
			assert.False(t, ctrl.InFlight())

			err = ctrl.Approve(context.Background(), 12)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidTransition))
			client.AssertNumberOfCalls(t, "Call", 1)
		})
	}
}

func TestTransition_FailureIsReportedWithoutRetry(t *testing.T) {
	client := new(MockClient)
	client.On("Call", mock.Anything, "moderation", config.HostCasting, http.MethodPatch, transitionPath("12", "approved"), mock.Anything).
		Return(nil, errors.NewAPIError(500, "Casting is locked"))
	ctrl, n := createTestController(t, client, console.AutoConfirm(true))

	err := ctrl.Approve(context.Background(), 12)
	assert.True(t, errors.Is(err, errors.ErrCodeAPI))
	client.AssertNumberOfCalls(t, "Call", 1)
	assert.Equal(t, []string{"Failed to change status. Casting is locked"}, n.errors)
	assert.Empty(t, n.successes)
	assert.Empty(t, n.navs)
	assert.False(t, ctrl.InFlight())
}

func TestTransition_DeclinedReleasesGuard(t *testing.T) {
	client := new(MockClient)
	ctrl, n := createTestController(t, client, console.AutoConfirm(false))

	require.NoError(t, ctrl.Reject(context.Background(), 12))
	assert.False(t, ctrl.InFlight())
	client.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, n.successes)
	assert.Empty(t, n.errors)
}

func TestTransition_RequiresSession(t *testing.T) {
	client := new(MockClient)
	n := &notices{}
	ctrl := NewController(client, staticSession(false), time.Second, controllers.Deps{
		Confirmer: console.AutoConfirm(true),
		Notifier:  n,
	})

	err := ctrl.Approve(context.Background(), 12)
	assert.True(t, errors.Is(err, errors.ErrCodeAuth))
	assert.Len(t, n.errors, 1)
	client.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveThenReject_SendsOneTransition(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	client := new(MockClient)
	client.On("Call", mock.Anything, "moderation", config.HostCasting, http.MethodPatch, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(map[string]interface{}{}, nil)
	ctrl, n := createTestController(t, client, console.AutoConfirm(true))

	approveErr := make(chan error, 1)
	go func() {
		approveErr <- ctrl.Approve(context.Background(), 12)
	}()

	<-entered
	assert.True(t, ctrl.InFlight())

	err := ctrl.Reject(context.Background(), 12)
	assert.True(t, errors.Is(err, errors.ErrCodeTransitionInFlight))

	close(release)
	require.NoError(t, <-approveErr)

	client.AssertNumberOfCalls(t, "Call", 1)
	client.AssertCalled(t, "Call", mock.Anything, "moderation", config.HostCasting, http.MethodPatch, transitionPath("12", "approved"), mock.Anything)
	assert.Equal(t, []string{"Status successfully changed to Approved."}, n.successes)
}

func TestTransition_CancelledScreen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := new(MockClient)
	client.On("Call", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)
	ctrl, n := createTestController(t, client, console.AutoConfirm(true))

	err := ctrl.Approve(ctx, 12)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, n.errors)
	assert.Empty(t, n.navs)
}
