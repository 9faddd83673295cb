package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/repository"
)

func newOrderFixture() (*OrderService, *fakeOrderRepo, *recordingPublisher) {
	repo := newFakeOrderRepo()
	pub := &recordingPublisher{}
	return NewOrderService(repo, pub, nil, zap.NewNop()), repo, pub
}

func TestOrderService_ConfirmPending(t *testing.T) {
	svc, repo, pub := newOrderFixture()
	o := repo.add(&models.Order{UserID: uuid.New(), Status: models.StatusPending, TotalAmount: dec("20.70")})

	updated, err := svc.ApplyAction(context.Background(), o.ID, models.ActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)

	stored, _ := repo.FindByID(context.Background(), o.ID)
	assert.Equal(t, models.StatusConfirmed, stored.Status)

	evts := pub.all()
	require.Len(t, evts, 1)
	assert.Equal(t, models.OrderStatusChanged, evts[0].Type)
	require.NotNil(t, evts[0].Before)
	assert.Equal(t, models.StatusPending, *evts[0].Before)
	assert.Equal(t, models.StatusConfirmed, evts[0].After)
}

func TestOrderService_StartPreparingOnPendingRejected(t *testing.T) {
	svc, repo, pub := newOrderFixture()
	o := repo.add(&models.Order{UserID: uuid.New(), Status: models.StatusPending})

	_, err := svc.ApplyAction(context.Background(), o.ID, models.ActionStartPreparing)
	appErr := assertAppError(t, err, http.StatusConflict)
	assert.True(t, errors.Is(err, models.ErrInvalidTransition))
	assert.Equal(t, "pending", appErr.Fields["from"])
	assert.Equal(t, "preparing", appErr.Fields["to"])

	stored, _ := repo.FindByID(context.Background(), o.ID)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Empty(t, pub.all())
}

func TestOrderService_UpdateStatusFullLifecycle(t *testing.T) {
	svc, repo, pub := newOrderFixture()
	o := repo.add(&models.Order{UserID: uuid.New(), Status: models.StatusPending})
	ctx := context.Background()

	steps := []models.OrderStatus{models.StatusConfirmed, models.StatusPreparing, models.StatusReady, models.StatusCompleted}
	var last *models.Order
	for _, next := range steps {
		var err error
		last, err = svc.UpdateStatus(ctx, o.ID, next)
		require.NoError(t, err, "moving to %s", next)
	}
	require.NotNil(t, last.CompletedAt)
	assert.Len(t, pub.all(), 4)

	_, err := svc.UpdateStatus(ctx, o.ID, models.StatusCancelled)
	assertAppError(t, err, http.StatusConflict)
}

func TestOrderService_ConfirmedMayBeCancelled(t *testing.T) {
	svc, repo, _ := newOrderFixture()
	o := repo.add(&models.Order{UserID: uuid.New(), Status: models.StatusConfirmed})

	updated, err := svc.UpdateStatus(context.Background(), o.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.NotNil(t, updated.CanceledAt)
}

func TestOrderService_Errors(t *testing.T) {
	svc, repo, _ := newOrderFixture()
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, uuid.New(), models.StatusConfirmed)
	assertAppError(t, err, http.StatusNotFound)

	_, err = svc.UpdateStatus(ctx, uuid.New(), models.OrderStatus("shipped"))
	assertAppError(t, err, http.StatusBadRequest)

	_, err = svc.ApplyAction(ctx, uuid.New(), models.OrderAction("refund"))
	assertAppError(t, err, http.StatusBadRequest)

	o := repo.add(&models.Order{UserID: uuid.New(), Status: models.StatusPending})
	repo.updateErr = repository.ErrStatusConflict
	_, err = svc.UpdateStatus(ctx, o.ID, models.StatusConfirmed)
	assertAppError(t, err, http.StatusConflict)
}

func TestOrderService_UserReads(t *testing.T) {
	svc, repo, _ := newOrderFixture()
	ctx := context.Background()
	user := uuid.New()
	now := time.Now()
	for i := 0; i < 3; i++ {
		repo.add(&models.Order{UserID: user, Status: models.StatusConfirmed, CreatedAt: now.Add(time.Duration(i) * time.Minute)})
	}
	other := repo.add(&models.Order{UserID: uuid.New(), Status: models.StatusConfirmed})

	resp, err := svc.ListUserOrders(ctx, user, 1, 2)
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 2)
	assert.Equal(t, int64(3), resp.Meta.TotalOrders)
	assert.Equal(t, int64(2), resp.Meta.TotalPages)
	assert.True(t, resp.Meta.HasMore)

	resp, err = svc.ListUserOrders(ctx, user, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 10, resp.Meta.Limit)
	assert.False(t, resp.Meta.HasMore)

	_, err = svc.GetOrderForUser(ctx, user, other.ID)
	assertAppError(t, err, http.StatusNotFound)

	mine := resp.Orders[0]
	got, err := svc.GetOrderForUser(ctx, user, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)
}

func TestCalculateTotalPages(t *testing.T) {
	assert.Equal(t, int64(0), calculateTotalPages(0, 10))
	assert.Equal(t, int64(1), calculateTotalPages(10, 10))
	assert.Equal(t, int64(2), calculateTotalPages(11, 10))
	assert.Equal(t, int64(0), calculateTotalPages(5, 0))
}
