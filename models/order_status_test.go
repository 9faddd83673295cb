package models_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/websitedesigna/tastygrill/models"
)

func TestValidateTransition_Adjacency(t *testing.T) {
	allowed := map[models.OrderStatus][]models.OrderStatus{
		models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
		models.StatusConfirmed: {models.StatusPreparing, models.StatusCancelled},
		models.StatusPreparing: {models.StatusReady},
		models.StatusReady:     {models.StatusCompleted},
	}

	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			err := models.ValidateTransition(from, to)
			if want {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.ErrorIs(t, err, models.ErrInvalidTransition, "%s -> %s", from, to)
			}
		}
	}
}

func TestValidateTransition_TerminalStates(t *testing.T) {
	for _, from := range []models.OrderStatus{models.StatusCompleted, models.StatusCancelled} {
		assert.True(t, from.IsTerminal())

		err := models.ValidateTransition(from, models.StatusPending)
		var te *models.TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, from, te.From)
		assert.Contains(t, te.Error(), "terminal")
	}
}

func TestValidateTransition_UnknownStatus(t *testing.T) {
	err := models.ValidateTransition(models.StatusPending, "shipped")
	assert.ErrorIs(t, err, models.ErrUnknownStatus)
	assert.NotErrorIs(t, err, models.ErrInvalidTransition)
}

func TestApplyAction_ConfirmPending(t *testing.T) {
	next, err := models.ApplyAction(models.StatusPending, models.ActionConfirm)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, next)
}

func TestApplyAction_StartPreparingOnPendingRejected(t *testing.T) {
	_, err := models.ApplyAction(models.StatusPending, models.ActionStartPreparing)

	var te *models.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.StatusPending, te.From)
	assert.Equal(t, models.StatusPreparing, te.To)
}

func TestActionsFor(t *testing.T) {
	targets := func(s models.OrderStatus) []models.OrderStatus {
		var out []models.OrderStatus
		for _, a := range models.ActionsFor(s) {
			out = append(out, a.Target)
		}
		return out
	}

	assert.Equal(t, []models.OrderStatus{models.StatusConfirmed, models.StatusCancelled}, targets(models.StatusPending))
	// cancelling a confirmed order is legal but not a default affordance
	assert.Equal(t, []models.OrderStatus{models.StatusPreparing}, targets(models.StatusConfirmed))
	assert.Equal(t, []models.OrderStatus{models.StatusReady}, targets(models.StatusPreparing))
	assert.Equal(t, []models.OrderStatus{models.StatusCompleted}, targets(models.StatusReady))
	assert.Empty(t, models.ActionsFor(models.StatusCompleted))
	assert.Empty(t, models.ActionsFor(models.StatusCancelled))

	assert.NoError(t, models.ValidateTransition(models.StatusConfirmed, models.StatusCancelled))
}

func TestParseOrderStatusAndAction(t *testing.T) {
	s, err := models.ParseOrderStatus(" Ready ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, s)

	_, err = models.ParseOrderStatus("delivered")
	assert.ErrorIs(t, err, models.ErrUnknownStatus)

	a, err := models.ParseOrderAction("mark_ready")
	require.NoError(t, err)
	assert.Equal(t, models.ActionMarkReady, a)

	_, err = models.ParseOrderAction("refund")
	assert.ErrorIs(t, err, models.ErrUnknownAction)
}

func TestCheckoutState_CanAdvance(t *testing.T) {
	assert.True(t, models.CheckoutIdle.CanAdvance(models.CheckoutAwaitingPayment))
	assert.True(t, models.CheckoutAwaitingPayment.CanAdvance(models.CheckoutCapturing))
	assert.True(t, models.CheckoutCapturing.CanAdvance(models.CheckoutPersisting))
	assert.True(t, models.CheckoutPersisting.CanAdvance(models.CheckoutComplete))
	assert.True(t, models.CheckoutCapturing.CanAdvance(models.CheckoutIdle))
	assert.True(t, models.CheckoutPersisting.CanAdvance(models.CheckoutPersisting))

	assert.False(t, models.CheckoutIdle.CanAdvance(models.CheckoutCapturing))
	assert.False(t, models.CheckoutComplete.CanAdvance(models.CheckoutIdle))
}
