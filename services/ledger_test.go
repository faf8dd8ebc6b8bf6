package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauravghatol/CREA-Final-sub001/models"
)

func TestAssignGatewayOrderOnlyOnce(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	order := newPendingOrder(t, ledger, models.KindDonation, "assign@example.com", 1000)

	ok, err := ledger.AssignGatewayOrder(ctx, order.ID, "order_first")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.AssignGatewayOrder(ctx, order.ID, "order_second")
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := ledger.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "order_first", *stored.GatewayOrderID)
}

func TestCompleteIfPendingIsConditional(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	order := seedIssuedOrder(t, ledger, models.KindDonation, "cas@example.com", 1000)

	ok, err := ledger.FailIfPending(ctx, order.ID, models.LifecycleNone, "", "declined")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ledger.CompleteIfPending(ctx, order.ID, Completion{GatewayPaymentID: "pay_x", PaymentDate: fixedNow})
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := ledger.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, stored.PaymentStatus)
	assert.Nil(t, stored.GatewayPaymentID)
}

func TestFailureReasonIsTruncated(t *testing.T) {
	ledger := newTestLedger(t)
	order := seedIssuedOrder(t, ledger, models.KindDonation, "long@example.com", 1000)

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	_, err := ledger.FailIfPending(context.Background(), order.ID, models.LifecycleNone, "", string(long))
	require.NoError(t, err)

	stored, err := ledger.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.FailureReason, 255)
}

func TestListFiltersAndPages(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		seedIssuedOrder(t, ledger, models.KindDonation, fmt.Sprintf("d%d@example.com", i), 1000)
	}
	for i := 0; i < 3; i++ {
		seedIssuedOrder(t, ledger, models.KindMembership, fmt.Sprintf("m%d@example.com", i), 50000)
	}

	page, total, err := ledger.List(ctx, OrderFilter{Kind: models.KindDonation, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)

	last, _, err := ledger.List(ctx, OrderFilter{Kind: models.KindDonation, Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, last, 1)

	_, total, err = ledger.List(ctx, OrderFilter{PaymentStatus: models.PaymentCompleted})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStatsGroupsByKindAndStatus(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	completedOrder(t, ledger, models.KindMembership, "s1@example.com")
	completedOrder(t, ledger, models.KindMembership, "s2@example.com")
	seedIssuedOrder(t, ledger, models.KindDonation, "s3@example.com", 700)

	rows, err := ledger.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []StatusCount{
		{Kind: models.KindDonation, PaymentStatus: models.PaymentPending, Count: 1, Amount: 700},
		{Kind: models.KindMembership, PaymentStatus: models.PaymentCompleted, Count: 2, Amount: 100000},
	}, rows)
}
