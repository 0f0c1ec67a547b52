package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from TransferStatus
		to   TransferStatus
		ok   bool
	}{
		{TransferRequested, TransferApproved, true},
		{TransferRequested, TransferRejected, true},
		{TransferRequested, TransferCancelled, true},
		{TransferRequested, TransferInTransit, false},
		{TransferRequested, TransferDelivered, false},
		{TransferApproved, TransferInTransit, true},
		{TransferApproved, TransferCancelled, true},
		{TransferApproved, TransferRejected, false},
		{TransferInTransit, TransferDelivered, true},
		{TransferInTransit, TransferCancelled, false},
		{TransferDelivered, TransferRequested, false},
		{TransferRejected, TransferApproved, false},
		{TransferCancelled, TransferRequested, false},
		{TransferRequested, TransferRequested, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransferStatus_Terminal(t *testing.T) {
	for _, s := range []TransferStatus{TransferDelivered, TransferRejected, TransferCancelled} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []TransferStatus{TransferRequested, TransferApproved, TransferInTransit} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestTransferStatus_Event(t *testing.T) {
	assert.Equal(t, EventTransferApproved, TransferApproved.Event())
	assert.Equal(t, EventTransferInTransit, TransferInTransit.Event())
	assert.Equal(t, EventTransferCancelled, TransferCancelled.Event())
	assert.Equal(t, NotificationEvent(""), TransferStatus("lost").Event())
	for _, s := range []TransferStatus{TransferRequested, TransferApproved, TransferInTransit, TransferDelivered, TransferRejected, TransferCancelled} {
		assert.True(t, s.Event().Valid(), s)
	}
}

func TestActor_CanApprove(t *testing.T) {
	assert.True(t, Actor{Role: RoleAdmin}.CanApprove())
	assert.True(t, Actor{Role: RoleManager}.CanApprove())
	assert.False(t, Actor{Role: RoleSales}.CanApprove())
	assert.False(t, Actor{Role: RoleManager}.IsAdmin())
}
