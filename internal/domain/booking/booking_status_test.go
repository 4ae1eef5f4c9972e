package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		trigger Trigger
		want    bool
	}{
		{StatusPending, StatusConfirmed, TriggerStatusUpdate, true},
		{StatusPending, StatusCancelled, TriggerStatusUpdate, true},
		{StatusPending, StatusDriverAssigned, TriggerAssignment, true},
		{StatusPending, StatusDriverAssigned, TriggerStatusUpdate, false},
		{StatusPending, StatusOngoing, TriggerStatusUpdate, false},
		{StatusDriverAssigned, StatusOngoing, TriggerStatusUpdate, true},
		{StatusDriverAssigned, StatusPending, TriggerAssignment, true},
		{StatusDriverAssigned, StatusConfirmed, TriggerStatusUpdate, false},
		{StatusConfirmed, StatusOngoing, TriggerStatusUpdate, true},
		{StatusConfirmed, StatusDriverAssigned, TriggerAssignment, false},
		{StatusOngoing, StatusCompleted, TriggerStatusUpdate, true},
		{StatusOngoing, StatusPending, TriggerAssignment, false},
		{StatusCompleted, StatusCancelled, TriggerStatusUpdate, false},
		{StatusCancelled, StatusPending, TriggerAssignment, false},
		{Status("LOST"), StatusPending, TriggerStatusUpdate, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to, tt.trigger))
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusOngoing.IsTerminal())
	assert.True(t, StatusDriverAssigned.IsActive())
	assert.False(t, Status("nope").IsActive())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" driver_assigned ")
	require.NoError(t, err)
	assert.Equal(t, StatusDriverAssigned, s)

	_, err = ParseStatus("shipped")
	assert.Error(t, err)
}

func TestParsePaymentStatus(t *testing.T) {
	p, err := ParsePaymentStatus("refunded")
	require.NoError(t, err)
	assert.Equal(t, PaymentRefunded, p)

	_, err = ParsePaymentStatus("")
	assert.Error(t, err)
}
