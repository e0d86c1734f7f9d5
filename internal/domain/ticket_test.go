package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketStatusIsValid(t *testing.T) {
	for _, s := range ValidStatuses() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, TicketStatus("Urgent").IsValid())
	assert.False(t, TicketStatus("open").IsValid())
	assert.False(t, TicketStatus("").IsValid())
}

func TestCountedStatusesExcludeArchived(t *testing.T) {
	assert.Equal(t, []TicketStatus{
		TicketStatusOpen, TicketStatusWaiting, TicketStatusResolved, TicketStatusClosed,
	}, CountedStatuses())
}

func TestTicketPriorityIsValid(t *testing.T) {
	assert.True(t, TicketPriorityHigh.IsValid())
	assert.False(t, TicketPriority("Critical").IsValid())
}

func TestOwnedBy(t *testing.T) {
	ticket := &Ticket{AssigneeID: "u1"}
	assert.True(t, ticket.OwnedBy("u1"))
	assert.False(t, ticket.OwnedBy("u2"))

	var missing *Ticket
	assert.False(t, missing.OwnedBy("u1"))
}
