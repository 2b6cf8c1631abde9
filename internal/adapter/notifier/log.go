package notifier

import (
	"context"
	"log"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
)

// LogNotifier stands in when no broker is configured, e.g. local
// development.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) NotifyTicketIssued(_ context.Context, notification domain.TicketNotification) error {
	log.Printf("ticket issued: participant=%s event=%q ticket=%s code=%s",
		notification.ParticipantID, notification.EventName, notification.TicketID, notification.CheckInCode)
	return nil
}
