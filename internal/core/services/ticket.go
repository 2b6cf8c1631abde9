package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/clubcouncil/registration-engine/internal/core/ports"
)

const (
	ticketPrefix  = "TICK-"
	checkInPrefix = "QR-"

	// 4 random bytes rendered as 8 uppercase hex characters.
	ticketRandBytes = 4

	maxIssueAttempts = 5
)

// TicketIssuer produces globally unique ticket identifiers. Collisions
// are astronomically rare at this entropy but are still re-sampled
// against the persistence layer rather than assumed away.
type TicketIssuer struct {
	registrations ports.RegistrationRepository
}

func NewTicketIssuer(registrations ports.RegistrationRepository) *TicketIssuer {
	return &TicketIssuer{registrations: registrations}
}

func (t *TicketIssuer) Issue(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		buf := make([]byte, ticketRandBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate ticket id: %w", err)
		}

		ticketID := ticketPrefix + strings.ToUpper(hex.EncodeToString(buf))

		exists, err := t.registrations.TicketExists(ctx, ticketID)
		if err != nil {
			return "", fmt.Errorf("check ticket uniqueness: %w", err)
		}
		if !exists {
			return ticketID, nil
		}
	}

	return "", fmt.Errorf("no unique ticket id after %d attempts", maxIssueAttempts)
}

// DeriveCheckInCode maps a ticket id to the payload encoded into the
// participant's scannable artifact.
func DeriveCheckInCode(ticketID string) string {
	return checkInPrefix + ticketID
}

// ParseCheckInCode accepts either a scanned check-in code or a bare
// ticket id and returns the normalized ticket id. The mapping is the
// inverse of DeriveCheckInCode and needs no lookup table.
func ParseCheckInCode(value string) string {
	v := strings.ToUpper(strings.TrimSpace(value))
	return strings.TrimPrefix(v, checkInPrefix)
}
