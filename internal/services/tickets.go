package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Eddiekoma/partyquiz-platform-sub004/internal/models"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const ticketKeyPrefix = "rejoin:ticket:"

// TicketService issues short-lived, single-use rejoin tickets backed by the
// ephemeral key-value store rather than the primary database. Resolving a
// ticket deletes the mapping in the same command, so a ticket can never be
// redeemed twice.
type TicketService struct {
	client   valkey.Client
	identity *IdentityService
	ttl      time.Duration
}

func NewTicketService(client valkey.Client, identity *IdentityService, ttl time.Duration) *TicketService {
	return &TicketService{client: client, identity: identity, ttl: ttl}
}

// Issue mints a ticket for the player behind an access token.
func (s *TicketService) Issue(ctx context.Context, accessToken string) (string, error) {
	player, _, err := s.identity.ResolveAccessToken(accessToken)
	if err != nil {
		return "", err
	}

	ticket := uuid.NewString()
	cmd := s.client.B().Set().
		Key(ticketKeyPrefix + ticket).
		Value(strconv.FormatUint(uint64(player.ID), 10)).
		Ex(s.ttl).
		Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return "", fmt.Errorf("store rejoin ticket: %w", err)
	}
	return ticket, nil
}

// Resolve consumes a ticket and re-activates the player. GETDEL makes the
// read and the invalidation one atomic operation: the first caller wins,
// every later caller gets TokenInvalidError.
func (s *TicketService) Resolve(ctx context.Context, ticket string) (*models.LivePlayer, *models.LiveSession, error) {
	cmd := s.client.B().Getdel().Key(ticketKeyPrefix + ticket).Build()
	raw, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil, TokenInvalidError{}
		}
		return nil, nil, fmt.Errorf("resolve rejoin ticket: %w", err)
	}

	playerID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, nil, TokenInvalidError{}
	}
	return s.identity.ReactivateByID(uint(playerID))
}
