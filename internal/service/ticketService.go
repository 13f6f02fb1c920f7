package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	repository "github.com/ds124wfegd/eventtickets/internal/database/postgres"
	"github.com/ds124wfegd/eventtickets/internal/entity"
	"github.com/ds124wfegd/eventtickets/pkg/clock"

	"github.com/sirupsen/logrus"
)

type ticketService struct {
	tx         repository.Transactor
	eventRepo  repository.EventRepository
	ticketRepo repository.TicketRepository
	cache      EventCache
	publisher  ActivityPublisher
	clock      clock.Clock
}

// NewTicketService creates a new instance of TicketService. cache and
// publisher may be nil.
func NewTicketService(
	tx repository.Transactor,
	eventRepo repository.EventRepository,
	ticketRepo repository.TicketRepository,
	cache EventCache,
	publisher ActivityPublisher,
	clk clock.Clock,
) TicketService {
	return &ticketService{
		tx:         tx,
		eventRepo:  eventRepo,
		ticketRepo: ticketRepo,
		cache:      cache,
		publisher:  publisher,
		clock:      clk,
	}
}

// SellTicket issues one ticket for the event. Capacity is taken with a
// conditional increment, so concurrent sales can never oversell.
func (s *ticketService) SellTicket(ctx context.Context, eventID int64) (*entity.Ticket, error) {
	now := s.now()
	ticket := &entity.Ticket{
		EventID:   eventID,
		Status:    entity.TicketStatusSold,
		CreatedAt: now,
	}

	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		taken, err := s.eventRepo.IncrementSold(txCtx, eventID)
		if err != nil {
			return err
		}
		if !taken {
			if _, err := s.eventRepo.GetByID(txCtx, eventID); err != nil {
				return err
			}
			return entity.ErrNoTicketsAvailable
		}

		return s.ticketRepo.Create(txCtx, ticket)
	})
	if err != nil {
		return nil, err
	}

	invalidateEvent(ctx, s.cache, eventID)
	s.publish(ctx, entity.TicketActivitySold, ticket, now)

	logrus.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"event_id":  eventID,
	}).Info("Ticket sold")

	return ticket, nil
}

// RedeemTicket marks a sold ticket as used. It must happen inside the
// event's validity window and only once.
func (s *ticketService) RedeemTicket(ctx context.Context, ticketID int64) (*entity.Ticket, error) {
	now := s.now()
	today := entity.DateOf(now)

	var redeemed *entity.Ticket
	err := s.tx.WithTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.ticketRepo.GetForUpdate(txCtx, ticketID)
		if err != nil {
			return err
		}

		event, err := s.eventRepo.GetForUpdate(txCtx, ticket.EventID)
		if errors.Is(err, entity.ErrEventNotFound) {
			logrus.WithFields(logrus.Fields{
				"ticket_id": ticket.ID,
				"event_id":  ticket.EventID,
			}).Error("Ticket references a missing event")
			return entity.ErrTicketEventNotFound
		}
		if err != nil {
			return err
		}

		if ticket.Redeemed() {
			return entity.ErrTicketAlreadyRedeemed
		}
		if !event.InValidityWindow(today) {
			return entity.ErrOutsideValidityPeriod
		}

		marked, err := s.ticketRepo.MarkRedeemed(txCtx, ticket.ID, now)
		if err != nil {
			return err
		}
		if !marked {
			return entity.ErrTicketAlreadyRedeemed
		}

		if err := s.eventRepo.IncrementRedeemed(txCtx, event.ID); err != nil {
			return err
		}

		ticket.RedeemedAt = &now
		ticket.Status = entity.TicketStatusRedeemed
		redeemed = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateEvent(ctx, s.cache, redeemed.EventID)
	s.publish(ctx, entity.TicketActivityRedeemed, redeemed, now)

	logrus.WithFields(logrus.Fields{
		"ticket_id": redeemed.ID,
		"event_id":  redeemed.EventID,
	}).Info("Ticket redeemed")

	return redeemed, nil
}

// GetTicket returns entity.ErrTicketNotFound when the ticket does not exist.
func (s *ticketService) GetTicket(ctx context.Context, id int64) (*entity.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

func (s *ticketService) GetAllTickets(ctx context.Context, eventID *int64) ([]*entity.Ticket, error) {
	tickets, err := s.ticketRepo.GetAll(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}

	return tickets, nil
}

func (s *ticketService) GetEventTickets(ctx context.Context, eventID int64) ([]*entity.Ticket, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	return s.GetAllTickets(ctx, &eventID)
}

// DeleteTicket removes the ticket only. The event's sold and redeemed
// counters keep counting it, so freed capacity is never resold.
func (s *ticketService) DeleteTicket(ctx context.Context, id int64) error {
	if err := s.ticketRepo.Delete(ctx, id); err != nil {
		return err
	}

	logrus.WithField("ticket_id", id).Info("Ticket deleted")
	return nil
}

func (s *ticketService) publish(ctx context.Context, activityType string, ticket *entity.Ticket, at time.Time) {
	if s.publisher == nil {
		return
	}

	activity := &entity.TicketActivity{
		Type:       activityType,
		TicketID:   ticket.ID,
		EventID:    ticket.EventID,
		OccurredAt: at,
	}
	if err := s.publisher.Publish(ctx, activity); err != nil {
		logrus.Warnf("Failed to publish %s for ticket %d: %v", activityType, ticket.ID, err)
	}
}

// now is truncated to the precision Postgres stores timestamps with.
func (s *ticketService) now() time.Time {
	return s.clock.Now().Truncate(time.Microsecond)
}
