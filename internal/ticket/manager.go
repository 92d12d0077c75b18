// Package ticket owns the modmail ticket lifecycle: one open ticket per
// requester, forward-only status transitions, and the grace delay before a
// closed ticket's channel is destroyed.
package ticket

import (
	"errors"
	"fmt"
	"time"

	"shedmail/internal/store"

	"go.uber.org/zap"
)

const (
	StatusOpen     = "open"
	StatusResolved = "resolved"
	StatusClosed   = "closed"
)

// CloseGraceDelay is how long the closing notice stays visible before the
// channel is deleted.
const CloseGraceDelay = 5 * time.Second

// ErrNotFound reports that no ticket is bound to the given channel.
var ErrNotFound = errors.New("no ticket for channel")

// AlreadyOpenError reports a duplicate open request. The caller must not
// create a new channel and should point the requester at the existing one.
type AlreadyOpenError struct {
	ChannelID string
}

func (e *AlreadyOpenError) Error() string {
	return fmt.Sprintf("ticket already open in channel %s", e.ChannelID)
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

type Manager struct {
	store  *store.TicketStore
	clock  Clock
	logger *zap.Logger
	grace  time.Duration
}

func NewManager(ticketStore *store.TicketStore, logger *zap.Logger) *Manager {
	return &Manager{
		store:  ticketStore,
		clock:  realClock{},
		logger: logger,
		grace:  CloseGraceDelay,
	}
}

func (m *Manager) WithClock(clock Clock) {
	m.clock = clock
}

// Open creates a ticket for the requester. provision is called to create the
// dedicated channel and runs only when no open ticket exists; the record is
// written after provisioning succeeds, never before.
func (m *Manager) Open(requesterID, requesterName string, provision func() (string, error)) (store.TicketRecord, error) {
	if rec, ok := m.store.Get(requesterID); ok && rec.Status == StatusOpen {
		return rec, &AlreadyOpenError{ChannelID: rec.ChannelID}
	}

	channelID, err := provision()
	if err != nil {
		return store.TicketRecord{}, fmt.Errorf("provision channel: %w", err)
	}

	rec := store.TicketRecord{
		User:      requesterName,
		UserID:    requesterID,
		ChannelID: channelID,
		Status:    StatusOpen,
		Date:      m.clock.Now(),
	}
	if err := m.store.Put(rec); err != nil {
		return store.TicketRecord{}, err
	}

	m.logger.Info("ticket opened",
		zap.String("user_id", requesterID),
		zap.String("user", requesterName),
		zap.String("channel_id", channelID))
	return rec, nil
}

// Resolve marks the ticket bound to channelID as resolved. The caller
// performs the channel rename and access restriction alongside.
func (m *Manager) Resolve(channelID string) error {
	found, err := m.store.SetStatusByChannel(channelID, StatusResolved)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	m.logger.Info("ticket resolved", zap.String("channel_id", channelID))
	return nil
}

// Close marks the ticket bound to channelID as closed and schedules
// deleteChannel after the grace delay so the closing notice stays visible.
// The delay is best effort: it does not survive a process restart.
func (m *Manager) Close(channelID string, deleteChannel func()) error {
	found, err := m.store.SetStatusByChannel(channelID, StatusClosed)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	m.logger.Info("ticket closed", zap.String("channel_id", channelID))
	m.clock.AfterFunc(m.grace, deleteChannel)
	return nil
}
