package store

import (
	"time"

	"go.uber.org/zap"
)

// TicketRecord is one modmail conversation, keyed in the file by the
// requester's user ID. Records are never deleted, even after the channel is.
type TicketRecord struct {
	User      string    `json:"user"`
	UserID    string    `json:"userId"`
	ChannelID string    `json:"channelId"`
	Status    string    `json:"status"`
	Date      time.Time `json:"date"`
}

type TicketStore struct {
	ns *namespace
}

func NewTicketStore(dir string, logger *zap.Logger) (*TicketStore, error) {
	ns, err := newNamespace(dir, "tickets.json", logger)
	if err != nil {
		return nil, err
	}
	return &TicketStore{ns: ns}, nil
}

func (s *TicketStore) Get(userID string) (TicketRecord, bool) {
	s.ns.mu.Lock()
	defer s.ns.mu.Unlock()

	records := make(map[string]TicketRecord)
	s.ns.load(&records)
	rec, ok := records[userID]
	return rec, ok
}

// FindByChannel scans the full record set for the ticket bound to channelID.
func (s *TicketStore) FindByChannel(channelID string) (TicketRecord, bool) {
	s.ns.mu.Lock()
	defer s.ns.mu.Unlock()

	records := make(map[string]TicketRecord)
	s.ns.load(&records)
	for _, rec := range records {
		if rec.ChannelID == channelID {
			return rec, true
		}
	}
	return TicketRecord{}, false
}

func (s *TicketStore) Put(rec TicketRecord) error {
	s.ns.mu.Lock()
	defer s.ns.mu.Unlock()

	records := make(map[string]TicketRecord)
	s.ns.load(&records)
	records[rec.UserID] = rec
	return s.ns.save(records)
}

// SetStatusByChannel marks the ticket bound to channelID with status. The
// boolean reports whether a matching record existed.
func (s *TicketStore) SetStatusByChannel(channelID, status string) (bool, error) {
	s.ns.mu.Lock()
	defer s.ns.mu.Unlock()

	records := make(map[string]TicketRecord)
	s.ns.load(&records)
	for userID, rec := range records {
		if rec.ChannelID != channelID {
			continue
		}
		rec.Status = status
		records[userID] = rec
		if err := s.ns.save(records); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
