package store

import (
	"time"

	"go.uber.org/zap"
)

// WarningRecord is one disciplinary note. Lists are append-only: there is no
// edit or delete operation.
type WarningRecord struct {
	ID         string    `json:"id"`
	WarnedBy   string    `json:"warnedBy"`
	WarnedByID string    `json:"warnedById"`
	Reason     string    `json:"reason"`
	Date       time.Time `json:"date"`
}

type WarningStore struct {
	ns *namespace
}

func NewWarningStore(dir string, logger *zap.Logger) (*WarningStore, error) {
	ns, err := newNamespace(dir, "warnings.json", logger)
	if err != nil {
		return nil, err
	}
	return &WarningStore{ns: ns}, nil
}

func (s *WarningStore) Add(userID string, rec WarningRecord) error {
	s.ns.mu.Lock()
	defer s.ns.mu.Unlock()

	records := make(map[string][]WarningRecord)
	s.ns.load(&records)
	records[userID] = append(records[userID], rec)
	return s.ns.save(records)
}

func (s *WarningStore) List(userID string) []WarningRecord {
	s.ns.mu.Lock()
	defer s.ns.mu.Unlock()

	records := make(map[string][]WarningRecord)
	s.ns.load(&records)
	return records[userID]
}
