package store

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// BanRecord is the most recent ban known for a user. A later ban for the
// same user overwrites the earlier record; no history is kept.
type BanRecord struct {
	User       string    `json:"user"`
	UserID     string    `json:"userId"`
	BannedBy   string    `json:"bannedBy"`
	BannedByID string    `json:"bannedById"`
	Reason     string    `json:"reason"`
	Date       time.Time `json:"date"`
}

type BanStore struct {
	ns *namespace
}

func NewBanStore(dir string, logger *zap.Logger) (*BanStore, error) {
	ns, err := newNamespace(dir, "bans.json", logger)
	if err != nil {
		return nil, err
	}
	return &BanStore{ns: ns}, nil
}

func (s *BanStore) Put(rec BanRecord) error {
	s.ns.mu.Lock()
	defer s.ns.mu.Unlock()

	records := make(map[string]BanRecord)
	s.ns.load(&records)
	records[rec.UserID] = rec
	return s.ns.save(records)
}

func (s *BanStore) Get(userID string) (BanRecord, bool) {
	s.ns.mu.Lock()
	defer s.ns.mu.Unlock()

	records := make(map[string]BanRecord)
	s.ns.load(&records)
	rec, ok := records[userID]
	return rec, ok
}

// Search returns records whose user name or ID contains query, newest first.
// An empty query returns everything.
func (s *BanStore) Search(query string) []BanRecord {
	s.ns.mu.Lock()
	defer s.ns.mu.Unlock()

	records := make(map[string]BanRecord)
	s.ns.load(&records)

	query = strings.ToLower(query)
	out := make([]BanRecord, 0, len(records))
	for _, rec := range records {
		if query != "" && !strings.Contains(strings.ToLower(rec.User), query) && !strings.Contains(rec.UserID, query) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
