package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestTicketRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewTicketStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new ticket store: %v", err)
	}

	rec := TicketRecord{User: "alice", UserID: "u1", ChannelID: "c1", Status: "open", Date: time.Unix(100, 0).UTC()}
	if err := s.Put(rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := s.Get("u1")
	if !ok || got.ChannelID != "c1" || got.Status != "open" {
		t.Fatalf("unexpected record: %+v ok=%t", got, ok)
	}

	byChannel, ok := s.FindByChannel("c1")
	if !ok || byChannel.UserID != "u1" {
		t.Fatalf("find by channel: %+v ok=%t", byChannel, ok)
	}
	if _, ok := s.FindByChannel("c2"); ok {
		t.Fatalf("unexpected match for unknown channel")
	}
}

func TestSetStatusByChannel(t *testing.T) {
	s, err := NewTicketStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new ticket store: %v", err)
	}
	if err := s.Put(TicketRecord{User: "alice", UserID: "u1", ChannelID: "c1", Status: "open"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	found, err := s.SetStatusByChannel("c1", "resolved")
	if err != nil || !found {
		t.Fatalf("set status: found=%t err=%v", found, err)
	}
	if rec, _ := s.Get("u1"); rec.Status != "resolved" {
		t.Fatalf("expected resolved, got %s", rec.Status)
	}

	found, err = s.SetStatusByChannel("c9", "resolved")
	if err != nil || found {
		t.Fatalf("unknown channel: found=%t err=%v", found, err)
	}
}

func TestWarningsAppendOnly(t *testing.T) {
	s, err := NewWarningStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new warning store: %v", err)
	}

	reasons := []string{"first", "second", "third"}
	for _, reason := range reasons {
		rec := WarningRecord{ID: reason, WarnedBy: "mod", WarnedByID: "m1", Reason: reason, Date: time.Now()}
		if err := s.Add("u1", rec); err != nil {
			t.Fatalf("add %s: %v", reason, err)
		}
	}

	got := s.List("u1")
	if len(got) != len(reasons) {
		t.Fatalf("expected %d warnings, got %d", len(reasons), len(got))
	}
	for i, reason := range reasons {
		if got[i].Reason != reason {
			t.Fatalf("insertion order lost at %d: got %s want %s", i, got[i].Reason, reason)
		}
	}
	if warns := s.List("u2"); len(warns) != 0 {
		t.Fatalf("expected no warnings for other user, got %d", len(warns))
	}
}

func TestBansLastWriteWins(t *testing.T) {
	s, err := NewBanStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new ban store: %v", err)
	}

	first := BanRecord{User: "bob", UserID: "u1", BannedBy: "mod", Reason: "spam", Date: time.Unix(100, 0)}
	second := BanRecord{User: "bob", UserID: "u1", BannedBy: "admin", Reason: "evasion", Date: time.Unix(200, 0)}
	if err := s.Put(first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := s.Put(second); err != nil {
		t.Fatalf("put second: %v", err)
	}

	got, ok := s.Get("u1")
	if !ok || got.Reason != "evasion" || got.BannedBy != "admin" {
		t.Fatalf("expected second record to win, got %+v", got)
	}
	if all := s.Search(""); len(all) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(all))
	}
}

func TestBanSearch(t *testing.T) {
	s, err := NewBanStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new ban store: %v", err)
	}
	_ = s.Put(BanRecord{User: "alice", UserID: "u1", Reason: "spam", Date: time.Unix(100, 0)})
	_ = s.Put(BanRecord{User: "bob", UserID: "u2", Reason: "raid", Date: time.Unix(200, 0)})

	if got := s.Search("ali"); len(got) != 1 || got[0].UserID != "u1" {
		t.Fatalf("name search: %+v", got)
	}
	if got := s.Search("u2"); len(got) != 1 || got[0].User != "bob" {
		t.Fatalf("id search: %+v", got)
	}
	if got := s.Search(""); len(got) != 2 || !got[0].Date.After(got[1].Date) {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestCorruptFileReadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tickets.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	s, err := NewTicketStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("new ticket store: %v", err)
	}
	if _, ok := s.Get("u1"); ok {
		t.Fatalf("corrupt store must read as empty")
	}

	// Writes still go through and recover the file.
	if err := s.Put(TicketRecord{User: "alice", UserID: "u1", ChannelID: "c1", Status: "open"}); err != nil {
		t.Fatalf("put after corruption: %v", err)
	}
	if rec, ok := s.Get("u1"); !ok || rec.ChannelID != "c1" {
		t.Fatalf("expected recovered record, got %+v ok=%t", rec, ok)
	}
}

func TestWriteFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	s, err := NewTicketStore(filepath.Join(dir, "data"), zap.NewNop())
	if err != nil {
		t.Fatalf("new ticket store: %v", err)
	}

	if err := os.RemoveAll(filepath.Join(dir, "data")); err != nil {
		t.Fatalf("remove data dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data"), []byte("x"), 0o644); err != nil {
		t.Fatalf("block data dir: %v", err)
	}

	if err := s.Put(TicketRecord{UserID: "u1"}); err == nil {
		t.Fatalf("expected write error")
	}
}
