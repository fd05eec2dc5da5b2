package fetchlog

import (
	"context"
	"testing"
)

// TestRecordRecent verifies entries are stored per user and returned newest first.
func TestRecordRecent(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	msg := "connection refused"
	entries := []Entry{
		{User: "alice", URL: "https://a.example/feed.csv", RequestID: 1, Status: StatusOK, Rows: 10, Indexed: 9, Skipped: 1},
		{User: "bob", URL: "https://b.example/feed.csv", RequestID: 1, Status: StatusOK},
		{User: "alice", URL: "https://a.example/feed.csv", RequestID: 2, Status: StatusError, Error: &msg},
	}
	for _, e := range entries {
		if _, err := l.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := l.Recent(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].RequestID != 2 || got[0].Status != StatusError {
		t.Errorf("newest = %+v, want request 2 error", got[0])
	}
	if got[0].Error == nil || *got[0].Error != msg {
		t.Errorf("error = %v, want %q", got[0].Error, msg)
	}
	if got[1].Skipped != 1 || got[1].Indexed != 9 {
		t.Errorf("oldest counts = %+v", got[1])
	}
}

// TestRecentLimit verifies the limit is applied.
func TestRecentLimit(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	ctx := context.Background()

	for i := range 5 {
		if _, err := l.Record(ctx, Entry{User: "u", URL: "https://x", RequestID: uint64(i + 1), Status: StatusOK}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := l.Recent(ctx, "u", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("entries = %d, want 3", len(got))
	}
}
