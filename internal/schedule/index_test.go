package schedule

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/meltforce/racecountdown/internal/models"
)

const sampleFeed = `Date,Session Type,Duration/Distance,Heart Rate Target,Pace Target,Notes
05.07.2026,Race,21.1 km,165-175,"4:50, even",Half marathon
2026-07-03,Easy Run,6 km,130-140,6:00,
garbage,Tempo,8 km,,,

2026-07-03,Shakeout,4 km,120-130,6:15,"legs loose, relaxed"
`

// TestParseLastRowWins verifies that a repeated date keeps only the later row.
func TestParseLastRowWins(t *testing.T) {
	idx, stats := Parse(sampleFeed)

	w, ok := idx.Lookup("2026-07-03")
	if !ok {
		t.Fatal("2026-07-03 missing from index")
	}
	want := models.WorkoutRecord{
		Training:  "Shakeout",
		Distance:  "4 km",
		Pace:      "6:15",
		HeartRate: "120-130",
		Note:      "legs loose, relaxed",
	}
	if diff := cmp.Diff(want, w); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	if stats.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1", stats.Duplicates)
	}
	if stats.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", stats.Skipped)
	}
	if stats.Indexed != 2 || idx.Len() != 2 {
		t.Errorf("indexed = %d / len = %d, want 2", stats.Indexed, idx.Len())
	}
}

// TestParseQuotedPace verifies quoted fields containing commas land in the right column.
func TestParseQuotedPace(t *testing.T) {
	idx, _ := Parse(sampleFeed)
	w, _ := idx.Lookup("2026-07-05")
	if w.Pace != "4:50, even" {
		t.Errorf("pace = %q, want %q", w.Pace, "4:50, even")
	}
	if w.Note != "Half marathon" {
		t.Errorf("note = %q, want %q", w.Note, "Half marathon")
	}
}

// TestBuildIndexGermanAliases verifies case-insensitive alias matching and
// that missing columns default to empty.
func TestBuildIndexGermanAliases(t *testing.T) {
	rows := [][]string{
		{"DATUM", "Training", "Distanz"},
		{"1.3.2026", "Intervalle", "10x400m"},
	}
	idx, _ := BuildIndex(rows)
	w, ok := idx.Lookup("2026-03-01")
	if !ok {
		t.Fatal("2026-03-01 missing")
	}
	if w.Training != "Intervalle" || w.Distance != "10x400m" {
		t.Errorf("record = %+v", w)
	}
	if w.Pace != "" || w.HeartRate != "" || w.Note != "" {
		t.Errorf("missing columns should be empty, got %+v", w)
	}
}

// TestEmptyFeed verifies an empty feed produces an empty index, not an error.
func TestEmptyFeed(t *testing.T) {
	idx, stats := Parse("")
	if idx.Len() != 0 {
		t.Errorf("len = %d, want 0", idx.Len())
	}
	if stats.Rows != 0 {
		t.Errorf("rows = %d, want 0", stats.Rows)
	}
	if _, ok := idx.Lookup("2026-07-05"); ok {
		t.Error("lookup on empty index should miss")
	}
}

// TestDatesSorted verifies Dates returns ascending keys.
func TestDatesSorted(t *testing.T) {
	idx, _ := Parse(sampleFeed)
	want := []string{"2026-07-03", "2026-07-05"}
	if diff := cmp.Diff(want, idx.Dates()); diff != "" {
		t.Errorf("Dates mismatch (-want +got):\n%s", diff)
	}
}
