package schedule

import (
	"sort"
	"strings"

	"github.com/meltforce/racecountdown/internal/models"
)

// column aliases, matched case-insensitively against the header row.
var (
	dateAliases      = []string{"Date", "datum"}
	trainingAliases  = []string{"Session Type", "training"}
	distanceAliases  = []string{"Duration/Distance", "distanz"}
	heartRateAliases = []string{"Heart Rate Target", "heartrate"}
	paceAliases      = []string{"Pace Target", "pace"}
	noteAliases      = []string{"Notes", "notiz"}
)

// Index maps canonical YYYY-MM-DD keys to the workout scheduled that day.
type Index struct {
	entries map[string]models.WorkoutRecord
}

// BuildStats summarizes one index build.
type BuildStats struct {
	Rows       int `json:"rows"`
	Indexed    int `json:"indexed"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]models.WorkoutRecord)}
}

// Lookup returns the workout for a date key.
func (idx *Index) Lookup(date string) (models.WorkoutRecord, bool) {
	if idx == nil {
		return models.WorkoutRecord{}, false
	}
	w, ok := idx.entries[date]
	return w, ok
}

// Len returns the number of distinct dates.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Dates returns all date keys in ascending order.
func (idx *Index) Dates() []string {
	if idx == nil {
		return nil
	}
	dates := make([]string, 0, len(idx.entries))
	for d := range idx.entries {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Parse builds an index from raw feed text.
func Parse(text string) (*Index, BuildStats) {
	return BuildIndex(SplitRows(text))
}

// columns holds resolved header positions; -1 means not present.
type columns struct {
	date, training, distance, heartRate, pace, note int
}

func resolveColumns(header []string) columns {
	return columns{
		date:      findColumn(header, dateAliases),
		training:  findColumn(header, trainingAliases),
		distance:  findColumn(header, distanceAliases),
		heartRate: findColumn(header, heartRateAliases),
		pace:      findColumn(header, paceAliases),
		note:      findColumn(header, noteAliases),
	}
}

func findColumn(header []string, aliases []string) int {
	for i, h := range header {
		for _, a := range aliases {
			if strings.EqualFold(strings.TrimSpace(h), a) {
				return i
			}
		}
	}
	return -1
}

// field returns row[i], or "" when the column is missing or the row is short.
func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// BuildIndex consumes parsed rows. The first row is the header.
// Rows with unparseable dates are skipped; a repeated date keeps the last row.
func BuildIndex(rows [][]string) (*Index, BuildStats) {
	idx := NewIndex()
	var stats BuildStats
	if len(rows) == 0 {
		return idx, stats
	}

	cols := resolveColumns(rows[0])
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		stats.Rows++

		key, ok := NormalizeDate(field(row, cols.date))
		if !ok {
			stats.Skipped++
			continue
		}
		if _, exists := idx.entries[key]; exists {
			stats.Duplicates++
		}
		idx.entries[key] = models.WorkoutRecord{
			Training:  field(row, cols.training),
			Distance:  field(row, cols.distance),
			Pace:      field(row, cols.pace),
			HeartRate: field(row, cols.heartRate),
			Note:      field(row, cols.note),
		}
	}
	stats.Indexed = len(idx.entries)
	return idx, stats
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
