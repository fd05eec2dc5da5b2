package models

// WorkoutRecord is one scheduled session from the training feed.
// All fields are free-form text copied from the sheet.
type WorkoutRecord struct {
	Training  string `json:"training"`
	Distance  string `json:"distance"`
	Pace      string `json:"pace"`
	HeartRate string `json:"heartrate"`
	Note      string `json:"note"`
}

// Placeholders shown when a day has no entry or a field is empty.
const (
	NoEntryTraining = "No entry"
	NoEntryNote     = "No training scheduled today."
	EmptyField      = "-"
)

// WithPlaceholders returns a copy with empty fields replaced for display.
func (w WorkoutRecord) WithPlaceholders() WorkoutRecord {
	out := w
	for _, f := range []*string{&out.Training, &out.Distance, &out.Pace, &out.HeartRate, &out.Note} {
		if *f == "" {
			*f = EmptyField
		}
	}
	return out
}

// NoEntry is the record displayed for a day missing from the feed.
func NoEntry() WorkoutRecord {
	return WorkoutRecord{
		Training:  NoEntryTraining,
		Distance:  EmptyField,
		Pace:      EmptyField,
		HeartRate: EmptyField,
		Note:      NoEntryNote,
	}
}
