package nlp

import "time"

// Slots carries the typed slot values extracted from utterances. Zero
// values mean "not extracted yet"; Merge treats them as absent.
type Slots struct {
	Departure      string `json:"departure,omitempty"`
	Destination    string `json:"destination,omitempty"`
	CurrentStation string `json:"current_station,omitempty"`

	Date       *time.Time `json:"date,omitempty"`
	Time       string     `json:"time,omitempty"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	ReturnTime string     `json:"return_time,omitempty"`

	TripType     string `json:"trip_type,omitempty"`
	TrainID      string `json:"train_id,omitempty"`
	DelayMinutes *int   `json:"delay_minutes,omitempty"`

	// Stations holds codes the extractor could not attribute to a
	// specific slot; the dialogue layer resolves them from context.
	Stations []string `json:"stations,omitempty"`
}

// Merge overlays the non-empty fields of other onto s and returns the
// result. Merging the same extraction twice is a no-op.
func (s Slots) Merge(other Slots) Slots {
	if other.Departure != "" {
		s.Departure = other.Departure
	}
	if other.Destination != "" {
		s.Destination = other.Destination
	}
	if other.CurrentStation != "" {
		s.CurrentStation = other.CurrentStation
	}
	if other.Date != nil {
		s.Date = other.Date
	}
	if other.Time != "" {
		s.Time = other.Time
	}
	if other.ReturnDate != nil {
		s.ReturnDate = other.ReturnDate
	}
	if other.ReturnTime != "" {
		s.ReturnTime = other.ReturnTime
	}
	if other.TripType != "" {
		s.TripType = other.TripType
	}
	if other.TrainID != "" {
		s.TrainID = other.TrainID
	}
	if other.DelayMinutes != nil {
		s.DelayMinutes = other.DelayMinutes
	}
	if len(other.Stations) > 0 {
		s.Stations = other.Stations
	}
	return s
}
