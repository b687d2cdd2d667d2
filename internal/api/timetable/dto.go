package timetable

type CallingPointResponse struct {
	Location  string `json:"location"`
	Arrival   string `json:"arrival,omitempty"`
	Departure string `json:"departure,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

type JourneyResponse struct {
	RID     string                 `json:"rid"`
	TrainID string                 `json:"train_id"`
	Calls   []CallingPointResponse `json:"calls"`
}

type JourneyListResponse struct {
	Location string            `json:"location"`
	To       string            `json:"to,omitempty"`
	File     string            `json:"file"`
	Journeys []JourneyResponse `json:"journeys"`
}

type TimetableFilesResponse struct {
	Files []string `json:"files"`
}
