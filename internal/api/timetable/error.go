package timetable

import "TrainChecker/pkg/response"

var (
	ErrInvalidLocation  = response.NewError(400, "invalid location code")
	ErrNoTimetableFiles = response.NewError(404, "no timetable files available")
	ErrFeedUnavailable  = response.NewError(502, "timetable feed unavailable")
)
