package timetableService

import (
	"context"
	"strings"

	"TrainChecker/internal/api/timetable"
	contextPkg "TrainChecker/pkg/context"
	"TrainChecker/pkg/darwin"

	"github.com/sirupsen/logrus"
)

func (s *timetableService) ListFiles(ctx context.Context) (*timetable.TimetableFilesResponse, error) {
	files, err := s.darwin.ListTimetableFiles(ctx)
	if err != nil {
		return nil, timetable.ErrFeedUnavailable
	}

	return &timetable.TimetableFilesResponse{Files: files}, nil
}

// JourneysCallingAt scans the most recent daily timetable for services
// stopping at the given location. When to is non-empty the result keeps
// only services that also call at that second location.
func (s *timetableService) JourneysCallingAt(ctx context.Context, location string, to string) (*timetable.JourneyListResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	location = strings.ToUpper(strings.TrimSpace(location))
	if location == "" || len(location) > 7 {
		return nil, timetable.ErrInvalidLocation
	}

	to = strings.ToUpper(strings.TrimSpace(to))
	if len(to) > 7 {
		return nil, timetable.ErrInvalidLocation
	}

	files, err := s.darwin.ListTimetableFiles(ctx)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to list timetable files")
		return nil, timetable.ErrFeedUnavailable
	}
	if len(files) == 0 {
		return nil, timetable.ErrNoTimetableFiles
	}

	latest := files[len(files)-1]

	journeys, err := s.darwin.JourneysCallingAt(ctx, latest, location)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"file":       latest,
			"error":      err.Error(),
		}).Error("Failed to scan timetable file")
		return nil, timetable.ErrFeedUnavailable
	}

	resp := &timetable.JourneyListResponse{
		Location: location,
		To:       to,
		File:     latest,
		Journeys: make([]timetable.JourneyResponse, 0, len(journeys)),
	}
	for _, j := range journeys {
		if to != "" && !j.CallsAt(to) {
			continue
		}
		resp.Journeys = append(resp.Journeys, makeJourneyResponse(j))
	}

	return resp, nil
}

func makeJourneyResponse(j darwin.Journey) timetable.JourneyResponse {
	out := timetable.JourneyResponse{
		RID:     j.RID,
		TrainID: j.TrainID,
	}

	appendCalls := func(points []darwin.CallingPoint) {
		for _, cp := range points {
			out.Calls = append(out.Calls, timetable.CallingPointResponse{
				Location:  cp.CRS,
				Arrival:   cp.Arrival,
				Departure: cp.Departure,
				Platform:  cp.Platform,
			})
		}
	}

	appendCalls(j.Origin)
	appendCalls(j.Stops)
	appendCalls(j.Dest)

	return out
}
