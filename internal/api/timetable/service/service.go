package timetableService

import (
	"context"

	"TrainChecker/internal/api/timetable"
	"TrainChecker/pkg/darwin"

	"github.com/sirupsen/logrus"
)

type ITimetableService interface {
	ListFiles(ctx context.Context) (*timetable.TimetableFilesResponse, error)
	JourneysCallingAt(ctx context.Context, location string, to string) (*timetable.JourneyListResponse, error)
}

type timetableService struct {
	log    *logrus.Logger
	darwin darwin.ItfDarwin
}

func New(log *logrus.Logger, darwinFeed darwin.ItfDarwin) ITimetableService {
	return &timetableService{
		log:    log,
		darwin: darwinFeed,
	}
}
