package timetableService

import (
	"context"
	"errors"
	"io"
	"testing"

	"TrainChecker/internal/api/timetable"
	"TrainChecker/pkg/darwin"

	"github.com/sirupsen/logrus"
)

type fakeDarwin struct {
	files    []string
	journeys []darwin.Journey
	listErr  error
	scanErr  error

	scannedKey string
}

func (f *fakeDarwin) ListTimetableFiles(ctx context.Context) ([]string, error) {
	return f.files, f.listErr
}

func (f *fakeDarwin) JourneysCallingAt(ctx context.Context, key string, code string) ([]darwin.Journey, error) {
	f.scannedKey = key
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	var out []darwin.Journey
	for _, j := range f.journeys {
		if code == "" || j.CallsAt(code) {
			out = append(out, j)
		}
	}
	return out, nil
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleJourneys() []darwin.Journey {
	return []darwin.Journey{
		{
			RID:     "202507151000",
			TrainID: "1P10",
			Origin:  []darwin.CallingPoint{{CRS: "NRCH"}},
			Stops:   []darwin.CallingPoint{{CRS: "IPSW"}},
			Dest:    []darwin.CallingPoint{{CRS: "LIVST"}},
		},
		{
			RID:     "202507151030",
			TrainID: "2C44",
			Origin:  []darwin.CallingPoint{{CRS: "NRCH"}},
			Dest:    []darwin.CallingPoint{{CRS: "CAMBDGE"}},
		},
	}
}

func TestJourneysCallingAtScansLatestFile(t *testing.T) {
	feed := &fakeDarwin{
		files:    []string{"darwin/20250714.xml.gz", "darwin/20250715.xml.gz"},
		journeys: sampleJourneys(),
	}
	svc := New(newTestLogger(), feed)

	resp, err := svc.JourneysCallingAt(context.Background(), "nrch", "")
	if err != nil {
		t.Fatalf("JourneysCallingAt: %v", err)
	}
	if feed.scannedKey != "darwin/20250715.xml.gz" {
		t.Errorf("scanned %q, want the newest file", feed.scannedKey)
	}
	if resp.Location != "NRCH" {
		t.Errorf("location = %q, want upper-cased NRCH", resp.Location)
	}
	if len(resp.Journeys) != 2 {
		t.Fatalf("got %d journeys, want 2", len(resp.Journeys))
	}
}

func TestJourneysCallingAtFiltersSecondLocation(t *testing.T) {
	feed := &fakeDarwin{
		files:    []string{"darwin/20250715.xml.gz"},
		journeys: sampleJourneys(),
	}
	svc := New(newTestLogger(), feed)

	resp, err := svc.JourneysCallingAt(context.Background(), "NRCH", "livst")
	if err != nil {
		t.Fatalf("JourneysCallingAt: %v", err)
	}
	if len(resp.Journeys) != 1 {
		t.Fatalf("got %d journeys, want 1", len(resp.Journeys))
	}
	if resp.Journeys[0].TrainID != "1P10" {
		t.Errorf("kept %q, want the London service", resp.Journeys[0].TrainID)
	}
	if resp.To != "LIVST" {
		t.Errorf("to = %q, want upper-cased LIVST", resp.To)
	}
}

func TestJourneysCallingAtValidation(t *testing.T) {
	svc := New(newTestLogger(), &fakeDarwin{})

	for _, loc := range []string{"", "TOOLONGCODE"} {
		if _, err := svc.JourneysCallingAt(context.Background(), loc, ""); !errors.Is(err, timetable.ErrInvalidLocation) {
			t.Errorf("location %q: err = %v, want ErrInvalidLocation", loc, err)
		}
	}
}

func TestJourneysCallingAtNoFiles(t *testing.T) {
	svc := New(newTestLogger(), &fakeDarwin{})

	if _, err := svc.JourneysCallingAt(context.Background(), "NRCH", ""); !errors.Is(err, timetable.ErrNoTimetableFiles) {
		t.Errorf("err = %v, want ErrNoTimetableFiles", err)
	}
}

func TestListFilesFeedError(t *testing.T) {
	svc := New(newTestLogger(), &fakeDarwin{listErr: errors.New("s3 unavailable")})

	if _, err := svc.ListFiles(context.Background()); !errors.Is(err, timetable.ErrFeedUnavailable) {
		t.Errorf("err = %v, want ErrFeedUnavailable", err)
	}
}
