package darwin

import (
	"strings"
	"testing"
)

const sampleTimetable = `<?xml version="1.0" encoding="UTF-8"?>
<PportTimetable>
  <Journey rid="202507158012345" trainId="1P23">
    <OR tpl="NRCH" wtd="10:00:00" plat="1"/>
    <IP tpl="DISS" wta="10:17:00" wtd="10:18:00" plat="2"/>
    <DT tpl="LIVST" wta="11:30:00" plat="10"/>
  </Journey>
  <Journey rid="202507158012346" trainId="2C07">
    <OR tpl="CAMBDGE" wtd="09:15:00"/>
    <DT tpl="IPSWICH" wta="10:40:00"/>
  </Journey>
</PportTimetable>`

func TestScanJourneysFiltersByLocation(t *testing.T) {
	journeys, err := scanJourneys(strings.NewReader(sampleTimetable), "NRCH")
	if err != nil {
		t.Fatalf("scanJourneys: %v", err)
	}

	if len(journeys) != 1 {
		t.Fatalf("journeys = %d, want 1", len(journeys))
	}
	if journeys[0].TrainID != "1P23" {
		t.Errorf("TrainID = %q, want 1P23", journeys[0].TrainID)
	}
	if len(journeys[0].Stops) != 1 || journeys[0].Stops[0].CRS != "DISS" {
		t.Errorf("Stops = %+v, want single DISS call", journeys[0].Stops)
	}
}

func TestScanJourneysEmptyCodeKeepsAll(t *testing.T) {
	journeys, err := scanJourneys(strings.NewReader(sampleTimetable), "")
	if err != nil {
		t.Fatalf("scanJourneys: %v", err)
	}
	if len(journeys) != 2 {
		t.Errorf("journeys = %d, want 2", len(journeys))
	}
}

func TestCallsAtIsCaseInsensitive(t *testing.T) {
	j := Journey{
		Origin: []CallingPoint{{CRS: "NRCH"}},
		Dest:   []CallingPoint{{CRS: "LIVST"}},
	}

	if !j.CallsAt("nrch") {
		t.Error("CallsAt(nrch) = false, want true")
	}
	if j.CallsAt("DISS") {
		t.Error("CallsAt(DISS) = true, want false")
	}
}
