package ipd

import (
	"testing"
	"time"
)

func TestStayDays(t *testing.T) {
	day := func(d int, hour int) time.Time {
		return time.Date(2026, 1, d, hour, 0, 0, 0, time.UTC)
	}
	cases := []struct {
		name     string
		admitted time.Time
		out      time.Time
		want     int
	}{
		{"same day", day(10, 9), day(10, 17), 1},
		{"overnight", day(10, 22), day(11, 6), 2},
		{"three calendar days", day(10, 9), day(12, 9), 3},
		{"just past midnight counts the new day", day(10, 23), day(11, 0), 2},
		{"clock skew never bills below one day", day(10, 9), day(9, 9), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StayDays(tc.admitted, tc.out); got != tc.want {
				t.Errorf("StayDays = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestBedStatus_CanTransition(t *testing.T) {
	allowed := map[BedStatus]map[BedStatus]bool{
		BedAvailable:   {BedOccupied: true, BedMaintenance: true},
		BedOccupied:    {BedAvailable: true, BedMaintenance: true},
		BedMaintenance: {BedAvailable: true},
	}
	statuses := []BedStatus{BedAvailable, BedOccupied, BedMaintenance}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from][to]
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestAdmissionStatus_CanTransition(t *testing.T) {
	allowed := map[AdmissionStatus]map[AdmissionStatus]bool{
		StatusAdmitted:    {StatusTransferred: true, StatusDischarged: true},
		StatusTransferred: {StatusTransferred: true, StatusDischarged: true},
		StatusDischarged:  {},
	}
	statuses := []AdmissionStatus{StatusAdmitted, StatusTransferred, StatusDischarged}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from][to]
			if got := from.CanTransition(to); got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
}
