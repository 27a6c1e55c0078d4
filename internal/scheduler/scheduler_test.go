package scheduler

import (
	"testing"
	"time"
)

func TestNextRun(t *testing.T) {
	s := &Scheduler{runAt: "08:00"}

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "before today's run",
			now:  time.Date(2025, 3, 10, 6, 30, 0, 0, time.UTC),
			want: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "after today's run",
			now:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at the run time rolls over",
			now:  time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.nextRun(tt.now)
			if !got.Equal(tt.want) {
				t.Errorf("nextRun(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestStartRejectsInvalidRunTime(t *testing.T) {
	s := New(nil, nil, nil, time.Minute, "25:99", false)
	if err := s.Start(); err == nil {
		t.Error("Start() accepted an invalid run time")
	}
}
