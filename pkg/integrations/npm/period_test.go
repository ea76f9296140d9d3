package npm

import (
	"testing"
	"time"

	"github.com/matzehuels/npmreg/pkg/errors"
)

func TestDownloadPeriodValidate(t *testing.T) {
	tests := []struct {
		period  DownloadPeriod
		wantErr bool
	}{
		{LastDay, false},
		{LastWeek, false},
		{LastMonth, false},
		{LastYear, false},
		{"2024-02-29", false},
		{"2024-01-01:2024-01-31", false},
		{"2024-01-01:2024-01-01", false},
		{"", true},
		{"last-decade", true},
		{"2023-02-29", true},
		{"2024-1-1", true},
		{"2024-01-31:2024-01-01", true},
		{"2024-01-01:", true},
		{"2024-01-01:soon", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			err := tt.period.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("Validate() code = %v, want INVALID_INPUT", errors.GetCode(err))
			}
		})
	}
}

func TestDayAndDateRange(t *testing.T) {
	start := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	if got := Day(start); got != "2024-03-01" {
		t.Errorf("Day() = %q", got)
	}
	if got := DateRange(start, end); got != "2024-03-01:2024-03-31" {
		t.Errorf("DateRange() = %q", got)
	}
	if err := DateRange(start, end).Validate(); err != nil {
		t.Errorf("DateRange().Validate() error: %v", err)
	}
}
