package retention

import (
	"testing"
	"time"
)

func TestGranularity_BucketKey(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}

	tests := []struct {
		name string
		g    Granularity
		at   time.Time
		want string
	}{
		{"hour", Hour, time.Date(2024, 3, 10, 9, 59, 59, 0, time.UTC), "2024-03-10-09"},
		{"day", Day, time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC), "2024-03-10"},
		{"week mid-year", Week, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), "2024-W02"},
		{"week sunday closes week", Week, time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC), "2024-W01"},
		{"week belongs to next ISO year", Week, time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC), "2025-W01"},
		{"week belongs to previous ISO year", Week, time.Date(2021, 1, 3, 12, 0, 0, 0, time.UTC), "2020-W53"},
		{"month", Month, time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), "2024-02"},
		{"year", Year, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC), "2023"},
		{"zoned time is converted to UTC", Day, time.Date(2024, 3, 11, 0, 30, 0, 0, paris), "2024-03-10"},
		{"zoned hour", Hour, time.Date(2024, 3, 11, 0, 30, 0, 0, paris), "2024-03-10-23"},
		{"unknown granularity", Granularity(9), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.BucketKey(tt.at); got != tt.want {
				t.Errorf("BucketKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGranularity_Names(t *testing.T) {
	tests := []struct {
		g      Granularity
		name   string
		option string
	}{
		{Hour, "hour", "keep-hourly"},
		{Day, "day", "keep-daily"},
		{Week, "week", "keep-weekly"},
		{Month, "month", "keep-monthly"},
		{Year, "year", "keep-yearly"},
	}

	for _, tt := range tests {
		if got := tt.g.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.g.Option(); got != tt.option {
			t.Errorf("Option() = %q, want %q", got, tt.option)
		}
		if !tt.g.Valid() {
			t.Errorf("%s.Valid() = false", tt.name)
		}
	}

	if Granularity(-1).Valid() || Granularity(5).Valid() {
		t.Error("out-of-range granularity reported valid")
	}
}

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		input   string
		want    Granularity
		wantErr bool
	}{
		{input: "hour", want: Hour},
		{input: "hourly", want: Hour},
		{input: "Daily", want: Day},
		{input: " week ", want: Week},
		{input: "monthly", want: Month},
		{input: "year", want: Year},
		{input: "fortnightly", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGranularity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGranularity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseGranularity(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
