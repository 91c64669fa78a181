package agronomy

import (
	"errors"
	"testing"
	"time"

	"github.com/agroai/crop-engine/internal/domain"
)

var day0 = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func onDay(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func TestDaysElapsed(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{name: "same instant", now: day0, want: 0},
		{name: "partial day floors to zero", now: day0.Add(23 * time.Hour), want: 0},
		{name: "exactly one day", now: onDay(1), want: 1},
		{name: "thirty five days", now: onDay(35), want: 35},
		{name: "clock skew clamps to zero", now: day0.Add(-48 * time.Hour), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysElapsed(day0, tt.now); got != tt.want {
				t.Fatalf("expected %d days elapsed, got %d", tt.want, got)
			}
		})
	}
}

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		now      time.Time
		want     int
	}{
		{name: "halfway through a 70 day crop", duration: 70, now: onDay(35), want: 50},
		{name: "zero at planting", duration: 70, now: day0, want: 0},
		{name: "exactly 100 at harvest duration", duration: 70, now: onDay(70), want: 100},
		{name: "clamped at 100 past harvest", duration: 70, now: onDay(200), want: 100},
		{name: "rounding never reaches 100 early", duration: 1000, now: onDay(995), want: 99},
		{name: "clock skew reports zero", duration: 70, now: day0.Add(-time.Hour), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GrowthPercent(day0, tt.duration, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected growth %d%%, got %d%%", tt.want, got)
			}
		})
	}

	t.Run("non-positive duration is division undefined", func(t *testing.T) {
		for _, duration := range []int{0, -5} {
			_, err := GrowthPercent(day0, duration, onDay(10))
			var divErr *domain.DivisionUndefinedError
			if !errors.As(err, &divErr) {
				t.Fatalf("expected DivisionUndefinedError for duration %d, got %v", duration, err)
			}
		}
	})
}

func TestGrowthPercentMonotonic(t *testing.T) {
	const duration = 70
	prev := -1
	for d := 0; d <= duration; d++ {
		got, err := GrowthPercent(day0, duration, onDay(d))
		if err != nil {
			t.Fatalf("unexpected error at day %d: %v", d, err)
		}
		if got < prev {
			t.Fatalf("growth decreased from %d to %d at day %d", prev, got, d)
		}
		prev = got
	}
	if prev != 100 {
		t.Fatalf("expected growth 100 at day %d, got %d", duration, prev)
	}
}

func TestDaysRemainingToHarvest(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		now      time.Time
		want     int
	}{
		{name: "full duration at planting", duration: 70, now: day0, want: 70},
		{name: "halfway", duration: 70, now: onDay(35), want: 35},
		{name: "zero at harvest", duration: 70, now: onDay(70), want: 0},
		{name: "never negative past harvest", duration: 70, now: onDay(100), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysRemainingToHarvest(day0, tt.duration, tt.now); got != tt.want {
				t.Fatalf("expected %d days remaining, got %d", tt.want, got)
			}
		})
	}
}

// The UI reads growth and days-remaining side by side; they must agree that
// a crop is done at exactly the same instant.
func TestHarvestBoundaryAgreement(t *testing.T) {
	for _, duration := range []int{1, 7, 70, 120, 1000} {
		for d := 0; d <= duration+3; d++ {
			now := onDay(d)
			growth, err := GrowthPercent(day0, duration, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			remaining := DaysRemainingToHarvest(day0, duration, now)
			if (growth == 100) != (remaining == 0) {
				t.Fatalf("duration %d day %d: growth=%d remaining=%d disagree on completion",
					duration, d, growth, remaining)
			}
		}
	}
}

func TestNextIrrigationInDays(t *testing.T) {
	tests := []struct {
		name      string
		frequency int
		now       time.Time
		want      int
	}{
		{name: "due on planting day", frequency: 7, now: day0, want: 0},
		{name: "due again on a multiple", frequency: 7, now: onDay(14), want: 0},
		{name: "one day after watering", frequency: 7, now: onDay(8), want: 6},
		{name: "day before watering", frequency: 7, now: onDay(13), want: 1},
		{name: "every five days", frequency: 5, now: onDay(12), want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextIrrigationInDays(day0, tt.frequency, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected next irrigation in %d days, got %d", tt.want, got)
			}
		})
	}

	t.Run("result stays within the frequency window", func(t *testing.T) {
		const frequency = 7
		for d := 0; d <= 40; d++ {
			got, err := NextIrrigationInDays(day0, frequency, onDay(d))
			if err != nil {
				t.Fatalf("unexpected error at day %d: %v", d, err)
			}
			if got < 0 || got >= frequency {
				t.Fatalf("day %d: next irrigation %d outside [0,%d)", d, got, frequency)
			}
			if (d%frequency == 0) != (got == 0) {
				t.Fatalf("day %d: due-today disagrees with modulo, got %d", d, got)
			}
		}
	})

	t.Run("non-positive frequency is division undefined", func(t *testing.T) {
		_, err := NextIrrigationInDays(day0, 0, onDay(3))
		var divErr *domain.DivisionUndefinedError
		if !errors.As(err, &divErr) {
			t.Fatalf("expected DivisionUndefinedError, got %v", err)
		}
	})
}

func TestHarvestDate(t *testing.T) {
	got := HarvestDate(day0, 70)
	want := time.Date(2024, time.August, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected harvest date %v, got %v", want, got)
	}
}

func TestCompute(t *testing.T) {
	tomato := domain.CropType{
		Name:                    "Tomato",
		Season:                  domain.SeasonKharifRabi,
		HarvestDurationDays:     70,
		WaterNeeds:              domain.WaterNeedsMedium,
		IrrigationFrequencyDays: 5,
	}

	t.Run("day 35 of a tomato crop", func(t *testing.T) {
		m, err := Compute(day0, tomato, onDay(35))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.GrowthPercent != 50 {
			t.Fatalf("expected growth 50, got %d", m.GrowthPercent)
		}
		if m.DaysRemainingToHarvest != 35 {
			t.Fatalf("expected 35 days remaining, got %d", m.DaysRemainingToHarvest)
		}
		if m.NextIrrigationInDays != 0 {
			t.Fatalf("expected irrigation due today, got %d", m.NextIrrigationInDays)
		}
		if !m.HarvestDate.Equal(onDay(70)) {
			t.Fatalf("expected harvest date %v, got %v", onDay(70), m.HarvestDate)
		}
	})

	t.Run("malformed catalog entry surfaces division undefined", func(t *testing.T) {
		bad := tomato
		bad.IrrigationFrequencyDays = 0
		_, err := Compute(day0, bad, onDay(10))
		var divErr *domain.DivisionUndefinedError
		if !errors.As(err, &divErr) {
			t.Fatalf("expected DivisionUndefinedError, got %v", err)
		}
	})
}
