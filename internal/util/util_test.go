package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDateKey(t *testing.T) {
	// A timestamp late in the day in a western timezone must key to its
	// UTC date, not the local one.
	loc := time.FixedZone("ET", -5*3600)
	ts := time.Date(2024, 6, 14, 22, 30, 0, 0, loc)
	if got := DateKey(ts); got != "2024-06-15" {
		t.Errorf("DateKey = %q, want %q", got, "2024-06-15")
	}

	midnight := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := DateKey(midnight); got != "2024-06-15" {
		t.Errorf("DateKey = %q, want %q", got, "2024-06-15")
	}
}

func TestCalendarDays(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{
			name: "same day",
			from: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "one week",
			from: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
			want: 7,
		},
		{
			name: "different clock times still count whole days",
			from: time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC),
			want: 1,
		},
		{
			name: "across year boundary",
			from: time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC),
			to:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			want: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalendarDays(tt.from, tt.to); got != tt.want {
				t.Errorf("CalendarDays = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsWeekend(t *testing.T) {
	sat := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	mon := time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)
	if !IsWeekend(sat) {
		t.Error("expected Saturday to be a weekend")
	}
	if IsWeekend(mon) {
		t.Error("expected Monday not to be a weekend")
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("permanent")
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Retry error = %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 5, time.Minute, func() error {
		return errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry error = %v, want context.Canceled", err)
	}
}

func TestRateLimiterWait(t *testing.T) {
	rl := NewRateLimiter(60000) // effectively unlimited for the test
	for i := 0; i < 3; i++ {
		if err := rl.Wait(context.Background()); err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewRateLimiter(1)
	_ = slow.Wait(context.Background()) // drain the initial token
	if err := slow.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait error = %v, want context.Canceled", err)
	}
}
