package model

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		from OfferStatus
		to   OfferStatus
		want bool
	}{
		{"scheduled to active", OfferStatusScheduled, OfferStatusActive, true},
		{"scheduled to cancelled", OfferStatusScheduled, OfferStatusCancelled, true},
		{"scheduled to expired", OfferStatusScheduled, OfferStatusExpired, true},
		{"scheduled to full", OfferStatusScheduled, OfferStatusFull, false},
		{"active to full", OfferStatusActive, OfferStatusFull, true},
		{"active to expired", OfferStatusActive, OfferStatusExpired, true},
		{"active to cancelled", OfferStatusActive, OfferStatusCancelled, true},
		{"active to scheduled", OfferStatusActive, OfferStatusScheduled, false},
		{"full to expired", OfferStatusFull, OfferStatusExpired, true},
		{"full to cancelled", OfferStatusFull, OfferStatusCancelled, true},
		{"full to active", OfferStatusFull, OfferStatusActive, false},
		{"expired is terminal", OfferStatusExpired, OfferStatusActive, false},
		{"expired to cancelled", OfferStatusExpired, OfferStatusCancelled, false},
		{"cancelled is terminal", OfferStatusCancelled, OfferStatusActive, false},
		{"cancelled to expired", OfferStatusCancelled, OfferStatusExpired, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransition(tc.to); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %t, want %t", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestEffectiveStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	window := func(startOffset, endOffset time.Duration) (time.Time, time.Time) {
		return now.Add(startOffset), now.Add(endOffset)
	}

	cases := []struct {
		name        string
		stored      OfferStatus
		startOffset time.Duration
		endOffset   time.Duration
		want        OfferStatus
	}{
		{"scheduled before window", OfferStatusScheduled, time.Hour, 2 * time.Hour, OfferStatusScheduled},
		{"scheduled inside window", OfferStatusScheduled, -time.Hour, time.Hour, OfferStatusActive},
		{"scheduled past window", OfferStatusScheduled, -2 * time.Hour, -time.Hour, OfferStatusExpired},
		{"active inside window", OfferStatusActive, -time.Hour, time.Hour, OfferStatusActive},
		{"active past window", OfferStatusActive, -2 * time.Hour, -time.Hour, OfferStatusExpired},
		{"full inside window", OfferStatusFull, -time.Hour, time.Hour, OfferStatusFull},
		{"full past window expires", OfferStatusFull, -2 * time.Hour, -time.Hour, OfferStatusExpired},
		{"cancelled wins over window", OfferStatusCancelled, -time.Hour, time.Hour, OfferStatusCancelled},
		{"expired stays expired", OfferStatusExpired, -time.Hour, time.Hour, OfferStatusExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := window(tc.startOffset, tc.endOffset)
			offer := &Offer{Status: tc.stored, StartTime: start, EndTime: end}
			if got := offer.EffectiveStatus(now); got != tc.want {
				t.Fatalf("EffectiveStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRemainingClaims(t *testing.T) {
	t.Parallel()

	offer := &Offer{MaxClaims: 5, ClaimedCount: 3}
	if got := offer.RemainingClaims(); got != 2 {
		t.Fatalf("expected 2 remaining, got %d", got)
	}

	offer.ClaimedCount = 5
	if got := offer.RemainingClaims(); got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}
}
