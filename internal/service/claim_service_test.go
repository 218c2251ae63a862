package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"offerhub/internal/model"
)

func TestAllocateClaim_NeverOversellsUnderContention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	env.setNow(now)

	venue := env.createVenue(t, "Corner Bistro")
	const maxClaims = 10
	offer := env.createActiveOffer(t, venue.ID, maxClaims, now)

	const contenders = 25
	users := make([]uuid.UUID, contenders)
	for i := range users {
		users[i] = uuid.New()
		env.checkInUser(t, users[i], venue.ID)
	}

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	tokens := make(chan string, contenders)

	for _, userID := range users {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			claim, err := env.claims.AllocateClaim(ctx, offer.ID.String(), userID.String())
			results <- err
			if err == nil {
				tokens <- claim.Token
			}
		}(userID)
	}
	wg.Wait()
	close(results)
	close(tokens)

	var won, lost int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrOfferFull):
			lost++
		default:
			t.Fatalf("unexpected allocation error: %v", err)
		}
	}
	if won != maxClaims {
		t.Fatalf("expected exactly %d winners, got %d", maxClaims, won)
	}
	if lost != contenders-maxClaims {
		t.Fatalf("expected %d losers, got %d", contenders-maxClaims, lost)
	}

	seen := make(map[string]bool, maxClaims)
	for token := range tokens {
		if len(token) != TokenLength {
			t.Fatalf("token %q has wrong width", token)
		}
		if seen[token] {
			t.Fatalf("token %q issued twice at the same venue", token)
		}
		seen[token] = true
	}

	stored, err := env.offerRepo.FindByID(ctx, offer.ID)
	if err != nil {
		t.Fatalf("reload offer: %v", err)
	}
	if stored.ClaimedCount != maxClaims {
		t.Fatalf("expected claimed_count=%d, got %d", maxClaims, stored.ClaimedCount)
	}
	if stored.Status != model.OfferStatusFull {
		t.Fatalf("expected stored offer status full, got %s", stored.Status)
	}
}

func TestAllocateClaim_OnePerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	env.setNow(now)

	venue := env.createVenue(t, "Corner Bistro")
	offer := env.createActiveOffer(t, venue.ID, 5, now)

	userID := uuid.New()
	env.checkInUser(t, userID, venue.ID)

	first, err := env.claims.AllocateClaim(ctx, offer.ID.String(), userID.String())
	if err != nil {
		t.Fatalf("first allocation: %v", err)
	}
	if first.Status != model.ClaimStatusActive {
		t.Fatalf("expected active claim, got %s", first.Status)
	}
	if !first.ExpiresAt.Equal(now.Add(ClaimTTL)) {
		t.Fatalf("expected claim to expire at %v, got %v", now.Add(ClaimTTL), first.ExpiresAt)
	}

	if _, err := env.claims.AllocateClaim(ctx, offer.ID.String(), userID.String()); !errors.Is(err, ErrDuplicateClaim) {
		t.Fatalf("expected ErrDuplicateClaim, got %v", err)
	}

	stored, err := env.offers.Get(ctx, offer.ID.String())
	if err != nil {
		t.Fatalf("reload offer: %v", err)
	}
	if stored.ClaimedCount != 1 {
		t.Fatalf("duplicate attempt must not consume a slot, claimed_count=%d", stored.ClaimedCount)
	}
}

func TestAllocateClaim_Preconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	env.setNow(now)

	venue := env.createVenue(t, "Corner Bistro")

	t.Run("not checked in", func(t *testing.T) {
		offer := env.createActiveOffer(t, venue.ID, 5, now)
		_, err := env.claims.AllocateClaim(ctx, offer.ID.String(), uuid.NewString())
		if !errors.Is(err, ErrNotCheckedIn) {
			t.Fatalf("expected ErrNotCheckedIn, got %v", err)
		}
	})

	t.Run("offer not started", func(t *testing.T) {
		offer, err := env.offers.Create(ctx, uuid.NewString(), CreateOfferRequest{
			VenueID:   venue.ID.String(),
			Title:     "tomorrow only",
			MaxClaims: 5,
			StartTime: now.Add(time.Hour),
			EndTime:   now.Add(25 * time.Hour),
		})
		if err != nil {
			t.Fatalf("create offer: %v", err)
		}

		userID := uuid.New()
		env.checkInUser(t, userID, venue.ID)
		if _, err := env.claims.AllocateClaim(ctx, offer.ID.String(), userID.String()); !errors.Is(err, ErrOfferNotActive) {
			t.Fatalf("expected ErrOfferNotActive, got %v", err)
		}
	})

	t.Run("offer window lapsed", func(t *testing.T) {
		offer := env.createActiveOffer(t, venue.ID, 5, now)
		userID := uuid.New()
		env.checkInUser(t, userID, venue.ID)

		env.setNow(now.Add(25 * time.Hour))
		defer env.setNow(now)

		if _, err := env.claims.AllocateClaim(ctx, offer.ID.String(), userID.String()); !errors.Is(err, ErrOfferExpired) {
			t.Fatalf("expected ErrOfferExpired, got %v", err)
		}
	})

	t.Run("offer cancelled", func(t *testing.T) {
		offer := env.createActiveOffer(t, venue.ID, 5, now)
		if _, err := env.offers.Cancel(ctx, uuid.NewString(), offer.ID.String()); err != nil {
			t.Fatalf("cancel offer: %v", err)
		}

		userID := uuid.New()
		env.checkInUser(t, userID, venue.ID)
		if _, err := env.claims.AllocateClaim(ctx, offer.ID.String(), userID.String()); !errors.Is(err, ErrOfferNotActive) {
			t.Fatalf("expected ErrOfferNotActive, got %v", err)
		}
	})

	t.Run("offer missing", func(t *testing.T) {
		if _, err := env.claims.AllocateClaim(ctx, uuid.NewString(), uuid.NewString()); !errors.Is(err, ErrOfferNotFound) {
			t.Fatalf("expected ErrOfferNotFound, got %v", err)
		}
	})
}

func TestEligibility_Snapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	env.setNow(now)

	venue := env.createVenue(t, "Corner Bistro")
	offer := env.createActiveOffer(t, venue.ID, 2, now)
	userID := uuid.New()

	snap, err := env.claims.Eligibility(ctx, offer.ID.String(), userID.String())
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if snap.Eligible || snap.Reason != ReasonNotCheckedIn {
		t.Fatalf("expected not_checked_in, got eligible=%v reason=%s", snap.Eligible, snap.Reason)
	}
	if snap.RemainingClaims != 2 {
		t.Fatalf("expected 2 remaining, got %d", snap.RemainingClaims)
	}

	env.checkInUser(t, userID, venue.ID)
	snap, err = env.claims.Eligibility(ctx, offer.ID.String(), userID.String())
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if !snap.Eligible || snap.Reason != ReasonEligible {
		t.Fatalf("expected eligible, got eligible=%v reason=%s", snap.Eligible, snap.Reason)
	}

	if _, err := env.claims.AllocateClaim(ctx, offer.ID.String(), userID.String()); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	snap, err = env.claims.Eligibility(ctx, offer.ID.String(), userID.String())
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if snap.Eligible || snap.Reason != ReasonAlreadyClaimed {
		t.Fatalf("expected already_claimed, got eligible=%v reason=%s", snap.Eligible, snap.Reason)
	}

	// A snapshot is advisory: filling the offer after a positive answer
	// must make the allocator refuse, not the snapshot.
	other := uuid.New()
	env.checkInUser(t, other, venue.ID)
	if _, err := env.claims.AllocateClaim(ctx, offer.ID.String(), other.String()); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	late := uuid.New()
	env.checkInUser(t, late, venue.ID)
	snap, err = env.claims.Eligibility(ctx, offer.ID.String(), late.String())
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if snap.Eligible || snap.Reason != ReasonOfferFull {
		t.Fatalf("expected offer_full, got eligible=%v reason=%s", snap.Eligible, snap.Reason)
	}
	if _, err := env.claims.AllocateClaim(ctx, offer.ID.String(), late.String()); !errors.Is(err, ErrOfferFull) {
		t.Fatalf("expected ErrOfferFull, got %v", err)
	}
}

func TestSweepExpired_ClaimsLapseOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	env.setNow(now)

	venue := env.createVenue(t, "Corner Bistro")
	offer, err := env.offers.Create(ctx, uuid.NewString(), CreateOfferRequest{
		VenueID:   venue.ID.String(),
		Title:     "long running",
		MaxClaims: 5,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}

	lapsing := uuid.New()
	redeeming := uuid.New()
	env.checkInUser(t, lapsing, venue.ID)
	env.checkInUser(t, redeeming, venue.ID)

	lapsingClaim, err := env.claims.AllocateClaim(ctx, offer.ID.String(), lapsing.String())
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	redeemingClaim, err := env.claims.AllocateClaim(ctx, offer.ID.String(), redeeming.String())
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	staffID := uuid.New()
	if _, err := env.redemptions.Redeem(ctx, venue.ID.String(), redeemingClaim.Token, staffID.String()); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	// Past both claim TTLs but inside the offer window.
	env.setNow(now.Add(ClaimTTL + time.Hour))

	expired, err := env.claims.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected 1 expired claim, got %d", expired)
	}

	// Idempotent: a second pass finds nothing.
	expired, err = env.claims.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if expired != 0 {
		t.Fatalf("second sweep expired %d claims", expired)
	}

	got, err := env.claimRepo.FindByID(ctx, lapsingClaim.ID)
	if err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if got.Status != model.ClaimStatusExpired {
		t.Fatalf("expected lapsed claim expired, got %s", got.Status)
	}

	got, err = env.claimRepo.FindByID(ctx, redeemingClaim.ID)
	if err != nil {
		t.Fatalf("reload claim: %v", err)
	}
	if got.Status != model.ClaimStatusRedeemed {
		t.Fatalf("sweep must never touch redeemed claims, got %s", got.Status)
	}

	// Slots are spent on allocation; expiry does not return them.
	stored, err := env.offers.Get(ctx, offer.ID.String())
	if err != nil {
		t.Fatalf("reload offer: %v", err)
	}
	if stored.ClaimedCount != 2 {
		t.Fatalf("expected claimed_count unchanged at 2, got %d", stored.ClaimedCount)
	}
}

func TestSweepExpired_OfferTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	env.setNow(now)

	venue := env.createVenue(t, "Corner Bistro")

	scheduled, err := env.offers.Create(ctx, uuid.NewString(), CreateOfferRequest{
		VenueID:   venue.ID.String(),
		Title:     "starts soon",
		MaxClaims: 5,
		StartTime: now.Add(time.Hour),
		EndTime:   now.Add(10 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create scheduled offer: %v", err)
	}
	if scheduled.Status != model.OfferStatusScheduled {
		t.Fatalf("expected scheduled, got %s", scheduled.Status)
	}

	running := env.createActiveOffer(t, venue.ID, 5, now)

	env.setNow(now.Add(2 * time.Hour))
	activated, expired, err := env.offers.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if activated != 1 || expired != 0 {
		t.Fatalf("expected 1 activated / 0 expired, got %d / %d", activated, expired)
	}

	env.setNow(now.Add(48 * time.Hour))
	activated, expired, err = env.offers.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if activated != 0 || expired != 2 {
		t.Fatalf("expected 0 activated / 2 expired, got %d / %d", activated, expired)
	}

	for _, id := range []uuid.UUID{scheduled.ID, running.ID} {
		got, err := env.offerRepo.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("reload offer: %v", err)
		}
		if got.Status != model.OfferStatusExpired {
			t.Fatalf("expected stored status expired, got %s", got.Status)
		}
	}
}
