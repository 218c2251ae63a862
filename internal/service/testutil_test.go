package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"offerhub/internal/model"
	"offerhub/internal/repository"
	"offerhub/internal/repository/postgres"
)

// testEnv wires the full service stack against a throwaway postgres
// container. Tests steer the clock through setNow; the database never
// computes wall-clock time itself.
type testEnv struct {
	pool        *pgxpool.Pool
	venueRepo   repository.VenueRepository
	offerRepo   repository.OfferRepository
	claimRepo   repository.ClaimRepository
	checkInRepo repository.CheckInRepository

	venues      *VenueService
	offers      *OfferService
	claims      *ClaimService
	redemptions *RedemptionService
	checkIns    *CheckInService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	pool := startPostgresForTest(t)

	venueRepo := postgres.NewVenueRepository(pool)
	offerRepo := postgres.NewOfferRepository(pool)
	claimRepo := postgres.NewClaimRepository(pool)
	checkInRepo := postgres.NewCheckInRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	return &testEnv{
		pool:        pool,
		venueRepo:   venueRepo,
		offerRepo:   offerRepo,
		claimRepo:   claimRepo,
		checkInRepo: checkInRepo,
		venues:      NewVenueService(venueRepo),
		offers:      NewOfferService(offerRepo, venueRepo, auditRepo, nil),
		claims:      NewClaimService(pool, offerRepo, claimRepo, checkInRepo, auditRepo, nil),
		redemptions: NewRedemptionService(pool, claimRepo, auditRepo, nil),
		checkIns:    NewCheckInService(checkInRepo, venueRepo, nil),
	}
}

// setNow freezes every service clock at the given instant.
func (env *testEnv) setNow(now time.Time) {
	fn := func() time.Time { return now }
	env.offers.nowFn = fn
	env.claims.nowFn = fn
	env.redemptions.nowFn = fn
	env.checkIns.nowFn = fn
}

func (env *testEnv) createVenue(t *testing.T, name string) *model.Venue {
	t.Helper()

	venue, err := env.venues.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}
	return venue
}

// createActiveOffer creates an offer whose window is open at the frozen
// clock: started an hour ago, ends in 24 hours.
func (env *testEnv) createActiveOffer(t *testing.T, venueID uuid.UUID, maxClaims int, now time.Time) *model.Offer {
	t.Helper()

	offer, err := env.offers.Create(context.Background(), uuid.NewString(), CreateOfferRequest{
		VenueID:   venueID.String(),
		Title:     "free appetizer",
		ValueText: "one per table",
		MaxClaims: maxClaims,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return offer
}

func (env *testEnv) checkInUser(t *testing.T, userID, venueID uuid.UUID) {
	t.Helper()

	if _, err := env.checkIns.CheckIn(context.Background(), userID.String(), venueID.String()); err != nil {
		t.Fatalf("check in user: %v", err)
	}
}

func startPostgresForTest(t *testing.T) *pgxpool.Pool {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "offerhub_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("skipping test because docker/testcontainers is unavailable: %v", err)
	}

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/offerhub_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	deadline := time.Now().Add(30 * time.Second)
	for {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("postgres did not become ready: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}

	applyAllMigrations(t, ctx, pool)
	return pool
}

func applyAllMigrations(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()

	migrationsDir := filepath.Join(findRepoRoot(t), "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		// #nosec G304 -- migration file list comes from controlled test directory.
		raw, err := os.ReadFile(filepath.Join(migrationsDir, file))
		if err != nil {
			t.Fatalf("read migration %s: %v", file, err)
		}
		if strings.TrimSpace(string(raw)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(raw)); err != nil {
			t.Fatalf("apply migration %s: %v", file, err)
		}
	}
}

func findRepoRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not locate repository root")
		}
		dir = parent
	}
}
