// Package testutil holds shared helpers for integration tests: throwaway
// PostgreSQL and Redis containers, schema resets and data factories.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/santinisystems/catalog/internal/migration"
	"github.com/santinisystems/catalog/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

var (
	pgOnce sync.Once
	pgURL  string
	pgErr  error

	redisOnce sync.Once
	redisURL  string
	redisErr  error
)

// DatabaseURL returns a migrated PostgreSQL database for the test process.
// DATABASE_URL is used when set; otherwise a postgres:16-alpine container is
// started once and shared by every test in the package.
func DatabaseURL(t testing.TB) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	pgOnce.Do(func() {
		ctx := context.Background()
		pgURL = os.Getenv("DATABASE_URL")
		if pgURL == "" {
			pgURL, pgErr = startPostgres(ctx)
			if pgErr != nil {
				return
			}
		}
		pgErr = migrateUp(pgURL)
	})
	require.NoError(t, pgErr, "postgres test database")

	return pgURL
}

// RedisURL returns a Redis URL for the test process. REDIS_URL is used when
// set; otherwise a redis:7-alpine container is started once.
func RedisURL(t testing.TB) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	redisOnce.Do(func() {
		redisURL = os.Getenv("REDIS_URL")
		if redisURL == "" {
			redisURL, redisErr = startRedis(context.Background())
		}
	})
	require.NoError(t, redisErr, "redis test instance")

	return redisURL
}

func startPostgres(ctx context.Context) (string, error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("catalog_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return "", fmt.Errorf("start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", fmt.Errorf("postgres connection string: %w", err)
	}
	return dsn, nil
}

func startRedis(ctx context.Context) (string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start redis container: %w", err)
	}

	endpoint, err := container.PortEndpoint(ctx, "6379/tcp", "redis")
	if err != nil {
		return "", fmt.Errorf("redis endpoint: %w", err)
	}
	return endpoint, nil
}

func migrateUp(databaseURL string) error {
	m, err := migration.New(databaseURL, nil)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetCatalog empties every application table and restarts id sequences.
func ResetCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE products, manufacturers, api_tokens, users RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// NewPool opens a pgx pool against the test database, holds the advisory lock
// for the duration of the test and resets all tables.
func NewPool(t testing.TB) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, DatabaseURL(t))
	require.NoError(t, err, "connect db")
	t.Cleanup(pool.Close)

	unlock, err := AcquireDBLock(ctx, pool)
	require.NoError(t, err, "acquire db lock")
	t.Cleanup(func() {
		_ = unlock()
	})

	require.NoError(t, ResetCatalog(ctx, pool), "reset catalog")
	return pool
}

// NewRedisClient connects to the test Redis and flushes it.
func NewRedisClient(t testing.TB) *redis.Client {
	t.Helper()
	opts, err := redis.ParseURL(RedisURL(t))
	require.NoError(t, err, "parse redis url")

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, FlushRedis(context.Background(), client), "flush redis")
	return client
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@example.com", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewTestUser creates a user with the given roles (not persisted).
func NewTestUser(t testing.TB, roles ...string) *model.User {
	t.Helper()
	return &model.User{
		Email:        UniqueEmail("user"),
		Roles:        roles,
		PasswordHash: "unused",
		CreatedAt:    time.Now().UTC(),
	}
}

// NewTestManufacturer creates a manufacturer with sensible defaults.
func NewTestManufacturer(t testing.TB) *model.Manufacturer {
	t.Helper()
	listDate := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	return &model.Manufacturer{
		Name:        fmt.Sprintf("Manufacturer %d", seq.Add(1)),
		Description: "Makes things",
		CountryCode: "DE",
		ListDate:    &listDate,
	}
}

// NewTestProduct creates a product for the given manufacturer and owner.
func NewTestProduct(t testing.TB, manufacturerID int64, ownerID *int64) *model.Product {
	t.Helper()
	n := seq.Add(1)
	mpn := fmt.Sprintf("MPN-%d", n)
	issueDate := time.Date(1985, 7, 31, 0, 0, 0, 0, time.UTC)
	return &model.Product{
		MPN:            &mpn,
		Name:           fmt.Sprintf("Product %d", n),
		Description:    "A test product",
		IssueDate:      &issueDate,
		ManufacturerID: &manufacturerID,
		OwnerID:        ownerID,
	}
}
