package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"glue-exchange/internal/domain"
	"glue-exchange/internal/storage"
	chstore "glue-exchange/internal/storage/clickhouse"
	"glue-exchange/internal/storage/migrations"
)

// setupTestDB starts a ClickHouse container and applies the embedded
// migrations. Returns a cleanup function that must be called when done.
func setupTestDB(t *testing.T) (*chstore.Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

func testAggregate(runID string, createdAt int64) *domain.SimulationAggregate {
	return &domain.SimulationAggregate{
		RunID:           runID,
		CreatedAtMs:     createdAt,
		Iterations:      10000,
		Days:            30,
		InitialPrice:    50.0,
		AvgPrice:        61.2,
		MedianPrice:     58.7,
		MinPrice:        31.4,
		MaxPrice:        144.9,
		P05Price:        40.1,
		P95Price:        95.6,
		WinRate:         0.63,
		AvgVolumePerSim: 8421.5,
	}
}

func TestSimulationAggregateStore_InsertAndGetAll(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewSimulationAggregateStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testAggregate("run-b", 2000)))
	require.NoError(t, store.Insert(ctx, testAggregate("run-a", 1000)))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "run-a", got[0].RunID)
	assert.Equal(t, "run-b", got[1].RunID)
	assert.Equal(t, 10000, got[0].Iterations)
	assert.Equal(t, 0.63, got[0].WinRate)
}

func TestSimulationAggregateStore_DuplicateRunID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewSimulationAggregateStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testAggregate("run-a", 1000)))
	err := store.Insert(ctx, testAggregate("run-a", 2000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
