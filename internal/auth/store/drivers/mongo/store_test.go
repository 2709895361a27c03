package mongo_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	nopassmongo "github.com/aussiebroadwan/nopass/internal/auth/store/drivers/mongo"
	"github.com/aussiebroadwan/nopass/internal/auth/store/storetest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startMongo runs a single node replica set so session transactions work.
func startMongo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	code, _, err := container.Exec(ctx, []string{"mongosh", "--quiet", "--eval",
		`rs.initiate({_id: "rs0", members: [{_id: 0, host: "localhost:27017"}]})`})
	require.NoError(t, err)
	require.Zero(t, code)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port())
}

func TestStore(t *testing.T) {
	if os.Getenv("NOPASS_INTEGRATION") != "1" {
		t.Skip("set NOPASS_INTEGRATION=1 to run against a mongo container")
	}

	uri := startMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := nopassmongo.Open(ctx, uri, "nopass_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	// The replica set needs a moment to elect a primary after initiate.
	require.Eventually(t, func() bool {
		return s.ApplyMigrations() == nil
	}, 30*time.Second, 500*time.Millisecond)

	storetest.Run(t, s)
}
