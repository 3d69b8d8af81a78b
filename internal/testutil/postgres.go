// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// PostgresImage is the server image used by integration tests.
	PostgresImage = "postgres:16-alpine"
	// PostgresUser is the superuser created in the test container.
	PostgresUser = "launchgate"
	// PostgresPassword is the superuser password in the test container.
	PostgresPassword = "launchgate"
)

type (
	// PostgresInstance describes a running disposable PostgreSQL server.
	PostgresInstance struct {
		Host     string
		Port     int
		User     string
		Password string
	}
)

// containerSemaphore limits concurrent container startups across tests.
// The capacity is LAUNCHGATE_TEST_CONTAINER_PARALLEL (if set) or min(GOMAXPROCS, 2).
var containerSemaphore = sync.OnceValue(func() chan struct{} {
	return make(chan struct{}, containerParallelism())
})

func containerParallelism() int {
	if v := os.Getenv("LAUNCHGATE_TEST_CONTAINER_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return min(runtime.GOMAXPROCS(0), 2)
}

// dockerAvailable reports whether testcontainers can reach a container provider.
// Provider detection panics on some hosts without a daemon, so it is guarded.
func dockerAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// StartPostgres starts a PostgreSQL container and registers its termination
// with t.Cleanup. The test is skipped in -short mode or when no container
// provider is available.
func StartPostgres(t testing.TB) PostgresInstance {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	if !dockerAvailable() {
		t.Skip("skipping postgres integration test: container provider not available")
	}

	sem := containerSemaphore()
	sem <- struct{}{}
	defer func() { <-sem }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        PostgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     PostgresUser,
				"POSTGRES_PASSWORD": PostgresPassword,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if termErr := ctr.Terminate(context.Background()); termErr != nil {
			t.Logf("failed to terminate postgres container: %v", termErr)
		}
	})

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("failed to resolve postgres container host: %v", err)
	}
	mapped, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to resolve postgres container port: %v", err)
	}

	return PostgresInstance{
		Host:     host,
		Port:     mapped.Int(),
		User:     PostgresUser,
		Password: PostgresPassword,
	}
}
