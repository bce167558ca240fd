package service

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"

	"github.com/immoalbania/immo/auth"
	"github.com/immoalbania/immo/cockroach"
	"github.com/immoalbania/immo/cockroach/migrator"
	"github.com/immoalbania/immo/id"
	"github.com/immoalbania/immo/realtime"
	"github.com/immoalbania/immo/types"
)

var (
	testDB        *pgxpool.Pool
	testCockroach *cockroach.Cockroach
)

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	var skipIntegration bool
	flag.BoolVar(&skipIntegration, "skip-integration", false, "Skip integration tests docker setup")
	flag.Parse()

	if skipIntegration || testing.Short() {
		return m.Run()
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		fmt.Printf("could not create docker pool: %v\n", err)
		return 1
	}

	var cleanup func() error
	testDB, cleanup, err = setupTestDB(pool)
	if err != nil {
		fmt.Printf("could not setup test db: %v\n", err)
		return 1
	}
	testCockroach = cockroach.New(testDB)

	if err := migrator.Migrate(context.Background(), testDB, cockroach.MigrationsFS); err != nil {
		fmt.Printf("could not migrate schema: %v\n", err)
		return 1
	}

	defer func() {
		if err := cleanup(); err != nil {
			fmt.Printf("could not cleanup cockroach container: %v\n", err)
		}
	}()

	return m.Run()
}

func setupTestDB(pool *dockertest.Pool) (*pgxpool.Pool, func() error, error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "cockroachdb/cockroach",
		Tag:        "latest",
		Cmd:        []string{"start-single-node", "--insecure"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create cockroach resource: %w", err)
	}

	var db *pgxpool.Pool
	err = pool.Retry(func() (err error) {
		hostPort := resource.GetHostPort("26257/tcp")
		db, err = pgxpool.New(context.Background(), "postgresql://root@"+hostPort+"/immo?sslmode=disable")
		if err != nil {
			return fmt.Errorf("could not open db: %w", err)
		}

		// do not close db

		if err = db.Ping(context.Background()); err != nil {
			return fmt.Errorf("could not ping db: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return db, func() error {
		return pool.Purge(resource)
	}, nil
}

func newTestService(t *testing.T) (*Service, *realtime.Hub) {
	t.Helper()

	if testDB == nil {
		t.Skip("integration tests disabled")
	}

	codec, err := auth.NewCodec("abcdefghijklmnopqrstuvwxyz123456", time.Hour)
	if err != nil {
		t.Fatalf("could not create token codec: %v", err)
	}

	hub := realtime.NewHub(slog.New(slog.DiscardHandler), 8)
	svc := New(&Config{
		Cockroach:         testCockroach,
		Broadcast:         hub,
		Auth:              codec,
		BaseCtx:           context.Background(),
		BackgroundTimeout: 5 * time.Second,
	})

	t.Cleanup(func() {
		_ = svc.Close()
	})

	return svc, hub
}

// genUsername is random so tests can run against a shared database
// without colliding.
func genUsername() string {
	return "u" + id.Generate()
}

func loginUser(t *testing.T, svc *Service, username string) (context.Context, types.User) {
	t.Helper()

	out, err := svc.Login(context.Background(), types.Login{Username: username})
	if err != nil {
		t.Fatalf("could not login as %q: %v", username, err)
	}

	return auth.ContextWithUser(context.Background(), out.User), out.User
}

func openConversation(t *testing.T, svc *Service, ctx context.Context, otherUserID string, listingID *string) types.ConversationWithMessages {
	t.Helper()

	out, err := svc.OpenConversation(ctx, types.OpenConversation{
		OtherUserID: otherUserID,
		ListingID:   listingID,
	})
	if err != nil {
		t.Fatalf("could not open conversation: %v", err)
	}

	return out
}

func waitEvent(t *testing.T, sess *realtime.Session, wantType string) []byte {
	t.Helper()

	timeout := time.After(3 * time.Second)
	for {
		select {
		case b, ok := <-sess.Events():
			if !ok {
				t.Fatalf("session closed while waiting for %q event", wantType)
			}

			var ev struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(b, &ev); err != nil {
				t.Fatalf("could not decode event: %v", err)
			}
			if ev.Type == wantType {
				return b
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q event", wantType)
		}
	}
}
