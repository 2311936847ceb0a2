package common

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRabbitMQ(t *testing.T) string {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12.11-management-alpine", rabbitmq.WithAdminUsername("guest"), rabbitmq.WithAdminPassword("guest"))
	if err != nil {
		t.Fatalf("could not start rabbitmq container: %v", err)
	}

	connURL, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("could not get rabbitmq connection URL: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("could not terminate container: %v", err)
		}
	})

	return connURL
}

func TestRedis(t *testing.T) *redis.Client {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "docker.io/redis:7.2-alpine")
	if err != nil {
		t.Fatalf("could not start redis container: %v", err)
	}

	connURL, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("could not get redis connection string: %v", err)
	}

	opts, err := redis.ParseURL(connURL)
	if err != nil {
		t.Fatalf("could not parse redis connection string: %v", err)
	}

	client := redis.NewClient(opts)

	t.Cleanup(func() {
		client.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("could not terminate container: %v", err)
		}
	})

	return client
}

// TestDB starts a postgres container with the embedded migrations applied.
func TestDB(t *testing.T) *sql.DB {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	c, err := postgres.Run(ctx,
		"docker.io/postgres:14.11-bookworm",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)))
	if err != nil {
		t.Fatalf("could not start postgres container: %v", err)
	}

	connURL, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	if err := MigrateDB(connURL); err != nil {
		t.Fatalf("could not run migrations: %v", err)
	}

	db, err := sql.Open("postgres", connURL)
	if err != nil {
		t.Fatalf("could not open database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		c.Terminate(ctx)
	})

	return db
}

// MockProducer records published messages instead of sending them to a broker.
type MockProducer struct {
	mu       sync.Mutex
	Messages []PublishedMessage
	Err      error
}

type PublishedMessage struct {
	Body     []byte
	Key      BindingKey
	Exchange Exchange
}

func (p *MockProducer) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}

	p.Messages = append(p.Messages, PublishedMessage{Body: msg, Key: key, Exchange: exchange})
	return nil
}

func (p *MockProducer) Published() []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]PublishedMessage(nil), p.Messages...)
}
