package common

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBroker_PublishConsume(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping rabbitmq container test in short mode")
	}

	mb, err := NewMessageBroker(TestRabbitMQ(t))
	require.NoError(t, err)
	t.Cleanup(func() { mb.Close() })

	require.NoError(t, SetupUserExchange(mb))

	msgs, err := mb.Consume(UserCreatedKey, UserExchange, UserCreatedQueue)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := UserCreatedEvent{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, PublishJSON(ctx, mb, event, UserCreatedKey, UserExchange))

	select {
	case msg := <-msgs:
		var got UserCreatedEvent
		require.NoError(t, json.Unmarshal(msg.Body, &got))
		assert.Equal(t, event, got)
		assert.NoError(t, msg.Ack(false))
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}
