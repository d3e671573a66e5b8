package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	sub := client.Subscribe(ctx, "canal")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewPublisher(client, "canal", zap.NewNop())
	require.NoError(t, pub.Publish(ctx, Message{UID: "42", Text: "hello"}))

	select {
	case msg := <-sub.Channel():
		require.Equal(t, "canal", msg.Channel)
		require.JSONEq(t, `{"uid":"42","txt":"hello"}`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received on channel")
	}
}
