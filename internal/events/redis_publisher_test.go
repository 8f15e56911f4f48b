package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/models"
)

func setupPublisher(t *testing.T) (*RedisPublisher, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewRedisPublisher(client, "leadflow:pipeline:"), s
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestChannelIsPerWorkspace(t *testing.T) {
	pub, _ := setupPublisher(t)
	assert.Equal(t, "leadflow:pipeline:ws-1", pub.Channel("ws-1"))
}

func TestPublishWithoutSubscribers(t *testing.T) {
	pub, _ := setupPublisher(t)
	err := pub.Publish(context.Background(), models.Activity{WorkspaceID: "ws-1", ActionType: models.ActionStageChanged})
	assert.NoError(t, err)
}

func TestPublishReachesSubscriber(t *testing.T) {
	pub, _ := setupPublisher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := pub.Subscribe(ctx, "ws-1")
	require.NoError(t, err)

	sent := models.Activity{
		ID:          "a-1",
		LeadID:      "L1",
		WorkspaceID: "ws-1",
		ActionType:  models.ActionStageChanged,
		OldValue:    "base",
		NewValue:    "contatando",
	}
	require.NoError(t, pub.Publish(ctx, sent))
	// other workspaces stay isolated
	require.NoError(t, pub.Publish(ctx, models.Activity{ID: "a-2", WorkspaceID: "ws-2"}))

	select {
	case got := <-ch:
		assert.Equal(t, "a-1", got.ID)
		assert.Equal(t, "contatando", got.NewValue)
	case <-time.After(2 * time.Second):
		t.Fatal("no activity received")
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}
}

func TestPublishFailsWhenRedisIsDown(t *testing.T) {
	pub, s := setupPublisher(t)
	s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := pub.Publish(ctx, models.Activity{WorkspaceID: "ws-1"})
	assert.Error(t, err)
}
