package cleanup

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/database"
	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/session"
)

func TestSweepMarksIdleAndPrunesTurns(t *testing.T) {
	path := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	client, err := database.NewClient(context.Background(), database.DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sessions := session.NewService(client.DB())
	ctx := context.Background()

	old := models.ConversationTurn{
		SessionID: "stale",
		Query:     "old question",
		Response:  "old answer",
		CreatedAt: time.Now().UTC().AddDate(0, 0, -10),
	}
	require.NoError(t, sessions.AppendTurn(ctx, old))
	require.NoError(t, sessions.AppendTurn(ctx, models.ConversationTurn{
		SessionID: "live", Query: "q", Response: "a",
	}))

	// Idle the stale session past the TTL.
	backdated := database.FormatTime(time.Now().UTC().Add(-time.Hour))
	_, err = client.DB().Exec(
		`UPDATE session_metadata SET last_activity = ? WHERE session_id = ?`, backdated, "stale")
	require.NoError(t, err)

	svc := NewService(Options{SessionTTL: 30 * time.Minute, RetainDays: 7}, sessions)
	svc.Sweep(ctx)

	stale, err := sessions.Metadata(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, stale.IsActive)

	live, err := sessions.Metadata(ctx, "live")
	require.NoError(t, err)
	assert.True(t, live.IsActive)

	turns, err := sessions.RecentTurns(ctx, "stale", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestStartStop(t *testing.T) {
	path := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	client, err := database.NewClient(context.Background(), database.DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(Options{Interval: time.Hour}, session.NewService(client.DB()))
	svc.Start(context.Background())
	svc.Stop()

	// Stop on a stopped sweeper is harmless.
	svc.Stop()
}
