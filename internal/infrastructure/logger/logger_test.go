package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LavaJover/shvark-p2p-service/internal/config"
	"github.com/LavaJover/shvark-p2p-service/internal/domain"
	"github.com/LavaJover/shvark-p2p-service/internal/infrastructure/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestFileOutputIsRotated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p2p.log")
	out := Output(config.LogConfig{LogOutput: path, MaxSizeMB: 1})
	rotated, ok := out.(*lumberjack.Logger)
	require.True(t, ok)
	defer rotated.Close()

	log := slog.New(slog.NewJSONHandler(out, nil))
	log.Info("order expired", "order_id", "o1")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"order_id":"o1"`)

	assert.Equal(t, os.Stdout, Output(config.LogConfig{LogOutput: "stdout"}))
}

func TestEventHistory(t *testing.T) {
	ctx := context.Background()
	l := NewPGOrderEventLogger(testdb.New(t))
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, l.LogEvent(ctx, domain.DomainEvent{
		Type: domain.EventTypeStatusChanged, OrderID: "o1",
		FromStatus: domain.StatusWaitingPayment, ToStatus: domain.StatusPending,
		Actor: domain.SystemActorID, OccurredAt: at,
	}))
	require.NoError(t, l.LogEvent(ctx, domain.DomainEvent{
		Type: domain.EventTypeDisputeOpened, OrderID: "o1", DisputeID: "d1", Actor: "bob", OccurredAt: at.Add(time.Hour),
	}))
	require.NoError(t, l.LogEvent(ctx, domain.DomainEvent{Type: domain.EventTypeOrderCreated, OrderID: "o2", OccurredAt: at}))

	history, err := l.History(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.StatusPending, history[0].ToStatus)
	assert.Equal(t, "d1", history[1].DisputeID)
	assert.True(t, at.Equal(history[0].OccurredAt))
}
