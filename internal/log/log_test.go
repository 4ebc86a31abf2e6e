package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/log"
	"github.com/tuanvumaihuynh/orderdesk/pkg/correlationid"
)

func TestEnrichedHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, config.Log{Format: config.LogFormatJSON, Level: slog.LevelInfo})

	userID := uuid.New()
	ctx := correlationid.NewContext(context.Background(), "corr-1")
	ctx = auth.NewContext(ctx, auth.Principal{UserID: userID})

	logger.InfoContext(ctx, "order created", slog.String("reference", "ORD-1"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "order created", line["msg"])
	assert.Equal(t, "corr-1", line["correlation_id"])
	assert.Equal(t, userID.String(), line["user_id"])
	assert.Equal(t, "ORD-1", line["reference"])
	assert.NotContains(t, line, "trace_id")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, config.Log{Format: config.LogFormatText, Level: slog.LevelWarn})

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}
