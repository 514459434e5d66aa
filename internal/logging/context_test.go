package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GraphID(ctx))
	assert.Empty(t, RunID(ctx))
	assert.Empty(t, NodeID(ctx))

	ctx = WithGraphID(ctx, "g1")
	ctx = WithRunID(ctx, "r1")
	ctx = WithNodeID(ctx, "n1")

	assert.Equal(t, "g1", GraphID(ctx))
	assert.Equal(t, "r1", RunID(ctx))
	assert.Equal(t, "n1", NodeID(ctx))
}

func TestCorrelationHandler_InjectsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewTextHandler(&buf, nil)))

	ctx := WithRunID(WithGraphID(context.Background(), "g1"), "r1")
	logger.InfoContext(ctx, "step")

	out := buf.String()
	assert.Contains(t, out, "graph_id=g1")
	assert.Contains(t, out, "run_id=r1")
	assert.NotContains(t, out, "node_id", "absent IDs are not injected")
}

func TestCorrelationHandler_PlainContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("no correlation")
	out := buf.String()
	require.Contains(t, out, "no correlation")
	assert.NotContains(t, out, "graph_id")
}

func TestLogWith(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithGraphID(context.Background(), "g1")
	LogWith(ctx, base).Info("hello")

	assert.Contains(t, buf.String(), "graph_id=g1")
}

func TestCorrelationHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCorrelationHandler(slog.NewTextHandler(&buf, nil)))

	child := logger.With(slog.String("component", "simulator")).WithGroup("run")
	child.InfoContext(WithGraphID(context.Background(), "g1"), "step", slog.Int("n", 1))

	out := buf.String()
	assert.Contains(t, out, "component=simulator")
	assert.Contains(t, out, "run.n=1")
}
