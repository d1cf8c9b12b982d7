package tracer

import (
	"context"
	"testing"

	"nova-drive-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestInitTracer_DisabledIsNoop(t *testing.T) {
	shutdown := InitTracer(context.Background(), false, "localhost:4318", logger.NewNop())
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracer_Enabled(t *testing.T) {
	shutdown := InitTracer(context.Background(), true, "127.0.0.1:1", logger.NewNop())
	// Nothing was exported, so shutdown has no batch to flush.
	assert.NoError(t, shutdown(context.Background()))
}
