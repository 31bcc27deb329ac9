package form

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/topekalabs/beacon/internal/store"
)

func TestCaptureAndLoad(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	captured := Capture(ctx, s, Fields{
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Phone:     "555-123-4567",
	}, zap.NewNop())

	assert.Equal(t, "+15551234567", captured.Phone)

	loaded := Load(ctx, s, zap.NewNop())
	assert.Equal(t, captured, loaded)
	assert.False(t, loaded.Empty())
}

func TestCapture_ReplacesPriorRecord(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	Capture(ctx, s, Fields{Email: "old@example.com"}, zap.NewNop())
	Capture(ctx, s, Fields{Email: "new@example.com"}, zap.NewNop())

	loaded := Load(ctx, s, zap.NewNop())
	assert.Equal(t, "new@example.com", loaded.Email)
}

func TestCapture_DiscardsShortPhone(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	captured := Capture(ctx, s, Fields{Email: "jane@example.com", Phone: "123"}, zap.NewNop())

	assert.Empty(t, captured.Phone)
}

func TestLoad_MissingIsEmpty(t *testing.T) {
	loaded := Load(context.Background(), store.NewMemoryStore(), zap.NewNop())
	assert.True(t, loaded.Empty())
}

func TestLoad_CorruptIsEmpty(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.Set(ctx, "customerFormData", "{not json"))

	loaded := Load(ctx, s, zap.NewNop())
	assert.True(t, loaded.Empty())
}
