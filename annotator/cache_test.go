package annotator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waterText = "Water boils at 100 degrees."

func TestCachingAnnotator(t *testing.T) {
	ctx := context.Background()

	t.Run("Miss fills the store", func(t *testing.T) {
		inner := &stubAnnotator{docs: map[string]Document{waterText: waterDocument()}}
		store := newMemoryStore()
		ann := NewCachingAnnotator(inner, store, "m", time.Hour)

		_, err := ann.Annotate(ctx, waterText)
		require.NoError(t, err)
		key := CacheKey("m", waterText)
		assert.Contains(t, store.values, key)
		assert.Equal(t, time.Hour, store.ttls[key])

		sent, err := ann.Annotate(ctx, waterText)
		require.NoError(t, err)
		assert.Len(t, sent.Tokens, 6)
		assert.Equal(t, []string{waterText}, inner.calls, "second call is served from the store")
	})

	t.Run("Key depends on model", func(t *testing.T) {
		assert.NotEqual(t, CacheKey("a", waterText), CacheKey("b", waterText))
		assert.Regexp(t, `^kg:ann:[0-9a-f]{16}$`, CacheKey("a", waterText))
	})

	t.Run("Store failures fall through", func(t *testing.T) {
		inner := &stubAnnotator{docs: map[string]Document{waterText: waterDocument()}}
		store := newMemoryStore()
		store.readErr = errStoreDown
		store.writeErr = errStoreDown
		ann := NewCachingAnnotator(inner, store, "m", time.Hour)

		sent, err := ann.Annotate(ctx, waterText)
		require.NoError(t, err)
		assert.Equal(t, waterText, sent.Text)
		assert.Len(t, inner.calls, 1)
	})

	t.Run("Unusable entry is replaced", func(t *testing.T) {
		inner := &stubAnnotator{docs: map[string]Document{waterText: waterDocument()}}
		store := newMemoryStore()
		key := CacheKey("m", waterText)
		store.values[key] = []byte("{")
		ann := NewCachingAnnotator(inner, store, "m", time.Hour)

		_, err := ann.Annotate(ctx, waterText)
		require.NoError(t, err)
		assert.Len(t, inner.calls, 1)
		var doc Document
		require.NoError(t, json.Unmarshal(store.values[key], &doc))
		assert.Equal(t, waterText, doc.Text)
	})

	t.Run("Inner error is returned", func(t *testing.T) {
		ann := NewCachingAnnotator(&stubAnnotator{}, newMemoryStore(), "m", time.Hour)
		_, err := ann.Annotate(ctx, "unknown")
		assert.ErrorIs(t, err, ErrNotAnnotated)
	})

	t.Run("Close closes inner", func(t *testing.T) {
		inner := &stubAnnotator{}
		require.NoError(t, NewCachingAnnotator(inner, newMemoryStore(), "m", time.Hour).Close())
		assert.True(t, inner.closed)
	})
}
