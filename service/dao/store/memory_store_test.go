package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type record struct {
	ID   string
	Name string
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	aStore := NewMemoryStore[string, record](func(r *record) string { return r.ID })

	loaded, err := aStore.Load(ctx, "missing")
	assert.Nil(t, err)
	assert.Nil(t, loaded)

	assert.Nil(t, aStore.Save(ctx, &record{ID: "r1", Name: "first"}))
	assert.Nil(t, aStore.Save(ctx, &record{ID: "r2", Name: "second"}))
	assert.Nil(t, aStore.Save(ctx, nil))

	loaded, err = aStore.Load(ctx, "r1")
	assert.Nil(t, err)
	if assert.NotNil(t, loaded) {
		assert.Equal(t, "first", loaded.Name)
	}

	// save overwrites
	assert.Nil(t, aStore.Save(ctx, &record{ID: "r1", Name: "updated"}))
	loaded, _ = aStore.Load(ctx, "r1")
	assert.Equal(t, "updated", loaded.Name)

	all, err := aStore.List(ctx)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(all))

	assert.Nil(t, aStore.Delete(ctx, "r2"))
	loaded, _ = aStore.Load(ctx, "r2")
	assert.Nil(t, loaded)
}
