package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

func TestConfigStore_InterfaceCompliance(t *testing.T) {
	var store driven.ConfigStore = NewConfigStore()
	require.NotNil(t, store)
	assert.Empty(t, store.Path())
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("document.path", "regulamento.pdf"))
	require.NoError(t, store.Set("document.path", "outro.pdf"))

	val, ok := store.Get("document.path")
	assert.True(t, ok)
	assert.Equal(t, "outro.pdf", val)
	assert.Equal(t, 1, store.Keys())

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("s", "text")
	_ = store.Set("i", 42)
	_ = store.Set("i64", int64(7))
	_ = store.Set("f", 0.9)
	_ = store.Set("b", true)
	_ = store.Set("slice", []string{"\n\n"})
	_ = store.Set("anyslice", []any{"a", 1, "b"})

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"string", store.GetString("s"), "text"},
		{"string wrong type", store.GetString("i"), ""},
		{"int", store.GetInt("i"), 42},
		{"int from int64", store.GetInt("i64"), 7},
		{"int from float", store.GetInt("f"), 0},
		{"int wrong type", store.GetInt("s"), 0},
		{"float", store.GetFloat("f"), 0.9},
		{"float from int", store.GetFloat("i"), 42.0},
		{"float from int64", store.GetFloat("i64"), 7.0},
		{"float wrong type", store.GetFloat("s"), 0.0},
		{"bool", store.GetBool("b"), true},
		{"bool wrong type", store.GetBool("s"), false},
		{"missing bool", store.GetBool("nope"), false},
		{"slice", store.GetStringSlice("slice"), []string{"\n\n"}},
		{"any slice", store.GetStringSlice("anyslice"), []string{"a", "b"}},
		{"missing slice", store.GetStringSlice("nope"), []string(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestConfigStore_GetStringSlice_ReturnsCopy(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("llm.stop", []string{"a"})

	got := store.GetStringSlice("llm.stop")
	got[0] = "changed"

	assert.Equal(t, []string{"a"}, store.GetStringSlice("llm.stop"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key.%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key.%d", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Keys())
	assert.Equal(t, 49, store.GetInt("key.49"))
}
