package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

func TestPromptStore_ImplementsInterface(t *testing.T) {
	var _ driven.PromptStore = (*PromptStore)(nil)
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".regbot", "prompts"), store.Dir())

	_, err = os.Stat(store.Dir())
	assert.True(t, os.IsNotExist(err), "constructor must not touch the disk")
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	for _, f := range []string{"answer.txt", "answer_json.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	answer, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAnswerTemplate, answer)
	assert.Contains(t, answer, domain.PlaceholderContext)
	assert.Contains(t, answer, domain.PlaceholderQuestion)

	jsonSuffix, err := store.Load(driven.PromptAnswerJSON)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAnswerJSONTemplate, jsonSuffix)
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Contexto: {context}\nPergunta: {question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptAnswer)
	require.NoError(t, os.Remove(filepath.Join(dir, "answer.txt")))
	store.Reload()

	prompt, err := store.Load(driven.PromptAnswer)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAnswerTemplate, prompt)
}

func TestPromptStore_Load_InitFailureUsesDefaults(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAnswerTemplate, prompt)

	_, err = store.Load("unknown")
	assert.Error(t, err)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent_prompt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Load_CachesResults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte("modified"), 0600))

	second, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswer)
	require.NoError(t, err)

	modified := "Excertos:\n{context}\n\n{question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte(modified), 0600))
	store.Reload()

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, modified, prompt)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]string, goroutines)

	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prompt, err := store.Load(driven.PromptAnswer)
			assert.NoError(t, err)
			results[i] = prompt
		}()
	}
	wg.Wait()

	for _, prompt := range results {
		assert.Equal(t, domain.DefaultAnswerTemplate, prompt)
	}
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	custom := "pre-existing {context} {question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte(custom), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, _ = store.Load(driven.PromptAnswerJSON)

	data, err := os.ReadFile(filepath.Join(dir, "answer.txt"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestPromptStore_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte("\n\n  {context} {question}  \n\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	assert.Equal(t, "{context} {question}", prompt)
}

func TestPromptStore_HandleEvent(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		op         fsnotify.Op
		wantReload bool
	}{
		{"write prompt", "answer.txt", fsnotify.Write, true},
		{"create prompt", "answer_json.txt", fsnotify.Create, true},
		{"remove prompt", "answer.txt", fsnotify.Remove, true},
		{"rename prompt", "answer.txt", fsnotify.Rename, true},
		{"chmod is ignored", "answer.txt", fsnotify.Chmod, false},
		{"readme is ignored", "README.md", fsnotify.Write, false},
		{"editor swap file is ignored", ".answer.txt.swp", fsnotify.Write, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store, err := NewPromptStore(dir)
			require.NoError(t, err)

			store.mu.Lock()
			store.cache[driven.PromptAnswer] = "cached"
			store.mu.Unlock()

			got := store.handleEvent(fsnotify.Event{Name: filepath.Join(dir, tt.file), Op: tt.op})
			assert.Equal(t, tt.wantReload, got)

			store.mu.RLock()
			_, stillCached := store.cache[driven.PromptAnswer]
			store.mu.RUnlock()
			assert.Equal(t, !tt.wantReload, stillCached)
		})
	}
}

func TestPromptStore_Watch_ReloadsOnEdit(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Watch(ctx))

	before, err := store.Load(driven.PromptAnswer)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultAnswerTemplate, before)

	edited := "Responde curto.\n{context}\n{question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "answer.txt"), []byte(edited), 0600))

	assert.Eventually(t, func() bool {
		prompt, err := store.Load(driven.PromptAnswer)
		return err == nil && prompt == edited
	}, 3*time.Second, 20*time.Millisecond)
}

func TestPromptStore_Watch_InitFailure(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts")
	require.NoError(t, err)

	assert.Error(t, store.Watch(context.Background()))
}
