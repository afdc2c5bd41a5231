package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_AllPass(t *testing.T) {
	SetServices(&Services{
		Settings: newMockSettings(),
		Checks: []HealthCheck{
			{Name: "embedding (ollama)", Check: func(context.Context) error { return nil }},
			{Name: "index store", Check: func(ctx context.Context) error {
				_, ok := ctx.Deadline()
				assert.True(t, ok)
				return nil
			}},
		},
	})
	t.Cleanup(func() { SetServices(nil) })

	out, _, err := execute(t, nil, "doctor")

	require.NoError(t, err)
	assert.Contains(t, out, "[ok]   settings")
	assert.Contains(t, out, "[ok]   embedding (ollama)")
	assert.Contains(t, out, "[ok]   index store")
	assert.Contains(t, out, "All checks passed.")
}

func TestDoctorCmd_Failures(t *testing.T) {
	settings := newMockSettings()
	settings.validateErr = errBoom
	SetServices(&Services{
		Settings:    settings,
		Unavailable: errBoom,
		Checks: []HealthCheck{
			{Name: "llm (ollama)", Check: func(context.Context) error { return errBoom }},
			{Name: "cache", Check: func(context.Context) error { return nil }},
		},
	})
	t.Cleanup(func() { SetServices(nil) })

	out, _, err := execute(t, nil, "doctor")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 check(s) failed")
	assert.Contains(t, out, "[FAIL] settings: boom")
	assert.Contains(t, out, "[FAIL] pipeline: boom")
	assert.Contains(t, out, "[FAIL] llm (ollama): boom")
	assert.Contains(t, out, "[ok]   cache")
}
