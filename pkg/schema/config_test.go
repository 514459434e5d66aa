package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_PerType(t *testing.T) {
	task, ok := DefaultConfig(NodeTypeTask).(*TaskConfig)
	require.True(t, ok)
	assert.Equal(t, 30, task.TimeoutSeconds)

	delay, ok := DefaultConfig(NodeTypeDelay).(*DelayConfig)
	require.True(t, ok)
	assert.Equal(t, 1, delay.DelaySeconds)

	api, ok := DefaultConfig(NodeTypeAPI).(*APIConfig)
	require.True(t, ok)
	assert.Equal(t, MethodGet, api.Method)

	notif, ok := DefaultConfig(NodeTypeNotification).(*NotificationConfig)
	require.True(t, ok)
	assert.Equal(t, ChannelEmail, notif.Channel)

	assert.Nil(t, DefaultConfig(NodeTypeStart))
	assert.Nil(t, DefaultConfig(NodeTypeMerge))
}

func TestConfigurable(t *testing.T) {
	assert.True(t, Configurable(NodeTypeTask))
	assert.True(t, Configurable(NodeTypeDecision))
	assert.False(t, Configurable(NodeTypeStart))
	assert.False(t, Configurable(NodeTypeEnd))
	assert.False(t, Configurable(NodeTypeParallel))
	assert.False(t, Configurable(NodeTypeMerge))
}

func TestDecodeConfig_EmptyFallsBackToDefaults(t *testing.T) {
	cfg, err := DecodeConfig(NodeTypeTask, nil)
	require.NoError(t, err)
	task, ok := cfg.(*TaskConfig)
	require.True(t, ok)
	assert.Equal(t, 30, task.TimeoutSeconds)
}

func TestDecodeConfig_Typed(t *testing.T) {
	cfg, err := DecodeConfig(NodeTypeAPI, []byte(`{"method":"POST","url":"https://example.com/hook","body":"{}"}`))
	require.NoError(t, err)
	api, ok := cfg.(*APIConfig)
	require.True(t, ok)
	assert.Equal(t, MethodPost, api.Method)
	assert.Equal(t, "https://example.com/hook", api.URL)
}

func TestDecodeConfig_BadJSON(t *testing.T) {
	_, err := DecodeConfig(NodeTypeDecision, []byte(`{not json`))
	require.Error(t, err)
	assert.Equal(t, ErrCodeValidation, CodeOf(err))
}

func TestDecodeConfig_NonConfigurableType(t *testing.T) {
	cfg, err := DecodeConfig(NodeTypeStart, []byte(`{"anything":true}`))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestEncodeConfig_RoundTrip(t *testing.T) {
	raw, err := EncodeConfig(&DecisionConfig{Condition: `vars.count > 3`})
	require.NoError(t, err)

	cfg, err := DecodeConfig(NodeTypeDecision, raw)
	require.NoError(t, err)
	decision, ok := cfg.(*DecisionConfig)
	require.True(t, ok)
	assert.Equal(t, `vars.count > 3`, decision.Condition)
}
