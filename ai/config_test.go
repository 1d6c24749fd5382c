package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, 192, cfg.NewsDimension)
	assert.Equal(t, 256, cfg.DecisionDimension)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultNewsDimension, cfg.NewsDimension)
		assert.Equal(t, DefaultDecisionDimension, cfg.DecisionDimension)
	})

	t.Run("with custom dimensions", func(t *testing.T) {
		cfg := NewConfig(WithNewsDimension(64), WithDecisionDimension(512))
		assert.Equal(t, 64, cfg.NewsDimension)
		assert.Equal(t, 512, cfg.DecisionDimension)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{name: "valid", cfg: NewConfig()},
		{name: "zero news dimension", cfg: NewConfig(WithNewsDimension(0)), wantErr: "NewsDimension"},
		{name: "negative decision dimension", cfg: NewConfig(WithDecisionDimension(-1)), wantErr: "DecisionDimension"},
		{name: "oversized", cfg: NewConfig(WithDecisionDimension(MaxDimension + 1)), wantErr: "DecisionDimension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
