package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing provider",
			mutate:  func(c *Config) { c.LLM.Provider = "" },
			wantErr: "llm.provider",
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.LLM.Model = "" },
			wantErr: "llm.model",
		},
		{
			name:    "temperature out of range",
			mutate:  func(c *Config) { c.LLM.Temperature = 1.5 },
			wantErr: "llm.temperature",
		},
		{
			name:    "zero bid limit",
			mutate:  func(c *Config) { c.Bot.BidLimit = 0 },
			wantErr: "bot.bid_limit",
		},
		{
			name:    "negative floor",
			mutate:  func(c *Config) { c.Pricing.FloorUSD = -1 },
			wantErr: "pricing.floor_usd",
		},
		{
			name:    "zero flat fallback",
			mutate:  func(c *Config) { c.Pricing.FlatFallback = 0 },
			wantErr: "pricing.flat_fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bidflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  model: gpt-4o-mini
bot:
  bid_limit: 5
  cycle_interval: 10s
filter:
  excluded_currencies: [XYZ]
`), 0600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Bot.BidLimit)
	assert.Equal(t, 10*time.Second, cfg.Bot.CycleInterval)
	assert.Equal(t, []string{"XYZ"}, cfg.Filter.ExcludedCurrencies)

	// Defaults preserved
	assert.Equal(t, 10, cfg.Bot.SearchLimit)
	assert.Equal(t, 70.0, cfg.Pricing.FloorUSD)
	assert.NotEmpty(t, cfg.Proposal.ServiceCatalog)
}

func TestLoadFromFile_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("BIDFLOW_OAUTH_TOKEN", "env-token")
	t.Setenv("BIDFLOW_LLM_API_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "bidflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
marketplace:
  oauth_token: file-token
`), 0600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Marketplace.OAuthToken)
	assert.Equal(t, "env-key", cfg.LLM.APIKey)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bidflow.yaml")

	cfg := DefaultConfig()
	cfg.Bot.BidLimit = 3
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Bot.BidLimit)
	assert.Equal(t, cfg.Filter.ExcludedCurrencies, loaded.Filter.ExcludedCurrencies)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		LLM: LLMConfig{Model: "other-model"},
		Bot: BotConfig{BidLimit: 9, DryRun: true},
		Proposal: ProposalConfig{
			Signature: "Jane",
		},
	})

	assert.Equal(t, "other-model", base.LLM.Model)
	assert.Equal(t, 9, base.Bot.BidLimit)
	assert.True(t, base.Bot.DryRun)
	assert.Equal(t, "Jane", base.Proposal.Signature)

	// Untouched fields keep defaults
	assert.Equal(t, "groq", base.LLM.Provider)
	assert.Equal(t, 10, base.Bot.SearchLimit)
}

func TestMerge_Nil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(nil)
	require.NoError(t, cfg.Validate())
}
