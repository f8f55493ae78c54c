// Package config provides configuration loading and management for bidflow.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete bidflow configuration.
type Config struct {
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	LLM         LLMConfig         `yaml:"llm"`
	Bot         BotConfig         `yaml:"bot"`
	Filter      FilterConfig      `yaml:"filter"`
	Pricing     PricingConfig     `yaml:"pricing"`
	Proposal    ProposalConfig    `yaml:"proposal"`
	NATS        NATSConfig        `yaml:"nats"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
}

// MarketplaceConfig configures the marketplace API session.
type MarketplaceConfig struct {
	// BaseURL is the marketplace host (empty = production).
	BaseURL string `yaml:"base_url"`
	// OAuthToken authenticates all marketplace calls. Usually supplied via
	// the BIDFLOW_OAUTH_TOKEN environment variable rather than the file.
	OAuthToken string `yaml:"oauth_token"`
}

// LLMConfig configures the completion endpoint.
type LLMConfig struct {
	// Provider selects the wire format ("openai", "groq").
	Provider string `yaml:"provider"`
	// Endpoint is the API base URL (empty = provider default).
	Endpoint string `yaml:"endpoint"`
	// Model is the model identifier to request.
	Model string `yaml:"model"`
	// APIKey authenticates completion calls. Usually supplied via the
	// provider's environment variable (e.g., GROQ_API_KEY).
	APIKey string `yaml:"api_key"`
	// Temperature controls randomness (0.0-1.0).
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for a completion.
	Timeout time.Duration `yaml:"timeout"`
}

// BotConfig configures one bidding run.
type BotConfig struct {
	// BidLimit caps bid placement attempts for the run.
	BidLimit int `yaml:"bid_limit"`
	// SearchLimit is the feed page size per polling cycle.
	SearchLimit int `yaml:"search_limit"`
	// MinProjectAge is how old a listing must be before a bid is placed.
	MinProjectAge time.Duration `yaml:"min_project_age"`
	// SubmitInterval is the pause between consecutive bid submissions.
	SubmitInterval time.Duration `yaml:"submit_interval"`
	// CycleInterval is the pause between polling cycles that placed bids.
	CycleInterval time.Duration `yaml:"cycle_interval"`
	// IdleInterval is the shorter pause after a cycle that placed no bids.
	IdleInterval time.Duration `yaml:"idle_interval"`
	// FetchBackoff is the pause after a failed feed fetch.
	FetchBackoff time.Duration `yaml:"fetch_backoff"`
	// DryRun prices and composes bids but skips placement.
	DryRun bool `yaml:"dry_run"`
}

// FilterConfig configures project eligibility.
type FilterConfig struct {
	// SkillIDs select which listings the feed returns.
	SkillIDs []int `yaml:"skill_ids"`
	// LanguageCodes restrict listings by language.
	LanguageCodes []string `yaml:"language_codes"`
	// ExcludedCurrencies rejects listings in these currency codes.
	ExcludedCurrencies []string `yaml:"excluded_currencies"`
	// ExcludedCountries rejects listings whose owner is in these countries.
	ExcludedCountries []string `yaml:"excluded_countries"`
	// MinFixedBudget rejects fixed listings whose maximum budget is at or
	// below this value.
	MinFixedBudget float64 `yaml:"min_fixed_budget"`
}

// RateCardEntry anchors the pricing prompt with a base price and duration
// for one service category.
type RateCardEntry struct {
	Service      string  `yaml:"service"`
	BudgetUSD    float64 `yaml:"budget_usd"`
	TimelineDays int     `yaml:"timeline_days"`
}

// PricingConfig configures bid amount derivation.
type PricingConfig struct {
	// FloorUSD is the minimum bid amount in USD before currency conversion.
	FloorUSD float64 `yaml:"floor_usd"`
	// FlatFallback is the bid amount used when the listing carries a zero
	// or absent exchange rate.
	FlatFallback float64 `yaml:"flat_fallback"`
	// RateCard anchors the pricing prompt.
	RateCard []RateCardEntry `yaml:"rate_card"`
}

// PortfolioLink is one reference work appended to composed bids.
type PortfolioLink struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// ProposalConfig configures qualification and bid composition.
type ProposalConfig struct {
	// ServiceCatalog describes the operator's offerings for the
	// service-match decision.
	ServiceCatalog string `yaml:"service_catalog"`
	// WritingStyle is the persona instruction for bid copy.
	WritingStyle string `yaml:"writing_style"`
	// Signature closes every composed bid.
	Signature string `yaml:"signature"`
	// PortfolioLinks are appended verbatim to the composition prompt.
	PortfolioLinks []PortfolioLink `yaml:"portfolio_links"`
}

// NATSConfig configures run artifact storage.
type NATSConfig struct {
	// URL is the NATS server URL (empty = in-memory storage only).
	URL string `yaml:"url"`
}

// DashboardConfig configures the HTTP API.
type DashboardConfig struct {
	// Listen is the address for the dashboard server (used by `serve`).
	Listen string `yaml:"listen"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Marketplace: MarketplaceConfig{
			BaseURL: "",
		},
		LLM: LLMConfig{
			Provider:    "groq",
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.2,
			Timeout:     3 * time.Minute,
		},
		Bot: BotConfig{
			BidLimit:       75,
			SearchLimit:    10,
			MinProjectAge:  32 * time.Second,
			SubmitInterval: 20 * time.Second,
			CycleInterval:  30 * time.Second,
			IdleInterval:   5 * time.Second,
			FetchBackoff:   5 * time.Second,
		},
		Filter: FilterConfig{
			SkillIDs: []int{
				3, 9, 13, 15, 17, 20, 21, 26, 32, 38, 44, 57, 69, 70, 77, 106,
				107, 115, 116, 127, 137, 168, 170, 174, 196, 197, 204, 229, 232,
				234, 247, 250, 262, 264, 277, 278, 284, 305, 310, 323, 324, 335,
				359, 365, 368, 369, 371, 375, 408, 412, 433, 436, 444, 445, 482,
				502, 564, 624, 662, 710, 759, 878, 950, 953, 959, 1063, 1185,
				1314, 1623, 2071, 2128, 2222, 2245, 2338, 2342, 2507, 2586, 2587,
				2589, 2605, 2625, 2645, 2673, 2698, 2717, 2745,
			},
			LanguageCodes:      []string{"en"},
			ExcludedCurrencies: []string{"INR", "PKR", "BDT"},
			ExcludedCountries: []string{
				"india", "bangladesh", "pakistan", "sri lanka", "nepal",
				"kenya", "uganda", "egypt", "indonesia", "philippines",
			},
			MinFixedBudget: 30,
		},
		Pricing: PricingConfig{
			FloorUSD:     70,
			FlatFallback: 1000,
			RateCard: []RateCardEntry{
				{Service: "Website Design & Development", BudgetUSD: 1500, TimelineDays: 14},
				{Service: "Website Development Only", BudgetUSD: 850, TimelineDays: 12},
				{Service: "Logo Design", BudgetUSD: 50, TimelineDays: 2},
				{Service: "Custom Artwork", BudgetUSD: 120, TimelineDays: 2},
				{Service: "E-commerce Development", BudgetUSD: 1750, TimelineDays: 20},
				{Service: "UI/UX Design", BudgetUSD: 350, TimelineDays: 7},
				{Service: "Vector Illustration", BudgetUSD: 150, TimelineDays: 5},
			},
		},
		Proposal: ProposalConfig{
			ServiceCatalog: defaultServiceCatalog,
			WritingStyle:   defaultWritingStyle,
			Signature:      "The Studio Team",
		},
		NATS: NATSConfig{
			URL: "",
		},
		Dashboard: DashboardConfig{
			Listen: ":8080",
		},
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.LLM.Provider == "" {
		return fmt.Errorf("llm.provider is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("llm.temperature must be between 0 and 1")
	}
	if c.Bot.BidLimit <= 0 {
		return fmt.Errorf("bot.bid_limit must be positive")
	}
	if c.Bot.SearchLimit <= 0 {
		return fmt.Errorf("bot.search_limit must be positive")
	}
	if c.Pricing.FloorUSD < 0 {
		return fmt.Errorf("pricing.floor_usd must not be negative")
	}
	if c.Pricing.FlatFallback <= 0 {
		return fmt.Errorf("pricing.flat_fallback must be positive")
	}
	return nil
}

// Load returns the effective configuration: file contents layered over
// defaults when path is set, defaults alone otherwise, with secrets
// overridable from the environment either way.
func Load(path string) (*Config, error) {
	if path == "" {
		config := DefaultConfig()
		config.applyEnv()
		return config, nil
	}
	return LoadFromFile(path)
}

// LoadFromFile loads configuration from a YAML file, layered over defaults,
// with secrets overridable from the environment.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnv()
	return config, nil
}

// applyEnv overlays secret material from the environment.
func (c *Config) applyEnv() {
	if token := os.Getenv("BIDFLOW_OAUTH_TOKEN"); token != "" {
		c.Marketplace.OAuthToken = token
	}
	if key := os.Getenv("BIDFLOW_LLM_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Marketplace
	if other.Marketplace.BaseURL != "" {
		c.Marketplace.BaseURL = other.Marketplace.BaseURL
	}
	if other.Marketplace.OAuthToken != "" {
		c.Marketplace.OAuthToken = other.Marketplace.OAuthToken
	}

	// LLM
	if other.LLM.Provider != "" {
		c.LLM.Provider = other.LLM.Provider
	}
	if other.LLM.Endpoint != "" {
		c.LLM.Endpoint = other.LLM.Endpoint
	}
	if other.LLM.Model != "" {
		c.LLM.Model = other.LLM.Model
	}
	if other.LLM.APIKey != "" {
		c.LLM.APIKey = other.LLM.APIKey
	}
	if other.LLM.Temperature != 0 {
		c.LLM.Temperature = other.LLM.Temperature
	}
	if other.LLM.Timeout != 0 {
		c.LLM.Timeout = other.LLM.Timeout
	}

	// Bot
	if other.Bot.BidLimit != 0 {
		c.Bot.BidLimit = other.Bot.BidLimit
	}
	if other.Bot.SearchLimit != 0 {
		c.Bot.SearchLimit = other.Bot.SearchLimit
	}
	if other.Bot.MinProjectAge != 0 {
		c.Bot.MinProjectAge = other.Bot.MinProjectAge
	}
	if other.Bot.SubmitInterval != 0 {
		c.Bot.SubmitInterval = other.Bot.SubmitInterval
	}
	if other.Bot.CycleInterval != 0 {
		c.Bot.CycleInterval = other.Bot.CycleInterval
	}
	if other.Bot.IdleInterval != 0 {
		c.Bot.IdleInterval = other.Bot.IdleInterval
	}
	if other.Bot.FetchBackoff != 0 {
		c.Bot.FetchBackoff = other.Bot.FetchBackoff
	}
	if other.Bot.DryRun {
		c.Bot.DryRun = true
	}

	// Filter
	if len(other.Filter.SkillIDs) > 0 {
		c.Filter.SkillIDs = other.Filter.SkillIDs
	}
	if len(other.Filter.LanguageCodes) > 0 {
		c.Filter.LanguageCodes = other.Filter.LanguageCodes
	}
	if len(other.Filter.ExcludedCurrencies) > 0 {
		c.Filter.ExcludedCurrencies = other.Filter.ExcludedCurrencies
	}
	if len(other.Filter.ExcludedCountries) > 0 {
		c.Filter.ExcludedCountries = other.Filter.ExcludedCountries
	}
	if other.Filter.MinFixedBudget != 0 {
		c.Filter.MinFixedBudget = other.Filter.MinFixedBudget
	}

	// Pricing
	if other.Pricing.FloorUSD != 0 {
		c.Pricing.FloorUSD = other.Pricing.FloorUSD
	}
	if other.Pricing.FlatFallback != 0 {
		c.Pricing.FlatFallback = other.Pricing.FlatFallback
	}
	if len(other.Pricing.RateCard) > 0 {
		c.Pricing.RateCard = other.Pricing.RateCard
	}

	// Proposal
	if other.Proposal.ServiceCatalog != "" {
		c.Proposal.ServiceCatalog = other.Proposal.ServiceCatalog
	}
	if other.Proposal.WritingStyle != "" {
		c.Proposal.WritingStyle = other.Proposal.WritingStyle
	}
	if other.Proposal.Signature != "" {
		c.Proposal.Signature = other.Proposal.Signature
	}
	if len(other.Proposal.PortfolioLinks) > 0 {
		c.Proposal.PortfolioLinks = other.Proposal.PortfolioLinks
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	// Dashboard
	if other.Dashboard.Listen != "" {
		c.Dashboard.Listen = other.Dashboard.Listen
	}
}

const defaultServiceCatalog = `1. Website Development:
   - Website builds on CMS platforms: WordPress, e-commerce platforms, GoDaddy, Wix, Shopify and similar systems. For custom technology we only work with ReactJS.
   - No custom framework development (Laravel and the like).
   - Only projects that build a site from scratch; pure fix/maintenance work on an existing site does not qualify.

2. Graphic Design:
   - All graphic design services: vector illustrations, logo design, branding, brochures, flyers, banners.
   - Presentation and logo design are included.`

const defaultWritingStyle = `Write a professional freelance proposal for the given project.
Start with a strong opening sentence that connects with the client's main goal; skip greetings.
Reference relevant past work with outcome-focused results, show understanding of the client's needs, and close with a confident, reassuring promise.
Ask the two most relevant questions about the project.
After the main text write "Here's my previous related work according to your needs:" followed by one or two directly relevant portfolio links, pasted as-is without markdown.
Keep it under 80 words, conversational, short paragraphs, no corporate jargon, no boldface, and never open with "Hi" or "Dear".
Finish with:
Regards,
{signature}`
