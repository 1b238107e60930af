// Package config defines engram's configuration record, its validation
// rules, named presets, and layered loading (flags, env, file, defaults)
// via viper, in the idiom stxkxs-cadre's CLI config layer uses.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tonitangpotato/neuromemory-ai/internal/activation"
	"github.com/tonitangpotato/neuromemory-ai/internal/confidence"
	"github.com/tonitangpotato/neuromemory-ai/internal/consolidation"
	"github.com/tonitangpotato/neuromemory-ai/internal/forgetting"
	"github.com/tonitangpotato/neuromemory-ai/internal/hebbian"
)

// Config is the full set of recognized options (spec.md §6).
type Config struct {
	DBPath string `mapstructure:"db_path"`

	// Consolidation (§4.6)
	Mu1              float64 `mapstructure:"mu1"`
	Mu2              float64 `mapstructure:"mu2"`
	Alpha            float64 `mapstructure:"alpha"`
	ReplayRatio      float64 `mapstructure:"replay_ratio"`
	ReplayBoost      float64 `mapstructure:"replay_boost"`
	PromoteThreshold float64 `mapstructure:"promote_threshold"`
	DemoteThreshold  float64 `mapstructure:"demote_threshold"`
	ForgetThreshold  float64 `mapstructure:"forget_threshold"`
	Downscale        float64 `mapstructure:"downscale"`

	// Activation scoring (§4.2)
	ImportanceWeight float64 `mapstructure:"importance_weight"`
	SpreadWeight     float64 `mapstructure:"spread_weight"`
	HebbianWeight    float64 `mapstructure:"hebbian_weight"`
	ContraPenalty    float64 `mapstructure:"contra_penalty"`

	// Hebbian learning (§4.4)
	HebbianEnabled bool    `mapstructure:"hebbian_enabled"`
	ThetaForm      int     `mapstructure:"theta_form"`
	Eta            float64 `mapstructure:"eta"`
	LambdaHeb      float64 `mapstructure:"lambda_heb"`
	SMax           float64 `mapstructure:"s_max"`

	// Forgetting (§4.3)
	StabilityBeta  float64 `mapstructure:"stability_beta"`
	StabilityGamma float64 `mapstructure:"stability_gamma"`

	// Confidence & feedback (§4.7)
	RewardMagnitude float64            `mapstructure:"reward_magnitude"`
	RewardDictionary confidence.Dictionary `mapstructure:"-"`

	// Anomaly detection
	AnomalyWindowSize int `mapstructure:"anomaly_window_size"`

	// Embedding provider selection (§6)
	EmbeddingProvider string `mapstructure:"embedding_provider"` // auto | local | remote | none
	EmbeddingModel    string `mapstructure:"embedding_model"`
	EmbeddingURL      string `mapstructure:"embedding_url"`
	EmbeddingAPIKey   string `mapstructure:"embedding_api_key"`
}

// Default returns the default configuration: scoring, consolidation,
// Hebbian and stability values come from each package's defaults, and the
// forget threshold is 0.05.
func Default() Config {
	af := forgetting.DefaultParams()
	aw := activation.DefaultWeights()
	hp := hebbian.DefaultParams()
	cp := consolidation.DefaultParams()

	return Config{
		DBPath: "engram.db",

		Mu1:              cp.Mu1,
		Mu2:              cp.Mu2,
		Alpha:            cp.Alpha,
		ReplayRatio:      cp.ReplayFraction,
		ReplayBoost:      cp.ReplayBoost,
		PromoteThreshold: cp.PromoteThreshold,
		DemoteThreshold:  cp.DemoteThreshold,
		ForgetThreshold:  0.05,
		Downscale:        cp.Downscale,

		ImportanceWeight: aw.Importance,
		SpreadWeight:     aw.Spread,
		HebbianWeight:    aw.Hebbian,
		ContraPenalty:    aw.Contra,

		HebbianEnabled: true,
		ThetaForm:      hp.ThetaForm,
		Eta:            hp.Eta,
		LambdaHeb:      hp.Lambda,
		SMax:           hp.SMax,

		StabilityBeta:  af.Beta,
		StabilityGamma: af.Gamma,

		RewardMagnitude:  0.2,
		RewardDictionary: confidence.DefaultDictionary(),

		AnomalyWindowSize: 50,

		EmbeddingProvider: "auto",
	}
}

// Preset names (spec.md §6: "Named presets are permitted").
const (
	PresetChatbot           = "chatbot"
	PresetTaskAgent         = "task-agent"
	PresetPersonalAssistant = "personal-assistant"
	PresetResearcher        = "researcher"
)

// Preset returns a named configuration variant, differing from Default
// only in the values spec.md §6 enumerates.
func Preset(name string) (Config, error) {
	c := Default()
	switch name {
	case PresetChatbot:
		// Short attention span: fast decay, minimal replay, eager forgetting.
		c.Mu1 = 0.2
		c.Mu2 = 0.02
		c.ReplayRatio = 0.05
		c.ForgetThreshold = 0.1
	case PresetTaskAgent:
		// Procedural bias: earlier promotion to core, faster and heavier Hebbian links.
		c.PromoteThreshold = 2.0
		c.ThetaForm = 2
		c.HebbianWeight = 0.4
	case PresetPersonalAssistant:
		// Long-horizon recall: slow decay, generous replay, pin-friendly.
		c.Mu1 = 0.05
		c.Mu2 = 0.005
		c.ReplayRatio = 0.3
		c.ForgetThreshold = 0.02
	case PresetResearcher:
		// Precision over recency: heavier importance weight, stricter forgetting.
		c.ImportanceWeight = 1.0
		c.ForgetThreshold = 0.01
		c.ReplayRatio = 0.35
	default:
		return Config{}, fmt.Errorf("unknown preset %q", name)
	}
	return c, nil
}

// Validate rejects impossible configurations at construction time
// (spec.md §7: "Configuration conflict ... refuse at engine construction").
func (c Config) Validate() error {
	if c.DemoteThreshold > c.PromoteThreshold {
		return fmt.Errorf("demote threshold (%f) must not exceed promote threshold (%f)", c.DemoteThreshold, c.PromoteThreshold)
	}
	if c.Mu1 <= c.Mu2 {
		return fmt.Errorf("working decay rate mu1 (%f) must exceed core decay rate mu2 (%f)", c.Mu1, c.Mu2)
	}
	if c.Downscale <= 0 || c.Downscale >= 1 {
		return fmt.Errorf("downscale factor must be in (0,1), got %f", c.Downscale)
	}
	if c.LambdaHeb <= 0 || c.LambdaHeb >= 1 {
		return fmt.Errorf("lambda_heb must be in (0,1), got %f", c.LambdaHeb)
	}
	if c.SMax <= 0 {
		return fmt.Errorf("s_max must be positive, got %f", c.SMax)
	}
	if c.ReplayRatio < 0 || c.ReplayRatio > 1 {
		return fmt.Errorf("replay_ratio must be in [0,1], got %f", c.ReplayRatio)
	}
	switch c.EmbeddingProvider {
	case "auto", "local", "remote", "none", "":
	default:
		return fmt.Errorf("unknown embedding_provider %q", c.EmbeddingProvider)
	}
	return nil
}

// Load layers configuration from, in increasing precedence: built-in
// defaults, an optional config file, environment variables (ENGRAM_*
// prefix), and already-bound pflag flags (via v.BindPFlags in the caller).
func Load(v *viper.Viper, configPath string) (Config, error) {
	c := Default()

	v.SetDefault("db_path", c.DBPath)
	v.SetDefault("mu1", c.Mu1)
	v.SetDefault("mu2", c.Mu2)
	v.SetDefault("alpha", c.Alpha)
	v.SetDefault("replay_ratio", c.ReplayRatio)
	v.SetDefault("replay_boost", c.ReplayBoost)
	v.SetDefault("promote_threshold", c.PromoteThreshold)
	v.SetDefault("demote_threshold", c.DemoteThreshold)
	v.SetDefault("forget_threshold", c.ForgetThreshold)
	v.SetDefault("downscale", c.Downscale)
	v.SetDefault("importance_weight", c.ImportanceWeight)
	v.SetDefault("spread_weight", c.SpreadWeight)
	v.SetDefault("hebbian_weight", c.HebbianWeight)
	v.SetDefault("contra_penalty", c.ContraPenalty)
	v.SetDefault("hebbian_enabled", c.HebbianEnabled)
	v.SetDefault("theta_form", c.ThetaForm)
	v.SetDefault("eta", c.Eta)
	v.SetDefault("lambda_heb", c.LambdaHeb)
	v.SetDefault("s_max", c.SMax)
	v.SetDefault("stability_beta", c.StabilityBeta)
	v.SetDefault("stability_gamma", c.StabilityGamma)
	v.SetDefault("reward_magnitude", c.RewardMagnitude)
	v.SetDefault("anomaly_window_size", c.AnomalyWindowSize)
	v.SetDefault("embedding_provider", c.EmbeddingProvider)
	v.SetDefault("embedding_model", c.EmbeddingModel)
	v.SetDefault("embedding_url", c.EmbeddingURL)

	v.SetEnvPrefix("engram")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.RewardDictionary = confidence.DefaultDictionary()

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
