// Package config loads runtime settings from an optional config file plus
// ROC_* environment overrides.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Defaults applied before any file or env override.
const (
	DefaultRegion      = "us-east-1"
	DefaultModel       = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	DefaultAgentName   = "mortgage-rate-agent"
	DefaultInstruction = "You are an agent that helps customers determine their mortgage rate. " +
		"Use the provided tools to look up the customer's total asset value first, " +
		"then quote the mortgage rate for that value."
	DefaultActionGroup = "mortgage-evaluation"
	DefaultAliasName   = "live"
	DefaultRoleName    = "rocagent-execution-role"
	DefaultPolicyName  = "rocagent-invoke-model"
	DefaultMaxTurns    = 8
)

type Config struct {
	Region    string          `mapstructure:"region"`
	Provider  string          `mapstructure:"provider"` // "bedrock" (default) or "anthropic"
	Agent     AgentConfig     `mapstructure:"agent"`
	Loop      LoopConfig      `mapstructure:"loop"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	RateSheet string          `mapstructure:"rate_sheet"`
}

type AgentConfig struct {
	Name        string `mapstructure:"name"`
	Model       string `mapstructure:"model"`
	Instruction string `mapstructure:"instruction"`
	// ID and AliasID address an already provisioned agent at ask time.
	ID          string `mapstructure:"id"`
	AliasID     string `mapstructure:"alias_id"`
	AliasName   string `mapstructure:"alias_name"`
	ActionGroup string `mapstructure:"action_group"`
	RoleName    string `mapstructure:"role_name"`
	PolicyName  string `mapstructure:"policy_name"`
}

type LoopConfig struct {
	MaxTurns int  `mapstructure:"max_turns"`
	Parallel bool `mapstructure:"parallel"`
}

type AnthropicConfig struct {
	Model string `mapstructure:"model"`
}

// Load reads the config at path, or ./rocagent.yaml when path is empty. A
// missing file is fine; env overrides (ROC_AGENT_ID and friends) still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("region", DefaultRegion)
	v.SetDefault("provider", "bedrock")
	v.SetDefault("agent.name", DefaultAgentName)
	v.SetDefault("agent.model", DefaultModel)
	v.SetDefault("agent.instruction", DefaultInstruction)
	v.SetDefault("agent.action_group", DefaultActionGroup)
	v.SetDefault("agent.alias_name", DefaultAliasName)
	v.SetDefault("agent.role_name", DefaultRoleName)
	v.SetDefault("agent.policy_name", DefaultPolicyName)
	v.SetDefault("loop.max_turns", DefaultMaxTurns)
	v.SetDefault("loop.parallel", false)
	// Empty defaults so env-only overrides (ROC_AGENT_ID etc.) bind.
	v.SetDefault("agent.id", "")
	v.SetDefault("agent.alias_id", "")
	v.SetDefault("anthropic.model", "")
	v.SetDefault("rate_sheet", "")

	v.SetEnvPrefix("ROC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	} else {
		v.SetConfigName("rocagent")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}
