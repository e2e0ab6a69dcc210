package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/finreach/rocagent/internal/config"
	"github.com/finreach/rocagent/internal/loop"
	"github.com/finreach/rocagent/internal/provider"
	"github.com/finreach/rocagent/internal/ratesheet"
	"github.com/finreach/rocagent/session"
	"github.com/finreach/rocagent/tools"
)

const transcriptPath = "sessions.json"

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Run one question through the agent and its tools",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if cfg.RateSheet != "" {
			os.Setenv(ratesheet.EnvRateSheet, cfg.RateSheet)
		}

		svc, err := decisionService(cmd, cfg)
		if err != nil {
			return err
		}

		opts := []loop.Option{
			loop.WithMaxTurns(cfg.Loop.MaxTurns),
			loop.WithLogger(logger),
		}
		if cfg.Loop.Parallel {
			opts = append(opts, loop.WithParallelDispatch())
		}
		l := loop.New(svc, tools.Registry(), opts...)

		input := strings.Join(args, " ")
		res, err := l.Run(cmd.Context(), input)
		if err != nil {
			return err
		}

		for _, st := range res.Steps {
			logger.Info().
				Str("tool", st.Action.ToolName).
				Str("result", st.Result).
				Msg("step")
		}
		fmt.Println(res.Output)

		// Append to the local transcript log; a save failure shouldn't
		// eat a successful answer.
		ts, err := session.Load(transcriptPath)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load transcripts")
			ts = nil
		}
		ts = append(ts, session.FromResult(input, res))
		if err := session.Save(transcriptPath, ts); err != nil {
			logger.Warn().Err(err).Msg("failed to save transcripts")
		}
		return nil
	},
}

// decisionService picks the adapter named by the config.
func decisionService(cmd *cobra.Command, cfg *config.Config) (loop.DecisionService, error) {
	switch cfg.Provider {
	case "bedrock", "":
		if cfg.Agent.ID == "" || cfg.Agent.AliasID == "" {
			return nil, errors.New("agent.id and agent.alias_id must be set; run 'rocagent provision' first")
		}
		client, err := provider.NewBedrockRuntimeClient(cmd.Context(), cfg.Region)
		if err != nil {
			return nil, errors.Wrap(err, "bedrock runtime client")
		}
		return provider.NewBedrockAgent(client, cfg.Agent.ID, cfg.Agent.AliasID, cfg.Agent.ActionGroup), nil
	case "anthropic":
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return nil, errors.New("missing ANTHROPIC_API_KEY; export it before running")
		}
		model := provider.DefaultAnthropicModel
		if cfg.Anthropic.Model != "" {
			model = cfg.Anthropic.Model
		}
		return provider.NewAnthropicAgent(provider.NewAnthropicClient(), model, tools.Registry()), nil
	default:
		return nil, errors.Errorf("unknown provider %q", cfg.Provider)
	}
}
