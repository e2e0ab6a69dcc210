package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/finreach/rocagent/internal/config"
	"github.com/finreach/rocagent/internal/provision"
	"github.com/finreach/rocagent/tools"
)

// stackPath is where provision records what it created, for cleanup to find.
var stackPath = filepath.Join(".rocagent", "stack.json")

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the execution role, agent, action group and alias",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if _, err := os.Stat(stackPath); err == nil {
			return errors.Errorf("%s already exists; run 'rocagent cleanup' before provisioning again", stackPath)
		}

		iamClient, agentClient, err := provision.NewClients(cmd.Context(), cfg.Region)
		if err != nil {
			return err
		}
		p := provision.New(iamClient, agentClient, logger)

		stack, err := p.Provision(cmd.Context(), provision.Spec{
			AgentName:   cfg.Agent.Name,
			Model:       cfg.Agent.Model,
			Instruction: cfg.Agent.Instruction,
			Region:      cfg.Region,
			RoleName:    cfg.Agent.RoleName,
			PolicyName:  cfg.Agent.PolicyName,
			ActionGroup: cfg.Agent.ActionGroup,
			AliasName:   cfg.Agent.AliasName,
			Tools:       tools.Registry(),
		})
		// Record whatever exists even on failure so cleanup can release it.
		if stack != nil {
			if werr := saveStack(stack); werr != nil {
				logger.Warn().Err(werr).Msg("failed to record stack")
			}
		}
		if err != nil {
			return err
		}

		fmt.Printf("agent_id: %s\nalias_id: %s\n", stack.AgentID, stack.AliasID)
		fmt.Printf("export ROC_AGENT_ID=%s ROC_AGENT_ALIAS_ID=%s\n", stack.AgentID, stack.AliasID)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Release a previously provisioned stack",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		stack, err := loadStack()
		if err != nil {
			return err
		}

		iamClient, agentClient, err := provision.NewClients(cmd.Context(), cfg.Region)
		if err != nil {
			return err
		}
		p := provision.New(iamClient, agentClient, logger)

		if err := p.Release(cmd.Context(), stack); err != nil {
			return err
		}
		if err := os.Remove(stackPath); err != nil {
			logger.Warn().Err(err).Msg("failed to remove stack record")
		}
		logger.Info().Msg("stack released")
		return nil
	},
}

func saveStack(stack *provision.Stack) error {
	if err := os.MkdirAll(filepath.Dir(stackPath), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(stack, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(stackPath, b, 0o644)
}

func loadStack() (*provision.Stack, error) {
	b, err := os.ReadFile(stackPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Errorf("no stack record at %s; nothing to clean up", stackPath)
		}
		return nil, err
	}
	var stack provision.Stack
	if err := json.Unmarshal(b, &stack); err != nil {
		return nil, errors.Wrapf(err, "parse %s", stackPath)
	}
	return &stack, nil
}
