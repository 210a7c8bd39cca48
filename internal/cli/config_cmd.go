// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/cloud"
	"github.com/jeranaias/planforge/internal/config"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the configuration file",
	}
	cmd.AddCommand(
		a.configInitCommand(),
		a.configShowCommand(),
		a.configPathCommand(),
		a.configGetCommand(),
		a.configSetCommand(),
	)
	return cmd
}

// filePath returns the config file the config subcommands operate on.
func (a *app) filePath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigPath()
}

// fileConfig loads only the file and defaults, without environment
// overrides, so saving it never writes secrets taken from the environment.
func (a *app) fileConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if !fileExists(path) {
		return cfg, nil
	}
	if err := config.LoadTOML(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.filePath()
			if err != nil {
				return err
			}
			if fileExists(path) && !force {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return commandError("config", "init", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", SuccessStyle.Render("[OK]"), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (a *app) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (API key masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			safe := a.cfg.Redacted()
			if a.cfg.LLM.APIKey != "" {
				safe.LLM.APIKey = cloud.MaskKey(a.cfg.LLM.APIKey)
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(safe)
		},
	}
}

func (a *app) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the config file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.filePath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (a *app) configGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one effective setting, e.g. llm.model",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return config.GetAllKeys(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.cfg.Get(args[0])
			if err != nil {
				return err
			}
			if isSecretKey(args[0]) {
				if s, ok := v.(string); ok && s != "" {
					v = cloud.MaskKey(s)
				}
			}
			if list, ok := v.([]string); ok {
				v = strings.Join(list, ",")
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func (a *app) configSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "set <key> <value>",
		Short:       "Change one setting in the config file",
		Long:        "Change one setting in the config file. Lists are comma separated.",
		Example:     "  planforge config set llm.provider ollama\n  planforge config set server.allowed_origins http://a,http://b",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{annotationConfigOptional: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.filePath()
			if err != nil {
				return err
			}
			cfg, err := a.fileConfig(path)
			if err != nil {
				return commandError("config", "set", err)
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return commandError("config", "set", err)
			}
			if err := cfg.ValidateSettings(); err != nil {
				return err
			}
			if err := config.SaveTOML(cfg, path); err != nil {
				return commandError("config", "set", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s updated in %s\n", SuccessStyle.Render("[OK]"), args[0], path)
			return nil
		},
	}
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), "api_key")
}
