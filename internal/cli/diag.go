// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/cloud"
	"github.com/jeranaias/planforge/internal/config"
	"github.com/jeranaias/planforge/internal/llm"
	"github.com/jeranaias/planforge/internal/ollama"
	"github.com/jeranaias/planforge/internal/util"
)

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the configured LLM provider is usable",
		Long: `Check the configured provider without generating anything: an API key
for openai, a reachable server holding the model for ollama.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			llmCfg := a.cfg.LLM

			fmt.Fprintf(out, "%s%s\n", RenderLabel("Provider"), ValueStyle.Render(llmCfg.Provider))
			fmt.Fprintf(out, "%s%s\n", RenderLabel("Model"), ValueStyle.Render(llmCfg.ActiveModel()))
			if !strings.EqualFold(llmCfg.Provider, config.ProviderOllama) {
				fmt.Fprintf(out, "%s%s\n", RenderLabel("API key"), DimStyle.Render(cloud.MaskKey(llmCfg.APIKey)))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := llm.Check(ctx, llmCfg); err != nil {
				fmt.Fprintf(out, "%s%s\n", RenderLabel("Status"), ErrorStyle.Render("[FAIL] "+err.Error()))
				return commandError("check", llmCfg.Provider, err)
			}
			fmt.Fprintf(out, "%s%s\n", RenderLabel("Status"), SuccessStyle.Render("[OK]"))
			return nil
		},
	}
}

func (a *app) modelsCommand() *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available on the Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				url = a.cfg.LLM.OllamaURL
			}
			client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: url, Timeout: 10 * time.Second})

			ctx := cmd.Context()
			if err := client.CheckRunning(ctx); err != nil {
				return commandError("models", "connect "+url, err)
			}
			models, err := client.ListModels(ctx)
			if err != nil {
				return commandError("models", "list", err)
			}

			out := cmd.OutOrStdout()
			if len(models) == 0 {
				fmt.Fprintln(out, DimStyle.Render("No models installed. Try: ollama pull "+config.Default().LLM.OllamaModel))
				return nil
			}

			fmt.Fprintln(out, TitleStyle.Render(util.PadWidth("NAME", 40)+" SIZE"))
			for _, m := range models {
				name := m.Name
				if strings.EqualFold(a.cfg.LLM.Provider, config.ProviderOllama) && isSelectedModel(m.Name, a.cfg.LLM.OllamaModel) {
					name += " *"
				}
				fmt.Fprintf(out, "%s %s\n", util.PadWidth(name, 40), m.FormatSize())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Ollama base URL (default llm.ollama_url)")
	return cmd
}

func isSelectedModel(name, selected string) bool {
	return name == selected || name == selected+":latest"
}
