// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/server"
)

// shutdownTimeout bounds the wait for in-flight pipeline runs on exit.
const shutdownTimeout = 30 * time.Second

func (a *app) serveCommand() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != 0 {
				a.cfg.Server.Port = port
			}

			pipe, err := a.newPipeline("", nil)
			if err != nil {
				return commandError("serve", "configure pipeline", err)
			}
			repo, err := a.openStore()
			if err != nil {
				return commandError("serve", "open storage", err)
			}
			defer repo.Close()

			srvCfg := a.cfg.Server
			srv := server.New(server.Config{
				Addr:           net.JoinHostPort(srvCfg.Host, strconv.Itoa(srvCfg.Port)),
				AllowedOrigins: srvCfg.Origins(),
				RateLimitRPS:   srvCfg.RateLimitRPS,
				RateLimitBurst: srvCfg.RateLimitBurst,
				RequestTimeout: time.Duration(srvCfg.RequestTimeoutSecs) * time.Second,
				Version:        a.info.Version,
				Provider:       a.cfg.LLM.Provider,
				Model:          a.cfg.LLM.ActiveModel(),
			}, pipe, repo, a.logger)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			fmt.Fprintf(cmd.ErrOrStderr(), "%s listening on http://%s\n", TitleStyle.Render("planforge"), srv.Addr())

			select {
			case err := <-errCh:
				return commandError("serve", "listen", err)
			case <-cmd.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return commandError("serve", "shutdown", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}
