package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/annoview/pkg/config"
	"github.com/matzehuels/annoview/pkg/server"
	"github.com/matzehuels/annoview/pkg/store"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve documents and layouts over HTTP",
		Long: `Serve exposes the configured document store under /api/v1.

Documents come from a directory tree (store.backend = "file") or MongoDB
(store.backend = "mongo"). Layouts are cached in the configured cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			st, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()
			if c.cfg.Store.Backend == config.BackendMongo {
				st = store.NewCached(st, runner.Cache, runner.Keyer, 0)
			}

			printKeyValue("store", c.cfg.Store.Backend)
			printKeyValue("cache", c.cfg.Cache.Backend)
			printKeyValue("listening", "http://"+addr)

			srv := server.New(st, runner, c.Logger)
			err = srv.ListenAndServe(ctx, addr, c.cfg.Server.ReadTimeout, c.cfg.Server.WriteTimeout)
			if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
