package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/plushie/internal/server"
	"github.com/matzehuels/plushie/pkg/observability"
	"github.com/matzehuels/plushie/pkg/session"
)

// serveCommand creates the serve command hosting live simulations.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var autoStop, noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live simulations over websockets",
		Long: `Serve live simulations over websockets.

Each connection to /ws runs its own simulation. Send "pattern <actions>" to
load a shape, then steer it with commands such as pause, gravity or pos.
Results stored with relax --save are served from /results when --mongo-uri
is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			observability.Install(observability.NewLogHooks(logger))
			defer observability.Reset()

			params, err := c.loadParams(cmd)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			store, err := c.newStore(ctx)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			srv := server.New(server.Config{
				Addr:     addr,
				Params:   params,
				Store:    store,
				Sessions: session.NewMemoryStore(),
				Runner:   runner,
				AutoStop: autoStop,
				Logger:   logger,
			})

			printKeyValue("websocket", "ws://"+displayAddr(addr)+"/ws")
			printKeyValue("health", "http://"+displayAddr(addr)+"/healthz")
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&autoStop, "autostop", true, "stop stepping once a plushie is relaxed")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching of compiled patterns")

	return cmd
}

// displayAddr turns a listen address into one a browser can open.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
