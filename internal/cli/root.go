package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/plushie/pkg/buildinfo"
	"github.com/matzehuels/plushie/pkg/plushie"
)

// RootCommand creates the root cobra command with all subcommands registered.
// The logger is attached to the command context before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Plushie turns crochet patterns into relaxed 3D shapes",
		Long: `Plushie compiles crochet patterns into stitch graphs and relaxes them with a
force simulation into the shape the finished piece takes. Results can be
exported as STL meshes or point clouds, or watched live over a websocket.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	defaults := plushie.DefaultParams()
	pf := root.PersistentFlags()
	pf.StringVar(&c.paramsFile, "params", "", "simulation params file (.toml or .yaml)")
	pf.Float32Var(&c.gravity, "gravity", defaults.Gravity, "override gravity")
	pf.IntVar(&c.centroids, "centroids", defaults.Centroids.Number, "override the number of stuffing centroids")
	pf.StringVar(&c.initializer, "initializer", string(defaults.Initializer.Kind), "override the initializer: cylinder, one-by-one")
	pf.StringVar(&c.redisAddr, "redis-addr", envOr(envRedisAddr, ""), "use a shared Redis cache (env "+envRedisAddr+")")
	pf.StringVar(&c.mongoURI, "mongo-uri", envOr(envMongoURI, ""), "store results in MongoDB (env "+envMongoURI+")")

	root.AddCommand(c.compileCommand())
	root.AddCommand(c.relaxCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.paramsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}
