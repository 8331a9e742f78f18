package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/plushie/pkg/plushie"
)

// paramsCommand creates the params command for simulation params files.
func (c *CLI) paramsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Write or show simulation params",
	}
	cmd.AddCommand(c.paramsInitCommand())
	cmd.AddCommand(c.paramsShowCommand())
	return cmd
}

func (c *CLI) paramsInitCommand() *cobra.Command {
	var output string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default params to a file",
		Long: `Write the default params to a file.

The format follows the extension: .yaml and .yml write YAML, anything else
TOML. Keys left out of a params file keep their default value, so the file
can be trimmed down to the knobs you tune.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", output)
			}
			if err := plushie.WriteParams(output, plushie.DefaultParams()); err != nil {
				return err
			}
			printSuccess("Wrote default params")
			printFile(output)
			printNextStep("Use them", "plushie relax --params "+output+" <pattern>")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "params.toml", "output file (.toml or .yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (c *CLI) paramsShowCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective params",
		Long:  `Print the effective params: the defaults, then --params, then the override flags.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := c.loadParams(cmd)
			if err != nil {
				return err
			}
			return plushie.EncodeParams(cmd.OutOrStdout(), params, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "toml", "output format: toml, yaml")
	return cmd
}
