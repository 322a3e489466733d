// Package cli implements the mrcctl command tree.
package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	version string
	logger  *slog.Logger
	printer *Printer
}

// NewRootCommand builds the mrcctl command tree. Flags may also be set
// through MRC_-prefixed environment variables (MRC_INDEX, MRC_COLOR, ...).
func NewRootCommand(version string) *cobra.Command {
	a := &app{v: viper.New(), version: version}
	a.v.SetEnvPrefix("MRC")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "mrcctl",
		Short: "Machine reading comprehension toolkit",
		Long: `mrcctl manages the embedded document index and runs questions through
the reading comprehension pipeline from the command line.

Example usage:
  mrcctl ingest ./corpus --index ./data/mrc.bleve
  mrcctl ask "What is the capital of New Zealand?"
  mrcctl score --query "capital city" "Wellington is the capital." "Auckland is the largest city."`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.BoolP("quiet", "q", false, "suppress informational output")
	flags.String("color", "auto", "color output: auto, always, never")
	_ = a.v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = a.v.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = a.v.BindPFlag("color", flags.Lookup("color"))

	root.AddCommand(
		newIngestCommand(a),
		newAskCommand(a),
		newScoreCommand(a),
		newVersionCommand(a),
	)
	return root
}

func (a *app) init(out, errOut io.Writer) error {
	level := slog.LevelWarn
	if a.v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	useColors, err := ResolveColors(a.v.GetString("color"))
	if err != nil {
		return err
	}
	a.printer = NewPrinter(out, errOut, useColors, a.v.GetBool("quiet"))
	return nil
}
