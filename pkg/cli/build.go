package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"typyc/pkg/logx"
	"typyc/pkg/runner"
)

func newBuildCmd() *cobra.Command {
	var (
		f        compileFlags
		run      bool
		runEntry string
	)
	cmd := &cobra.Command{
		Use:   "build <file.typy | dir>",
		Short: "Compile a source file or every source under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if run && runEntry != "" {
				return errors.New("--run and --run-entry are mutually exclusive")
			}
			cfg, err := f.load(cmd, args[0])
			if err != nil {
				return err
			}
			if runEntry != "" {
				cfg.Run.Entry = runEntry
			}
			lg := logx.New(cmd.ErrOrStderr(), cfg.Logging.Verbosity, cfg.Logging.Color)

			b, err := newBuilder(cfg, args[0], lg, nil)
			if err != nil {
				return err
			}
			if _, err := b.Build(cmd.Context()); err != nil {
				return err
			}
			if !run && runEntry == "" {
				return nil
			}

			entry, err := runner.Entry(b, cfg.Run.Entry)
			if err != nil {
				return err
			}
			r := runner.New(cfg.Run, lg)
			r.Stdin = cmd.InOrStdin()
			r.Stdout = cmd.OutOrStdout()
			r.Stderr = cmd.ErrOrStderr()
			return r.Run(cmd.Context(), entry)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&run, "run", false, "run the output after a successful build (main.py for a directory)")
	cmd.Flags().StringVar(&runEntry, "run-entry", "", "run this source, relative to the build root, after building")
	return cmd
}
