package cli

import (
	"github.com/spf13/cobra"

	"typyc/pkg/config"
	"typyc/pkg/logx"
	"typyc/pkg/runner"
)

func newRunCmd() *cobra.Command {
	var (
		configFile string
		python     string
	)
	cmd := &cobra.Command{
		Use:   "run <file.py> [args...]",
		Short: "Run a generated Python file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if path == "" {
				path = config.Discover(args[0])
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if python != "" {
				cfg.Run.Python = python
			}
			lg := logx.New(cmd.ErrOrStderr(), cfg.Logging.Verbosity, cfg.Logging.Color)

			r := runner.New(cfg.Run, lg)
			r.Stdin = cmd.InOrStdin()
			r.Stdout = cmd.OutOrStdout()
			r.Stderr = cmd.ErrOrStderr()
			return r.Run(cmd.Context(), args[0], args[1:]...)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&configFile, "config", "", "config file (default "+config.DefaultFile+" beside the script if present)")
	cmd.Flags().StringVar(&python, "python", "", "interpreter to run (default from config, else python3)")
	return cmd
}
