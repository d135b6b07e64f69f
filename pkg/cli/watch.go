package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"typyc/pkg/logx"
	"typyc/pkg/watch"
)

func newWatchCmd() *cobra.Command {
	var f compileFlags
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Build a directory, then rebuild sources as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			cfg, err := f.load(cmd, dir)
			if err != nil {
				return err
			}
			lg := logx.New(cmd.ErrOrStderr(), cfg.Logging.Verbosity, cfg.Logging.Color)

			b, err := newBuilder(cfg, dir, lg, nil)
			if err != nil {
				return err
			}
			if _, err := b.Build(cmd.Context()); err != nil {
				lg.Errorf("%v", err)
			}

			skip := ""
			if cfg.Build.OutputDir != "" {
				if skip, err = filepath.Abs(cfg.Build.OutputDir); err != nil {
					return err
				}
			}
			w, err := watch.New(watch.Options{
				Dir:      b.RootDir(),
				Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
				Skip:     skip,
				Log:      lg,
			})
			if err != nil {
				return err
			}
			defer w.Close()

			return w.Run(cmd.Context(), func(ctx context.Context, changed []string) {
				only := make(map[string]bool, len(changed))
				for _, p := range changed {
					only[p] = true
				}
				b, err := newBuilder(cfg, dir, lg, only)
				if err != nil {
					lg.Errorf("%v", err)
					return
				}
				if _, err := b.Build(ctx); err != nil {
					lg.Errorf("%v", err)
				}
			})
		},
	}
	f.register(cmd)
	return cmd
}
