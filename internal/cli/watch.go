package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modernmen/collectiongen/internal/watch"
)

func (a *app) newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <definitions>",
		Short: "Regenerate whenever the definitions file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd)
			if err != nil {
				return err
			}
			file := args[0]
			if err := a.generate(cmd.Context(), cfg, file, nil, false); err != nil {
				a.ui.Error(err)
			}
			w, err := watch.New([]string{file}, watch.WithLogger(a.log))
			if err != nil {
				return err
			}
			a.ui.Info("watching %s (ctrl-c to stop)", file)
			return w.Run(cmd.Context(), func(ctx context.Context, _ []string) error {
				a.log.Debug("definitions changed", zap.String("file", file))
				if err := a.generate(ctx, cfg, file, nil, false); err != nil {
					a.ui.Error(err)
				}
				return nil
			})
		},
	}
	addConfigFlags(cmd)
	return cmd
}
