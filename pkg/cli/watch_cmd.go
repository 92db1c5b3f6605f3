package cli

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jlrickert/mdedit/pkg/log"
	"github.com/jlrickert/mdedit/pkg/markdown"
)

// NewWatchCmd returns the `watch` cobra command: revalidate a file on every
// change and emit one validate record per change.
func NewWatchCmd() *cobra.Command {
	var autofixPreview bool

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "revalidate a markdown file whenever it changes",
		Long: `Watch validates the file once, then again after every write. Editors
commonly replace files by rename, so the parent directory is watched and
events are filtered to the target path. One JSON record is printed per
validation; the command runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			target, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			if err := watcher.Add(filepath.Dir(target)); err != nil {
				return err
			}

			res := markdown.Validate(ctx, target, autofixPreview)
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(event.Name) != target {
						continue
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
						continue
					}
					logger.Debug("file changed", "path", target, "op", event.Op.String())
					res := markdown.Validate(ctx, target, autofixPreview)
					if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
						return err
					}
				case werr, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Warn("watch error", "error", werr)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&autofixPreview, "autofix-preview", false, "include a formatted preview on each validation")

	return cmd
}
