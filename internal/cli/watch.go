package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

const defaultWatchInterval = 250 * time.Millisecond

type watchOptions struct {
	*RootOptions
	Interval time.Duration
	Count    int
}

func newWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &watchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <display>",
		Short: "Print a display's digits whenever they change",
		Long: `Poll a display and print its digits whenever they change.

Watching ends on interrupt, after --count changes, or once a stopped display
has been printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(func(c Client) error {
				return watch(cmd, opts, c, args[0])
			})
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", defaultWatchInterval, "poll interval")
	cmd.Flags().IntVar(&opts.Count, "count", 0, "stop after this many changes (0 = unlimited)")

	return cmd
}

func watch(cmd *cobra.Command, opts *watchOptions, c Client, name string) error {
	if opts.Interval <= 0 {
		return fmt.Errorf("invalid --interval %s", opts.Interval)
	}
	ctx := cmd.Context()

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	last := ""
	printed := 0
	for {
		snap, err := c.Snapshot(name)
		if err != nil {
			return err
		}
		if text := snap.Text(); text != last {
			last = text
			printed++
			if err := emit(cmd.OutOrStdout(), opts.Format, snap, describe(snap)); err != nil {
				return err
			}
		}
		if !snap.Active || (opts.Count > 0 && printed >= opts.Count) {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
