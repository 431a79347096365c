// Package cli implements odometerctl, a cobra client for a running odometer
// service.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/odometer/internal/model"
	"github.com/tinytelemetry/odometer/internal/socketrpc"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Client is a display API with a connection to release.
type Client interface {
	model.DisplayAPI
	Close() error
}

// Connector opens a client for a socket path.
type Connector func(socketPath string) (Client, error)

// DialSocket connects to the service's unix socket.
func DialSocket(socketPath string) (Client, error) {
	c, err := socketrpc.Dial(socketPath)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	SocketPath string
	Format     string // "json" | "text"

	connect Connector
}

// NewRootCommand creates the odometerctl root command. A nil connect dials
// the unix socket.
func NewRootCommand(connect Connector) *cobra.Command {
	if connect == nil {
		connect = DialSocket
	}
	opts := &RootOptions{connect: connect}

	cmd := &cobra.Command{
		Use:           "odometerctl",
		Short:         "Drive the displays of a running odometer service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.SocketPath, "socket", socketrpc.DefaultSocketPath(), "service socket path")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newSetCommand(opts))
	for _, method := range []string{"start", "stop", "reset", "reverse", "redraw"} {
		cmd.AddCommand(newMethodCommand(opts, method))
	}
	cmd.AddCommand(newStepCommand(opts, "increment"))
	cmd.AddCommand(newStepCommand(opts, "decrement"))
	cmd.AddCommand(newOptionCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))

	return cmd
}

// withClient runs fn against a fresh connection.
func (o *RootOptions) withClient(fn func(Client) error) error {
	client, err := o.connect(o.SocketPath)
	if err != nil {
		return fmt.Errorf("cannot connect to odometer service at %s: %w", o.SocketPath, err)
	}
	defer client.Close()
	return fn(client)
}
