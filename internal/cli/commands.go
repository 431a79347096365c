package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tinytelemetry/odometer/internal/odometer"
)

func newListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the hosted displays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(func(c Client) error {
				names, err := c.ListDisplays()
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), opts.Format, names, strings.Join(names, "\n"))
			})
		},
	}
}

func newGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <display>",
		Short: "Show a display's value and digits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(func(c Client) error {
				snap, err := c.Snapshot(args[0])
				if err != nil {
					return err
				}
				return emit(cmd.OutOrStdout(), opts.Format, snap, describe(snap))
			})
		},
	}
}

func newSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <display> <value>",
		Short: "Jump a display to a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return invoke(cmd, opts, args[0], "set", v)
		},
	}
}

// newMethodCommand builds a command for an argument-less controller method.
func newMethodCommand(opts *RootOptions, method string) *cobra.Command {
	return &cobra.Command{
		Use:   method + " <display>",
		Short: strings.ToUpper(method[:1]) + method[1:] + " a display",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(cmd, opts, args[0], method, 0)
		},
	}
}

// newStepCommand builds increment or decrement; the amount defaults to 1.
func newStepCommand(opts *RootOptions, method string) *cobra.Command {
	return &cobra.Command{
		Use:   method + " <display> [amount]",
		Short: strings.ToUpper(method[:1]) + method[1:] + " a display by an amount (default 1)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount := 1.0
			if len(args) == 2 {
				v, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				amount = v
			}
			return invoke(cmd, opts, args[0], method, amount)
		},
	}
}

func newOptionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "option",
		Short: "Read or write a display option",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <display> <option>",
		Short: "Read an option",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(func(c Client) error {
				v, err := c.Option(args[0], args[1])
				if err != nil {
					return err
				}
				data := map[string]any{"option": args[1], "value": v}
				return emit(cmd.OutOrStdout(), opts.Format, data, formatOption(v))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <display> <option> <value>",
		Short: "Write an option; structural options redraw the display",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withClient(func(c Client) error {
				if err := c.SetOption(args[0], args[1], args[2]); err != nil {
					return err
				}
				data := map[string]any{"option": args[1], "value": args[2]}
				return emit(cmd.OutOrStdout(), opts.Format, data, "ok")
			})
		},
	})

	return cmd
}

func invoke(cmd *cobra.Command, opts *RootOptions, name, method string, arg float64) error {
	return opts.withClient(func(c Client) error {
		v, err := c.Invoke(name, method, arg)
		if err != nil {
			return err
		}
		data := map[string]any{"display": name, "method": method, "value": v}
		return emit(cmd.OutOrStdout(), opts.Format, data, formatValue(v))
	})
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOption(v any) string {
	if v == nil {
		return "null"
	}
	if f, ok := v.(float64); ok {
		return formatValue(f)
	}
	return fmt.Sprint(v)
}

func describe(s odometer.Snapshot) string {
	state := "stopped"
	if s.Active {
		state = "running " + string(s.Direction)
	}
	return fmt.Sprintf("%s  %s  (%s, %s)", s.Name, s.Text(), formatValue(s.Value), state)
}
