// Command overlayctl talks to the resident overlay daemon over its control
// channel.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"click-overlay/src/clipboard"
	"click-overlay/src/config"
	"click-overlay/src/control"
	"click-overlay/src/geometry"
	"click-overlay/src/mode"
	"click-overlay/src/winctl"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// session is the part of control.Client the commands use.
type session interface {
	Do(ctx context.Context, req control.Request) (control.Response, error)
	Subscribe(ctx context.Context, fn func(control.Notification)) error
	Close() error
}

type cliOptions struct {
	portStart  int
	portEnd    int
	timeout    time.Duration
	jsonOutput bool

	dial     func(ctx context.Context, ports control.PortRange) (session, error)
	copyText func(text []byte) error
	displays func() []winctl.Display
}

func defaultOptions() *cliOptions {
	ports := control.DefaultPorts()
	if cfg, err := config.Load(); err == nil {
		ports = cfg.Ports
	}
	return &cliOptions{
		portStart: ports.Start,
		portEnd:   ports.End,
		timeout:   5 * time.Second,
		dial: func(ctx context.Context, ports control.PortRange) (session, error) {
			return control.Dial(ctx, ports)
		},
		copyText: clipboard.WriteText,
		displays: winctl.Displays,
	}
}

func main() {
	cmd := newRootCmd(defaultOptions())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "overlayctl",
		Short:         "Control the resident click overlay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.IntVar(&opts.portStart, "port-start", opts.portStart, "first control port")
	pf.IntVar(&opts.portEnd, "port-end", opts.portEnd, "last control port")
	pf.DurationVar(&opts.timeout, "timeout", opts.timeout, "request timeout")
	pf.BoolVar(&opts.jsonOutput, "json", false, "print raw JSON responses")

	root.AddCommand(
		newModeCmd(opts),
		simpleCmd(opts, "toggle", "Toggle between smart and full-capture mode", control.TypeToggleMode),
		simpleCmd(opts, "recompute", "Re-run shape extraction now", control.TypeRecompute),
		newStateCmd(opts),
		newBarCmd(opts),
		newDevToolsCmd(opts),
		newShapeCmd(opts),
		newWatchCmd(opts),
		newPingCmd(opts),
		newDisplaysCmd(opts),
	)
	return root
}

func (o *cliOptions) ports() control.PortRange {
	return control.PortRange{Start: o.portStart, End: o.portEnd}.Normalize()
}

// call sends one request to the resident.
func (o *cliOptions) call(ctx context.Context, req control.Request) (control.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	s, err := o.dial(ctx, o.ports())
	if err != nil {
		return control.Response{}, err
	}
	defer s.Close()
	return s.Do(ctx, req)
}

func (o *cliOptions) print(w io.Writer, resp control.Response, plain func(io.Writer)) error {
	if o.jsonOutput {
		return writeJSON(w, resp)
	}
	plain(w)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newModeCmd(opts *cliOptions) *cobra.Command {
	var sync bool
	cmd := &cobra.Command{
		Use:   "mode [smart|full-capture]",
		Short: "Show or set the interaction mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := control.Request{Type: control.TypeGetMode}
			if len(args) == 1 {
				m, err := mode.Parse(args[0])
				if err != nil {
					return err
				}
				req = control.Request{Type: control.TypeSetMode, Mode: m.String()}
				if sync {
					req.Type = control.TypeSyncMode
				}
			}
			resp, err := opts.call(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), resp, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %s\n", resp.Mode, resp.Description)
			})
		},
	}
	cmd.Flags().BoolVar(&sync, "sync", false, "record the mode without touching window flags")
	return cmd
}

func simpleCmd(opts *cliOptions, use, short, typ string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.call(cmd.Context(), control.Request{Type: typ})
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), resp, func(w io.Writer) {
				switch {
				case resp.Mode != "":
					fmt.Fprintf(w, "%s: %s\n", resp.Mode, resp.Description)
				default:
					writeRects(w, resp.Rects)
				}
			})
		},
	}
}

func newStateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print the engine state snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.call(cmd.Context(), control.Request{Type: control.TypeState})
			if err != nil {
				return err
			}
			if resp.State == nil {
				return fmt.Errorf("resident returned no state")
			}
			return writeJSON(cmd.OutOrStdout(), resp.State)
		},
	}
}

func newBarCmd(opts *cliOptions) *cobra.Command {
	var delay time.Duration
	cmd := &cobra.Command{
		Use:       "bar show|hide|toggle",
		Short:     "Drive the auto-hide control bar",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"show", "hide", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := control.Request{Type: control.TypeBar, DelayMS: delay.Milliseconds()}
			if len(args) == 1 {
				req.Action = args[0]
			} else if delay <= 0 {
				return fmt.Errorf("bar needs an action or --delay")
			}
			resp, err := opts.call(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), resp, func(w io.Writer) { fmt.Fprintln(w, "ok") })
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", 0, "set the auto-hide delay")
	return cmd
}

func newDevToolsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devtools [target]",
		Short: "Toggle developer tools for the overlay or an embedded pane",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := control.Request{Type: control.TypeDevToolsToggle}
			if len(args) == 1 {
				req.Target = args[0]
			}
			resp, err := opts.call(cmd.Context(), req)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), resp, func(w io.Writer) { fmt.Fprintln(w, "toggle requested") })
		},
	}
}

func newShapeCmd(opts *cliOptions) *cobra.Command {
	var copyOut bool
	cmd := &cobra.Command{
		Use:   "shape",
		Short: "Print the current hit-test region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.call(cmd.Context(), control.Request{Type: control.TypeState})
			if err != nil {
				return err
			}
			var rects []geometry.Rect
			if resp.State != nil {
				rects = resp.State.Shape
			}
			if copyOut {
				data, err := json.Marshal(rectsOrEmpty(rects))
				if err != nil {
					return err
				}
				if err := opts.copyText(data); err != nil {
					return fmt.Errorf("copy shape: %w", err)
				}
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), rectsOrEmpty(rects))
			}
			writeRects(cmd.OutOrStdout(), rects)
			return nil
		},
	}
	cmd.Flags().BoolVar(&copyOut, "copy", false, "also copy the rectangles to the clipboard as JSON")
	return cmd
}

func newWatchCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream mode, bar, devtools and shape notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dctx, cancel := context.WithTimeout(ctx, opts.timeout)
			s, err := opts.dial(dctx, opts.ports())
			cancel()
			if err != nil {
				return err
			}
			defer s.Close()
			out := cmd.OutOrStdout()
			return s.Subscribe(ctx, func(n control.Notification) {
				data, err := json.Marshal(n)
				if err != nil {
					return
				}
				fmt.Fprintln(out, string(data))
			})
		},
	}
}

func newPingCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Report whether a resident daemon is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			port, ok := control.DetectResident(ctx, opts.ports())
			if !ok {
				return control.ErrNoResident
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resident on port %d\n", port)
			return nil
		},
	}
}

func newDisplaysCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "displays",
		Short: "List active displays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds := opts.displays()
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), ds)
			}
			for _, d := range ds {
				var flags []string
				if d.Primary {
					flags = append(flags, "primary")
				}
				b := d.Bounds
				line := fmt.Sprintf("#%d %d,%d %dx%d %s", d.Index, b.X, b.Y, b.Width, b.Height, strings.Join(flags, " "))
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(line))
			}
			return nil
		},
	}
}

func writeRects(w io.Writer, rects []geometry.Rect) {
	if len(rects) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}
	for _, r := range rects {
		fmt.Fprintf(w, "%d %d %d %d\n", r.X, r.Y, r.Width, r.Height)
	}
}

func rectsOrEmpty(rects []geometry.Rect) []geometry.Rect {
	if rects == nil {
		return []geometry.Rect{}
	}
	return rects
}
