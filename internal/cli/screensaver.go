package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/rkoesters/xdg/keyfile"
	"github.com/spf13/cobra"

	"github.com/ukui/deskprefs/internal/screensaver"
	"github.com/ukui/deskprefs/internal/settings"
	"github.com/ukui/deskprefs/internal/ui"
)

var (
	// Preview command flags
	previewWindowID uint64

	// previewLauncher replaces the process launcher when set.
	previewLauncher screensaver.Launcher
)

// screensaverCmd represents the screensaver command
var screensaverCmd = &cobra.Command{
	Use:   "screensaver",
	Short: "Show and change the screensaver settings",
	Long: `Show and change the screensaver settings.

Each subcommand operates the screensaver settings page the way a user
would: picking a mode in the combo box, moving the idle slider, typing the
display text. The resulting settings are written to the settings store.

Examples:
  # Show the current settings
  deskprefs screensaver status

  # Use a theme, by id or by name
  deskprefs screensaver mode BinaryRing

  # Start the screensaver after 15 minutes of inactivity
  deskprefs screensaver idle 15

  # Customize mode: pictures from a folder, changing every 5 minutes
  deskprefs screensaver mode customize
  deskprefs screensaver source ~/Pictures
  deskprefs screensaver cycle 5`,
}

var screensaverStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current screensaver settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withPanel(cmd, nil)
	},
}

var screensaverThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the installed screensaver themes",
	Args:  cobra.NoArgs,
	RunE:  runScreensaverThemes,
}

var screensaverModeCmd = &cobra.Command{
	Use:   "mode <mode|theme>",
	Short: "Select UKUI, Blank_Only, Customize or a theme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(cmd, func(p *screensaver.Panel) error {
			if err := requireEnabled("mode", p.ModeCombo.Enabled()); err != nil {
				return err
			}
			idx, err := p.ModeIndex(args[0])
			if err != nil {
				return err
			}
			p.ModeCombo.SetCurrentIndex(idx)
			return nil
		})
	},
}

var screensaverIdleCmd = &cobra.Command{
	Use:   "idle <5|10|15|30|60|never>",
	Short: "Set the idle time before the screensaver starts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := parseIdle(args[0])
		if err != nil {
			return err
		}
		return withPanel(cmd, func(p *screensaver.Panel) error {
			if err := requireEnabled("idle", p.IdleSlider.Enabled()); err != nil {
				return err
			}
			p.IdleSlider.SetValue(pos)
			return nil
		})
	},
}

var screensaverTextCmd = &cobra.Command{
	Use:   "text <text>",
	Short: "Set the text shown by the customized screensaver",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPanel(cmd, func(p *screensaver.Panel) error {
			if err := requireEnabled("text", p.TextEdit.Enabled()); err != nil {
				return err
			}
			p.TextEdit.SetText(args[0])
			if p.TextNotice.Visible() {
				fmt.Fprintln(cmd.ErrOrStderr(), p.TextNotice.Text())
			}
			return nil
		})
	},
}

var screensaverCenterCmd = switchCommand("center", "Center the display text",
	func(p *screensaver.Panel) *ui.Switch { return p.CenterSwitch })

var screensaverRestTimeCmd = switchCommand("rest-time", "Show the time spent resting",
	func(p *screensaver.Panel) *ui.Switch { return p.ShowRestTime })

var screensaverRandomCmd = switchCommand("random", "Show customize pictures in random order",
	func(p *screensaver.Panel) *ui.Switch { return p.RandomSwitch })

var screensaverCycleCmd = &cobra.Command{
	Use:   "cycle <1|5|10|30>",
	Short: "Set how often the customize picture changes, in minutes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := parseCycle(args[0])
		if err != nil {
			return err
		}
		return withPanel(cmd, func(p *screensaver.Panel) error {
			if err := requireEnabled("cycle", p.CycleCombo.Enabled()); err != nil {
				return err
			}
			p.CycleCombo.SetCurrentIndex(idx)
			return nil
		})
	},
}

var screensaverSourceCmd = &cobra.Command{
	Use:   "source <dir>",
	Short: "Set the picture folder of the customized screensaver",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return fmt.Errorf("not a directory: %s", dir)
		}
		// The chooser stands in for the folder dialog behind the button.
		chooser := screensaver.WithSourceChooser(func(string) string { return dir })
		return withPanel(cmd, func(p *screensaver.Panel) error {
			if err := requireEnabled("source", p.SourceButton.Enabled()); err != nil {
				return err
			}
			p.SourceButton.Click()
			return nil
		}, chooser)
	},
}

var screensaverPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Run the preview of the selected mode inside a window",
	Long: `Run the preview of the selected mode inside an existing window, given by
its X11 window id, until interrupted. Settings changed meanwhile by other
programs, or synced from another machine, update the preview.`,
	Args: cobra.NoArgs,
	RunE: runScreensaverPreview,
}

func init() {
	screensaverPreviewCmd.Flags().Uint64Var(&previewWindowID, "window-id", 0, "X11 window to draw the preview into")
	_ = screensaverPreviewCmd.MarkFlagRequired("window-id")

	screensaverCmd.AddCommand(screensaverStatusCmd)
	screensaverCmd.AddCommand(screensaverThemesCmd)
	screensaverCmd.AddCommand(screensaverModeCmd)
	screensaverCmd.AddCommand(screensaverIdleCmd)
	screensaverCmd.AddCommand(screensaverTextCmd)
	screensaverCmd.AddCommand(screensaverCenterCmd)
	screensaverCmd.AddCommand(screensaverRestTimeCmd)
	screensaverCmd.AddCommand(screensaverRandomCmd)
	screensaverCmd.AddCommand(screensaverCycleCmd)
	screensaverCmd.AddCommand(screensaverSourceCmd)
	screensaverCmd.AddCommand(screensaverPreviewCmd)
}

// switchCommand builds an on/off command toggling the switch returned by w.
func switchCommand(name, short string, w func(*screensaver.Panel) *ui.Switch) *cobra.Command {
	return &cobra.Command{
		Use:       name + " <on|off>",
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			return withPanel(cmd, func(p *screensaver.Panel) error {
				sw := w(p)
				if err := requireEnabled(name, sw.Enabled()); err != nil {
					return err
				}
				sw.SetChecked(on)
				return nil
			})
		},
	}
}

// newPanel creates the settings page for surface from the configuration and
// shows it.
func newPanel(store *settings.Store, surface *ui.Surface, extra ...screensaver.PanelOption) *screensaver.Panel {
	previewOpts := []screensaver.PreviewOption{
		screensaver.WithStopTimeout(appConfig.StopTimeout()),
		screensaver.WithPreviewLogger(logger.Named("preview")),
	}
	if previewLauncher != nil {
		previewOpts = append(previewOpts, screensaver.WithLauncher(previewLauncher))
	}

	opts := []screensaver.PanelOption{
		screensaver.WithThemeDir(appConfig.Screensaver.ThemeDir),
		screensaver.WithDefaultBinary(appConfig.Screensaver.Binary),
		screensaver.WithDialogBinary(appConfig.Screensaver.Dialog),
		screensaver.WithPanelLogger(logger.Named("screensaver")),
	}
	opts = append(opts, extra...)

	p := screensaver.NewPanel(store, screensaver.NewPreview(previewOpts...), surface, opts...)
	p.Show()
	return p
}

// withPanel shows the settings page without a preview window, runs action
// against its widgets and prints the resulting status.
func withPanel(cmd *cobra.Command, action func(p *screensaver.Panel) error, extra ...screensaver.PanelOption) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	// No window to draw into outside of preview.
	surface := ui.NewSurface(0)
	surface.Destroy()

	p := newPanel(store, surface, extra...)
	defer p.Close()

	if action != nil {
		if err := action(p); err != nil {
			return err
		}
	}
	if !quietFlag(cmd) {
		printStatus(cmd.OutOrStdout(), p.Status())
	}
	return nil
}

func requireEnabled(control string, enabled bool) error {
	if !enabled {
		return fmt.Errorf("%s is not available: its setting is not installed", control)
	}
	return nil
}

func printStatus(out io.Writer, st screensaver.Status) {
	table := newTableFor(out, "SETTING", "VALUE")
	table.AddRow([]string{"mode", st.Mode})
	if st.Theme != "" {
		table.AddRow([]string{"theme", st.Theme})
	}
	table.AddRow([]string{"idle", st.Idle})
	table.AddRow([]string{"rest-time", onOff(st.ShowRestTime)})
	if st.Customize {
		table.AddRow([]string{"source", st.Source})
		table.AddRow([]string{"cycle", st.Cycle})
		table.AddRow([]string{"random", onOff(st.Random)})
		table.AddRow([]string{"text", st.Text})
		table.AddRow([]string{"center", onOff(st.TextCenter)})
	}
	if len(st.Disabled) > 0 {
		table.AddRow([]string{"unavailable", strings.Join(st.Disabled, ", ")})
	}
	fmt.Fprint(out, table.Render())
}

// runScreensaverThemes executes the screensaver themes command.
func runScreensaverThemes(cmd *cobra.Command, _ []string) error {
	themes := screensaver.LoadThemes(appConfig.Screensaver.ThemeDir, keyfile.DefaultLocale(), logger.Named("themes"))
	out := cmd.OutOrStdout()

	table := newTableFor(out, "ID", "NAME", "EXEC")
	for _, id := range screensaver.SortedIDs(themes) {
		info := themes[id]
		table.AddRow([]string{info.ID, info.Name, info.Exec})
	}
	fmt.Fprint(out, table.Render())
	return nil
}

// runScreensaverPreview executes the screensaver preview command.
func runScreensaverPreview(cmd *cobra.Command, _ []string) error {
	if previewWindowID == 0 {
		return fmt.Errorf("--window-id must name a window")
	}
	store, err := openStore()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	surface := ui.NewSurface(previewWindowID)
	p := newPanel(store, surface)
	defer p.Close()

	loop := ui.NewLoop()
	go func() {
		if err := store.Watch(ctx, loop.Post); err != nil {
			logger.Warn("settings changes will not be followed", "error", err)
		}
	}()

	remote, err := screensaver.ConnectRemote(logger.Named("remote"))
	if err != nil {
		logger.Warn("remote settings sync unavailable", "error", err)
	} else {
		defer remote.Close()
		go func() {
			if err := remote.Run(ctx, loop.Post, p.OnRemoteKeyChanged); err != nil {
				logger.Warn("remote settings sync stopped", "error", err)
			}
		}()
	}

	p.StartPreview()
	if !quietFlag(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "Previewing %s in window %d\n", p.ModeCombo.CurrentText(), previewWindowID)
	}

	err = loop.Run(ctx)
	surface.Destroy()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// parseIdle maps an idle argument to its slider position.
func parseIdle(arg string) (int, error) {
	arg = strings.ToLower(strings.TrimSpace(arg))
	if arg == "never" {
		return screensaver.MinutesToSlider(screensaver.Never), nil
	}
	if i := slices.IndexFunc(screensaver.IdleLabels, func(l string) bool { return strings.ToLower(l) == arg }); i >= 0 {
		return screensaver.IdleSliderMin + i, nil
	}
	minutes, err := strconv.Atoi(strings.TrimSuffix(arg, "min"))
	if err == nil && minutes > 0 {
		pos := screensaver.MinutesToSlider(minutes)
		if screensaver.SliderToMinutes(pos) == minutes {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("invalid idle time %q: use 5, 10, 15, 30, 60 or never", arg)
}

// parseCycle maps a cycle argument in minutes to its combo index.
func parseCycle(arg string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(arg), "min"))
	if err == nil {
		if idx, ok := screensaver.SecondsToCycleIndex(minutes * 60); ok {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("invalid picture cycle %q: use one of %s", arg, strings.Join(screensaver.CycleLabels, ", "))
}

func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	on, err := strconv.ParseBool(arg)
	if err != nil {
		return false, fmt.Errorf("invalid switch value %q: use on or off", arg)
	}
	return on, nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
