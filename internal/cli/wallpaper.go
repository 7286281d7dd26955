package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ukui/deskprefs/internal/settings"
	"github.com/ukui/deskprefs/internal/thumbnail"
	"github.com/ukui/deskprefs/internal/ui"
	"github.com/ukui/deskprefs/internal/wallpaper"
)

var (
	// Catalog location overrides shared by the wallpaper commands
	wallpaperUserCatalog string
	wallpaperSystemDir   string
	wallpaperLegacyList  string

	// List command flags
	wallpaperListAll      bool
	wallpaperListDescribe bool
)

// wallpaperCmd represents the wallpaper command
var wallpaperCmd = &cobra.Command{
	Use:   "wallpaper",
	Short: "Inspect and edit the wallpaper catalog",
	Long: `Inspect and edit the wallpaper catalog.

The catalog is read from the per-user wallpaper database when it exists.
Otherwise the system wallpaper lists and the legacy flat list are merged.
Entries whose file is missing are dropped, and the first entry for a file
wins over later duplicates.

Examples:
  # List the catalog
  deskprefs wallpaper list

  # Add two pictures and save the catalog
  deskprefs wallpaper import ~/Pictures/sea.jpg ~/Pictures/night.png

  # Follow changes to the system wallpaper lists
  deskprefs wallpaper watch`,
}

var wallpaperListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the wallpapers in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runWallpaperList,
}

var wallpaperSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write the merged catalog to the per-user wallpaper database",
	Args:  cobra.NoArgs,
	RunE:  runWallpaperSave,
}

var wallpaperImportCmd = &cobra.Command{
	Use:   "import <path>...",
	Short: "Add picture files to the catalog and save it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWallpaperImport,
}

var wallpaperWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Merge wallpaper lists as they are added or changed",
	Args:  cobra.NoArgs,
	RunE:  runWallpaperWatch,
}

func init() {
	addCatalogFlags(wallpaperCmd.PersistentFlags())

	wallpaperListCmd.Flags().BoolVarP(&wallpaperListAll, "all", "a", false, "include entries marked as deleted")
	wallpaperListCmd.Flags().BoolVarP(&wallpaperListDescribe, "describe", "d", false, "print the full description of every entry")

	wallpaperCmd.AddCommand(wallpaperListCmd)
	wallpaperCmd.AddCommand(wallpaperSaveCmd)
	wallpaperCmd.AddCommand(wallpaperImportCmd)
	wallpaperCmd.AddCommand(wallpaperWatchCmd)
}

// addCatalogFlags registers the catalog location overrides on fs.
func addCatalogFlags(fs *pflag.FlagSet) {
	fs.StringVar(&wallpaperUserCatalog, "user-catalog", "", "per-user wallpaper database (default from config)")
	fs.StringVar(&wallpaperSystemDir, "system-dir", "", "directory of system wallpaper lists (default from config)")
	fs.StringVar(&wallpaperLegacyList, "legacy-list", "", "legacy flat wallpaper list (default from config)")
}

// catalogPaths returns the configured catalog locations with flag overrides
// applied.
func catalogPaths() wallpaper.Paths {
	paths := wallpaper.Paths{
		UserCatalog: appConfig.Wallpaper.UserCatalog,
		SystemDir:   appConfig.Wallpaper.SystemDir,
		LegacyList:  appConfig.Wallpaper.LegacyList,
	}
	if wallpaperUserCatalog != "" {
		paths.UserCatalog = wallpaperUserCatalog
	}
	if wallpaperSystemDir != "" {
		paths.SystemDir = wallpaperSystemDir
	}
	if wallpaperLegacyList != "" {
		paths.LegacyList = wallpaperLegacyList
	}
	return paths
}

// openStore opens the settings store named in the configuration.
func openStore() (*settings.Store, error) {
	store, err := settings.Open(appConfig.Settings.File, settings.Builtin(), settings.WithLogger(logger.Named("settings")))
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return store, nil
}

// newWallpaperManager builds a manager from the configuration. The monitor,
// when requested, must be closed by the caller.
func newWallpaperManager(withMonitor bool) (*wallpaper.Manager, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	bg, err := store.Settings(settings.BackgroundSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to open background settings: %w", err)
	}

	factory := thumbnail.NewFactory(
		thumbnail.WithThumbnails(appConfig.Wallpaper.Thumbnails, appConfig.Wallpaper.RunThumbnailer),
		thumbnail.WithSize(appConfig.Wallpaper.ThumbnailSize),
		thumbnail.WithLogger(logger.Named("thumbnail")),
	)

	opts := []wallpaper.Option{
		wallpaper.WithLogger(logger.Named("wallpaper")),
		wallpaper.WithBackgroundSettings(bg),
		wallpaper.WithColorParsing(appConfig.Wallpaper.ParseColors),
	}
	if withMonitor {
		mon, err := wallpaper.NewMonitor(logger.Named("monitor"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, wallpaper.WithMonitor(mon))
	}
	return wallpaper.NewManager(catalogPaths(), factory, opts...), nil
}

// loadCatalog builds a manager and loads the merged catalog.
func loadCatalog() (*wallpaper.Manager, *wallpaper.Catalog, error) {
	m, err := newWallpaperManager(false)
	if err != nil {
		return nil, nil, err
	}
	cat := wallpaper.NewCatalog()
	m.LoadList(cat)
	return m, cat, nil
}

// runWallpaperList executes the wallpaper list command.
func runWallpaperList(cmd *cobra.Command, _ []string) error {
	_, cat, err := loadCatalog()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var items []*wallpaper.Item
	for _, item := range cat.Items() {
		if item.Deleted && !wallpaperListAll {
			continue
		}
		items = append(items, item)
	}

	if wallpaperListDescribe {
		for i, item := range items {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, item.Description())
		}
		return nil
	}

	table := newTableFor(out, "NAME", "OPTIONS", "SIZE", "FILE")
	table.SetColumnMaxWidth(0, 40)
	for _, item := range items {
		table.AddRow([]string{item.Name, item.Options.String(), itemSize(item), item.Filename})
	}
	fmt.Fprint(out, table.Render())

	if !quietFlag(cmd) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d wallpapers\n", table.Len())
	}
	return nil
}

func itemSize(item *wallpaper.Item) string {
	if item.Info == nil || item.Info.Width == 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", item.Info.Width, item.Info.Height)
}

// runWallpaperSave executes the wallpaper save command.
func runWallpaperSave(cmd *cobra.Command, _ []string) error {
	m, cat, err := loadCatalog()
	if err != nil {
		return err
	}
	n := cat.Len()
	if err := m.SaveList(cat); err != nil {
		return err
	}
	if !quietFlag(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %d wallpapers to %s\n", n, m.Paths().UserCatalog)
	}
	return nil
}

// runWallpaperImport executes the wallpaper import command.
func runWallpaperImport(cmd *cobra.Command, args []string) error {
	m, cat, err := loadCatalog()
	if err != nil {
		return err
	}

	added := 0
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", arg, err)
		}
		if m.ImportCandidate(cat, path) {
			added++
			continue
		}
		logger.Warn("not imported: missing, unreadable or already listed", "path", path)
	}

	if err := m.SaveList(cat); err != nil {
		return err
	}
	if !quietFlag(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d files\n", added, len(args))
	}
	return nil
}

// runWallpaperWatch executes the wallpaper watch command.
func runWallpaperWatch(cmd *cobra.Command, _ []string) error {
	m, err := newWallpaperManager(true)
	if err != nil {
		return err
	}
	mon := m.Monitor()
	defer mon.Close()

	cat := wallpaper.NewCatalog()
	m.LoadList(cat)

	// Only the system directory is registered by LoadList; with a user
	// catalog in place, follow its directory instead.
	if len(mon.Dirs()) == 0 {
		if err := mon.Add(filepath.Dir(m.Paths().UserCatalog)); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Watching %v (%d wallpapers)\n", mon.Dirs(), cat.Len())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := ui.NewLoop()
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- m.Watch(ctx, cat, loop.Post, func(path string, added int) {
			fmt.Fprintf(out, "%s: %d added, %d total\n", path, added, cat.Len())
		})
		stop()
	}()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return <-watchErr
}

func quietFlag(cmd *cobra.Command) bool {
	quiet, _ := cmd.Flags().GetBool("quiet")
	return quiet
}
