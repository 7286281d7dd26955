package wallpaper

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/ukui/deskprefs/internal/compression"
	"github.com/ukui/deskprefs/internal/settings"
	"github.com/ukui/deskprefs/internal/thumbnail"
)

// Paths locates the catalog sources.
type Paths struct {
	// UserCatalog is the per-user XML database, read exclusively when it
	// exists and written by SaveList.
	UserCatalog string
	// SystemDir holds the distribution's XML lists.
	SystemDir string
	// LegacyList is a flat file with one wallpaper path per line.
	LegacyList string
}

// Resolver resolves file metadata for catalog entries.
type Resolver interface {
	Lookup(path string) (*thumbnail.Info, error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger hclog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLanguages overrides the preferred language chain used to pick
// localized names.
func WithLanguages(langs []string) Option {
	return func(m *Manager) {
		m.languages = langs
	}
}

// WithBackgroundSettings reads default placement and shading from the
// desktop background schema.
func WithBackgroundSettings(bg *settings.Settings) Option {
	return func(m *Manager) {
		m.background = bg
	}
}

// WithColorParsing makes LoadXML keep well-formed pcolor and scolor values
// instead of the placeholder.
func WithColorParsing(enabled bool) Option {
	return func(m *Manager) {
		m.parseColors = enabled
	}
}

// WithMonitor sets the monitor that scanned directories are registered with.
func WithMonitor(mon *Monitor) Option {
	return func(m *Manager) {
		m.monitor = mon
	}
}

// Manager loads and saves wallpaper catalogs.
type Manager struct {
	paths       Paths
	resolver    Resolver
	background  *settings.Settings
	languages   []string
	parseColors bool
	monitor     *Monitor
	logger      hclog.Logger
}

// NewManager creates a manager reading from paths.
func NewManager(paths Paths, resolver Resolver, opts ...Option) *Manager {
	m := &Manager{
		paths:    paths,
		resolver: resolver,
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.languages == nil {
		m.languages = SystemLanguages()
	}
	return m
}

// Paths returns the configured locations.
func (m *Manager) Paths() Paths {
	return m.paths
}

// Monitor returns the directory monitor, or nil when none is set.
func (m *Manager) Monitor() *Monitor {
	return m.monitor
}

func (m *Manager) defaults() (Options, Shading) {
	opts, shade := OptionsZoom, ShadingSolid
	if m.background == nil {
		return opts, shade
	}
	if m.background.HasKey("picture-options") {
		opts = ParseOptions(m.background.Enum("picture-options"))
	}
	if m.background.HasKey("color-shading-type") {
		shade = ParseShading(m.background.Enum("color-shading-type"))
	}
	return opts, shade
}

// LoadList fills cat. When the user catalog exists it is the only source;
// otherwise every catalog file in the system directory is loaded and the
// legacy list imported.
func (m *Manager) LoadList(cat *Catalog) {
	if fileExists(m.paths.UserCatalog) {
		n := m.LoadXML(cat, m.paths.UserCatalog)
		m.logger.Debug("loaded user catalog", "path", m.paths.UserCatalog, "added", n)
		return
	}

	m.loadDir(cat, m.paths.SystemDir)
	m.LoadLegacy(cat)
}

func (m *Manager) loadDir(cat *Catalog, dir string) {
	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		m.logger.Debug("skipping wallpaper directory", "dir", dir, "error", err)
		return
	}

	for _, e := range entries {
		if !e.Type().IsRegular() || !compression.IsCatalogFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		n := m.LoadXML(cat, path)
		m.logger.Debug("loaded catalog file", "path", path, "added", n)
	}

	if m.monitor != nil {
		if err := m.monitor.Add(dir); err != nil {
			m.logger.Warn("failed to monitor wallpaper directory", "dir", dir, "error", err)
		}
	}
}

type xmlCatalog struct {
	Wallpapers []xmlWallpaper `xml:"wallpaper"`
}

type xmlWallpaper struct {
	Deleted string     `xml:"deleted,attr"`
	Fields  []xmlField `xml:",any"`
}

type xmlField struct {
	XMLName xml.Name
	Lang    string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Content string `xml:",chardata"`
}

func readCatalog(path string) (*xmlCatalog, error) {
	rc, err := compression.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var doc xmlCatalog
	if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &doc, nil
}

// LoadXML adds the entries of one catalog file to cat and returns how many
// were inserted. A missing or malformed file adds nothing.
func (m *Manager) LoadXML(cat *Catalog, path string) int {
	doc, err := readCatalog(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.logger.Debug("ignoring catalog file", "path", path, "error", err)
		}
		return 0
	}

	added := 0
	for i := range doc.Wallpapers {
		item, explicitName := m.parseWallpaper(&doc.Wallpapers[i], path)
		if m.admit(cat, item, explicitName) {
			added++
		}
	}
	return added
}

func (m *Manager) parseWallpaper(wp *xmlWallpaper, path string) (*Item, bool) {
	opts, shade := m.defaults()
	item := &Item{
		Options:        opts,
		ShadeType:      shade,
		PrimaryColor:   PlaceholderColor,
		SecondaryColor: PlaceholderColor,
		Artist:         NoneArtist,
		Deleted:        parseDeleted(wp.Deleted),
	}

	var names []localizedText
scan:
	for _, f := range wp.Fields {
		text := strings.TrimSpace(f.Content)
		switch f.XMLName.Local {
		case "filename":
			if f.Content == "" {
				break scan
			}
			item.Filename = text
		case "name":
			if f.Content == "" {
				break scan
			}
			names = append(names, localizedText{lang: f.Lang, value: text})
		case "options":
			if f.Content != "" {
				item.Options = ParseOptions(text)
			}
		case "shade_type":
			if f.Content != "" {
				item.ShadeType = ParseShading(text)
			}
		case "pcolor":
			item.PrimaryColor = m.color(text)
		case "scolor":
			item.SecondaryColor = m.color(text)
		case "artist":
			if f.Content != "" {
				item.Artist = text
			}
		case "text":
		default:
			m.logger.Warn("unknown tag in wallpaper catalog", "tag", f.XMLName.Local, "path", path)
		}
	}

	name, ok := pickLocalized(names, m.languages)
	if ok {
		item.Name = name
	}
	return item, ok && name != ""
}

func (m *Manager) color(s string) string {
	if !m.parseColors {
		return PlaceholderColor
	}
	if c, ok := normalizeColor(s); ok {
		return c
	}
	return PlaceholderColor
}

// ImportCandidate adds path to cat as a minimal entry with default fields.
func (m *Manager) ImportCandidate(cat *Catalog, path string) bool {
	opts, shade := m.defaults()
	item := &Item{
		Filename:       path,
		Options:        opts,
		ShadeType:      shade,
		PrimaryColor:   PlaceholderColor,
		SecondaryColor: PlaceholderColor,
		Artist:         NoneArtist,
	}
	return m.admit(cat, item, false)
}

// admit resolves item and inserts it. Items without a filename, already
// cataloged, or whose file cannot be resolved are dropped.
func (m *Manager) admit(cat *Catalog, item *Item, explicitName bool) bool {
	if item.Filename == "" || cat.Contains(item.Filename) {
		return false
	}

	if item.IsNone() {
		item.Info = thumbnail.NoneInfo()
	} else {
		if !fileExists(item.Filename) {
			m.logger.Debug("wallpaper file missing", "path", item.Filename)
			return false
		}
		info, err := m.resolver.Lookup(item.Filename)
		if err != nil {
			m.logger.Debug("failed to resolve wallpaper", "path", item.Filename, "error", err)
			return false
		}
		item.Info = info
	}

	if !explicitName || item.IsNone() {
		item.Name = item.Info.Name
	}
	return cat.insert(item)
}

// LoadLegacy imports every path listed in the legacy list file.
func (m *Manager) LoadLegacy(cat *Catalog) int {
	if m.paths.LegacyList == "" {
		return 0
	}
	f, err := os.Open(m.paths.LegacyList)
	if err != nil {
		return 0
	}
	defer f.Close()

	added := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if m.ImportCandidate(cat, line) {
			added++
		}
	}
	if err := sc.Err(); err != nil {
		m.logger.Warn("failed to read legacy wallpaper list", "path", m.paths.LegacyList, "error", err)
	}
	return added
}

func parseDeleted(s string) bool {
	return strings.EqualFold(s, "true") || s == "1"
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// normalizeColor accepts #rgb, #rrggbb and #rrrrggggbbbb and returns the
// 16-bit-per-channel form.
func normalizeColor(s string) (string, bool) {
	if !strings.HasPrefix(s, "#") {
		return "", false
	}
	hex := strings.ToLower(s[1:])
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return "", false
		}
	}

	var width int
	switch len(hex) {
	case 3:
		width = 1
	case 6:
		width = 2
	case 12:
		width = 4
	default:
		return "", false
	}

	var b strings.Builder
	b.WriteByte('#')
	for i := 0; i < 3; i++ {
		ch := hex[i*width : (i+1)*width]
		for b.Len() < 1+(i+1)*4 {
			b.WriteString(ch)
		}
	}
	return b.String(), true
}
