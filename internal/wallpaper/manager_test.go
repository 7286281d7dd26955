package wallpaper

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/ukui/deskprefs/internal/settings"
	"github.com/ukui/deskprefs/internal/thumbnail"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// touchImages creates placeholder wallpaper files and returns their paths.
func touchImages(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, n := range names {
		paths = append(paths, writeFile(t, filepath.Join(dir, n), "not really an image"))
	}
	return paths
}

func catalogXML(entries ...string) string {
	return `<?xml version="1.0"?>
<!DOCTYPE wallpapers SYSTEM "ukui-wp-list.dtd">
<wallpapers>
` + strings.Join(entries, "\n") + `
</wallpapers>
`
}

func entry(filename, name string) string {
	return fmt.Sprintf(`  <wallpaper deleted="false">
    <name>%s</name>
    <filename>%s</filename>
    <options>zoom</options>
  </wallpaper>`, name, filename)
}

func newTestManager(t *testing.T, dir string, opts ...Option) *Manager {
	t.Helper()
	paths := Paths{
		UserCatalog: filepath.Join(dir, "config", "ukui", "backgrounds.xml"),
		SystemDir:   filepath.Join(dir, "system"),
		LegacyList:  filepath.Join(dir, "home", ".gnome2", "wallpapers.list"),
	}
	opts = append([]Option{WithLanguages([]string{"C"})}, opts...)
	return NewManager(paths, thumbnail.NewFactory(), opts...)
}

func TestLoadXMLTwiceDoesNotDuplicate(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "a.png", "b.jpg", "c.png")
	path := writeFile(t, filepath.Join(dir, "list.xml"), catalogXML(
		entry(imgs[0], "A"), entry(imgs[1], "B"), entry(imgs[2], "C"),
	))

	m := newTestManager(t, dir)
	cat := NewCatalog()

	assert.Equal(t, 3, m.LoadXML(cat, path))
	assert.Equal(t, 3, cat.Len())

	assert.Equal(t, 0, m.LoadXML(cat, path))
	assert.Equal(t, 3, cat.Len())
}

func TestLoadXMLFirstEntryWins(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "a.png")
	path := writeFile(t, filepath.Join(dir, "list.xml"), catalogXML(
		entry(imgs[0], "First"), entry(imgs[0], "Second"),
	))

	m := newTestManager(t, dir)
	cat := NewCatalog()
	assert.Equal(t, 1, m.LoadXML(cat, path))

	it, ok := cat.Lookup(imgs[0])
	require.True(t, ok)
	assert.Equal(t, "First", it.Name)
}

func TestSaveListRoundTrip(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "a.png", "b.png")
	src := writeFile(t, filepath.Join(dir, "list.xml"), catalogXML(
		`  <wallpaper deleted="true">
    <name>Alpha</name>
    <filename>`+imgs[0]+`</filename>
    <options>centered</options>
    <shade_type>vertical-gradient</shade_type>
    <pcolor>#112233</pcolor>
    <scolor>#445566</scolor>
    <artist>Jane</artist>
  </wallpaper>`,
		entry(imgs[1], "Beta"),
		`  <wallpaper deleted="false">
    <name>No Desktop Background</name>
    <filename>(none)</filename>
  </wallpaper>`,
	))

	m := newTestManager(t, dir)
	cat := NewCatalog()
	require.Equal(t, 3, m.LoadXML(cat, src))
	before := cat.Items()

	require.NoError(t, m.SaveList(cat))
	assert.Zero(t, cat.Len(), "save empties the catalog")

	content, err := os.ReadFile(m.Paths().UserCatalog)
	require.NoError(t, err)
	assert.Contains(t, string(content), `<!DOCTYPE wallpapers SYSTEM "ukui-wp-list.dtd">`)

	reloaded := NewCatalog()
	m.LoadList(reloaded)
	require.Equal(t, len(before), reloaded.Len())

	for _, want := range before {
		got, ok := reloaded.Lookup(want.Filename)
		require.True(t, ok, want.Filename)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Artist, got.Artist)
		assert.Equal(t, want.Options, got.Options)
		assert.Equal(t, want.ShadeType, got.ShadeType)
		assert.Equal(t, want.Deleted, got.Deleted)
		assert.Equal(t, PlaceholderColor, got.PrimaryColor)
		assert.Equal(t, PlaceholderColor, got.SecondaryColor)
	}

	alpha, _ := reloaded.Lookup(imgs[0])
	assert.True(t, alpha.Deleted)
	assert.Equal(t, OptionsCentered, alpha.Options)
	assert.Equal(t, ShadingVertical, alpha.ShadeType)
	assert.Equal(t, "Jane", alpha.Artist)
}

func TestSaveListEmptyWritesNothing(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir)

	require.NoError(t, m.SaveList(NewCatalog()))
	_, err := os.Stat(m.Paths().UserCatalog)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSaveListElementOrder(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "a.png")
	m := newTestManager(t, dir)
	cat := NewCatalog()
	require.True(t, m.ImportCandidate(cat, imgs[0]))
	require.NoError(t, m.SaveList(cat))

	content, err := os.ReadFile(m.Paths().UserCatalog)
	require.NoError(t, err)
	s := string(content)

	last := -1
	for _, tag := range []string{"<name>", "<filename>", "<options>", "<shade_type>", "<pcolor>", "<scolor>", "<artist>"} {
		idx := strings.Index(s, tag)
		require.Greater(t, idx, last, tag)
		last = idx
	}
	assert.Contains(t, s, `<wallpaper deleted="false">`)
	assert.Contains(t, s, "\n  <wallpaper")
}

func TestLoadXMLRejectsMissingFilename(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "a.png")

	tests := []struct {
		name  string
		entry string
	}{
		{"no filename element", `<wallpaper><name>X</name></wallpaper>`},
		{"empty filename element", `<wallpaper><filename></filename><name>X</name></wallpaper>`},
		{"self-closing filename", `<wallpaper><filename/><name>X</name></wallpaper>`},
		{"blank filename", `<wallpaper><filename>   </filename></wallpaper>`},
		{"empty name stops scan", `<wallpaper><name></name><filename>` + imgs[0] + `</filename></wallpaper>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, filepath.Join(t.TempDir(), "list.xml"), catalogXML(tt.entry))
			m := newTestManager(t, dir)
			cat := NewCatalog()
			assert.Equal(t, 0, m.LoadXML(cat, path))
			assert.Zero(t, cat.Len())
		})
	}
}

func TestLoadXMLRejectsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "list.xml"), catalogXML(
		entry(filepath.Join(dir, "gone.png"), "Gone"),
		`<wallpaper deleted="false"><filename>(none)</filename></wallpaper>`,
	))

	m := newTestManager(t, dir)
	cat := NewCatalog()
	assert.Equal(t, 1, m.LoadXML(cat, path))
	assert.False(t, cat.Contains(filepath.Join(dir, "gone.png")))

	none, ok := cat.Lookup(NoneFilename)
	require.True(t, ok)
	assert.Equal(t, thumbnail.NoneName, none.Name)
	assert.True(t, none.IsNone())
	assert.Equal(t, thumbnail.NoneName, none.Description())
}

type failingResolver struct{}

func (failingResolver) Lookup(path string) (*thumbnail.Info, error) {
	return nil, fmt.Errorf("cannot resolve %s", path)
}

func TestLoadXMLDropsUnresolvable(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "a.png")
	path := writeFile(t, filepath.Join(dir, "list.xml"), catalogXML(entry(imgs[0], "A")))

	m := NewManager(Paths{}, failingResolver{}, WithLanguages([]string{"C"}))
	cat := NewCatalog()
	assert.Equal(t, 0, m.LoadXML(cat, path))
}

func TestLoadXMLMissingOrMalformed(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir)
	cat := NewCatalog()

	assert.Equal(t, 0, m.LoadXML(cat, filepath.Join(dir, "missing.xml")))
	bad := writeFile(t, filepath.Join(dir, "bad.xml"), "<wallpapers><wallpaper>")
	assert.Equal(t, 0, m.LoadXML(cat, bad))
	assert.Zero(t, cat.Len())
}

func TestNameResolution(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "sunset.png")

	tests := []struct {
		name  string
		langs []string
		names string
		want  string
	}{
		{
			name:  "untagged only",
			langs: []string{"de", "C"},
			names: `<name>Sunset</name>`,
			want:  "Sunset",
		},
		{
			name:  "first preferred language wins",
			langs: []string{"zh_CN", "zh", "C"},
			names: `<name>Sunset</name><name xml:lang="zh">日落 zh</name><name xml:lang="zh_CN">日落</name>`,
			want:  "日落",
		},
		{
			name:  "fallback to later language",
			langs: []string{"fr_FR", "fr", "C"},
			names: `<name xml:lang="de">Sonnenuntergang</name><name xml:lang="fr">Coucher</name><name>Sunset</name>`,
			want:  "Coucher",
		},
		{
			name:  "no tagged match uses untagged",
			langs: []string{"ja", "C"},
			names: `<name xml:lang="de">Sonnenuntergang</name><name>Sunset</name>`,
			want:  "Sunset",
		},
		{
			name:  "no usable name falls back to file name",
			langs: []string{"ja", "C"},
			names: `<name xml:lang="de">Sonnenuntergang</name>`,
			want:  "sunset.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, filepath.Join(t.TempDir(), "list.xml"), catalogXML(
				`<wallpaper deleted="false">`+tt.names+`<filename>`+imgs[0]+`</filename></wallpaper>`,
			))
			m := NewManager(Paths{}, thumbnail.NewFactory(), WithLanguages(tt.langs))
			cat := NewCatalog()
			require.Equal(t, 1, m.LoadXML(cat, path))
			it, _ := cat.Lookup(imgs[0])
			assert.Equal(t, tt.want, it.Name)
		})
	}
}

func TestLoadXMLFieldsAndDefaults(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "a.png", "b.png", "c.png")
	path := writeFile(t, filepath.Join(dir, "list.xml"), catalogXML(
		`<wallpaper deleted="TRUE"><filename>`+imgs[0]+`</filename><text>ignored</text><bogus>x</bogus></wallpaper>`,
		`<wallpaper deleted="1"><filename>`+imgs[1]+`</filename><options>stretched</options><shade_type>horizontal-gradient</shade_type></wallpaper>`,
		`<wallpaper><filename>`+imgs[2]+`</filename><options></options></wallpaper>`,
	))

	store := settings.NewStore(settings.Builtin())
	bg, err := store.Settings(settings.BackgroundSchema)
	require.NoError(t, err)
	require.NoError(t, bg.SetEnum("picture-options", "scaled"))
	require.NoError(t, bg.SetEnum("color-shading-type", "vertical-gradient"))

	m := newTestManager(t, dir, WithBackgroundSettings(bg))
	cat := NewCatalog()
	require.Equal(t, 3, m.LoadXML(cat, path))

	a, _ := cat.Lookup(imgs[0])
	assert.True(t, a.Deleted)
	assert.Equal(t, OptionsScaled, a.Options)
	assert.Equal(t, ShadingVertical, a.ShadeType)
	assert.Equal(t, NoneArtist, a.Artist)
	assert.Equal(t, "a.png", a.Name)

	b, _ := cat.Lookup(imgs[1])
	assert.True(t, b.Deleted)
	assert.Equal(t, OptionsStretched, b.Options)
	assert.Equal(t, ShadingHorizontal, b.ShadeType)

	c, _ := cat.Lookup(imgs[2])
	assert.False(t, c.Deleted)
	assert.Equal(t, OptionsScaled, c.Options)
}

func TestDefaultsWithoutSettings(t *testing.T) {
	m := NewManager(Paths{}, thumbnail.NewFactory(), WithLanguages([]string{"C"}))
	opts, shade := m.defaults()
	assert.Equal(t, OptionsZoom, opts)
	assert.Equal(t, ShadingSolid, shade)
}

func TestColorParsing(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "a.png")
	path := writeFile(t, filepath.Join(dir, "list.xml"), catalogXML(
		`<wallpaper><filename>`+imgs[0]+`</filename><pcolor>#1a2b3c</pcolor><scolor>bogus</scolor></wallpaper>`,
	))

	m := newTestManager(t, dir, WithColorParsing(true))
	cat := NewCatalog()
	require.Equal(t, 1, m.LoadXML(cat, path))
	it, _ := cat.Lookup(imgs[0])
	assert.Equal(t, "#1a1a2b2b3c3c", it.PrimaryColor)
	assert.Equal(t, PlaceholderColor, it.SecondaryColor)
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#fff", "#ffffffffffff", true},
		{"#102030", "#101020203030", true},
		{"#AABBCCDDEEFF", "#aabbccddeeff", true},
		{"#12345", "", false},
		{"123456", "", false},
		{"#gggggg", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normalizeColor(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadXMLCompressed(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "a.png", "b.png")
	doc := catalogXML(entry(imgs[0], "A"), entry(imgs[1], "B"))

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xw.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, xw.Close())

	files := map[string][]byte{
		"list.xml":    []byte(doc),
		"list.xml.gz": gz.Bytes(),
		"list.xml.xz": xzBuf.Bytes(),
	}

	m := newTestManager(t, dir)
	var want []string
	for name, data := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, data, 0o644))
			cat := NewCatalog()
			require.Equal(t, 2, m.LoadXML(cat, path))
			if want == nil {
				want = cat.Filenames()
			}
			assert.Equal(t, want, cat.Filenames())
		})
	}
}

func TestLoadListUserCatalogIsExclusive(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "user.png", "system.png")
	m := newTestManager(t, dir)

	writeFile(t, m.Paths().UserCatalog, catalogXML(entry(imgs[0], "User")))
	writeFile(t, filepath.Join(m.Paths().SystemDir, "system.xml"), catalogXML(entry(imgs[1], "System")))
	writeFile(t, m.Paths().LegacyList, imgs[1]+"\n")

	cat := NewCatalog()
	m.LoadList(cat)
	assert.Equal(t, []string{imgs[0]}, cat.Filenames())
}

func TestLoadListSystemAndLegacy(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "one.png", "two.png", "three.png")

	mon, err := NewMonitor(nil)
	require.NoError(t, err)
	t.Cleanup(func() { mon.Close() })

	m := newTestManager(t, dir, WithMonitor(mon))
	sys := m.Paths().SystemDir
	writeFile(t, filepath.Join(sys, "ukui.xml"), catalogXML(entry(imgs[0], "One")))
	writeFile(t, filepath.Join(sys, "README"), "not a catalog")
	writeFile(t, m.Paths().LegacyList, strings.Join([]string{
		imgs[0],
		imgs[1],
		"",
		filepath.Join(dir, "missing.png"),
		imgs[2],
	}, "\n")+"\n")

	cat := NewCatalog()
	m.LoadList(cat)

	assert.Equal(t, []string{imgs[0], imgs[2], imgs[1]}, cat.Filenames())
	one, _ := cat.Lookup(imgs[0])
	assert.Equal(t, "One", one.Name)
	two, _ := cat.Lookup(imgs[1])
	assert.Equal(t, "two.png", two.Name)
	assert.Equal(t, NoneArtist, two.Artist)
	assert.Equal(t, PlaceholderColor, two.PrimaryColor)

	assert.Equal(t, []string{filepath.Clean(sys)}, mon.Dirs())
}

func TestImportCandidate(t *testing.T) {
	dir := t.TempDir()
	imgs := touchImages(t, dir, "a.png")
	m := newTestManager(t, dir)
	cat := NewCatalog()

	assert.False(t, m.ImportCandidate(cat, ""))
	assert.False(t, m.ImportCandidate(cat, filepath.Join(dir, "missing.png")))
	assert.True(t, m.ImportCandidate(cat, imgs[0]))
	assert.False(t, m.ImportCandidate(cat, imgs[0]), "duplicate")
	assert.True(t, m.ImportCandidate(cat, NoneFilename))
	assert.Equal(t, 2, cat.Len())
}

func TestLanguagesFrom(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{"unset", nil, []string{"C"}},
		{
			"lang with encoding",
			map[string]string{"LANG": "zh_CN.UTF-8"},
			[]string{"zh_CN.UTF-8", "zh_CN", "zh", "C"},
		},
		{
			"language list",
			map[string]string{"LANGUAGE": "de_AT:de", "LANG": "en_US.UTF-8"},
			[]string{"de_AT", "de", "en_US.UTF-8", "en_US", "en", "C"},
		},
		{
			"lc_all beats lang",
			map[string]string{"LC_ALL": "fr_FR", "LANG": "en_US"},
			[]string{"fr_FR", "fr", "C"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := languagesFrom(func(k string) string { return tt.env[k] })
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPickLocalized(t *testing.T) {
	_, ok := pickLocalized(nil, []string{"C"})
	assert.False(t, ok)

	got, ok := pickLocalized([]localizedText{{value: "first"}, {value: "second"}}, []string{"C"})
	assert.True(t, ok)
	assert.Equal(t, "first", got)
}

func TestItemDescription(t *testing.T) {
	it := &Item{
		Filename: "/usr/share/backgrounds/a.png",
		Name:     "Alpha",
		Artist:   "Jane",
		Info:     &thumbnail.Info{MimeType: "image/png", Width: 1920, Height: 1080},
	}
	assert.Equal(t, "Alpha\nimage/png, 1920 × 1080 pixels\nFolder: /usr/share/backgrounds\nArtist: Jane", it.Description())
}

func TestParseOptionsAndShading(t *testing.T) {
	for _, o := range []Options{OptionsWallpaper, OptionsCentered, OptionsScaled, OptionsStretched, OptionsZoom, OptionsSpanned, OptionsNone} {
		assert.Equal(t, o, ParseOptions(o.String()))
	}
	assert.Equal(t, OptionsWallpaper, ParseOptions("tiled"))

	for _, s := range []Shading{ShadingSolid, ShadingHorizontal, ShadingVertical} {
		assert.Equal(t, s, ParseShading(s.String()))
	}
	assert.Equal(t, ShadingSolid, ParseShading(""))
}
