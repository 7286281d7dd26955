package wallpaper

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const catalogDoctype = `<!DOCTYPE wallpapers SYSTEM "ukui-wp-list.dtd">`

type xmlOutCatalog struct {
	XMLName    xml.Name          `xml:"wallpapers"`
	Wallpapers []xmlOutWallpaper `xml:"wallpaper"`
}

type xmlOutWallpaper struct {
	Deleted   string `xml:"deleted,attr"`
	Name      string `xml:"name"`
	Filename  string `xml:"filename"`
	Options   string `xml:"options"`
	ShadeType string `xml:"shade_type"`
	PColor    string `xml:"pcolor"`
	SColor    string `xml:"scolor"`
	Artist    string `xml:"artist"`
}

// SaveList writes cat to the user catalog and empties it. Nothing is
// written when the catalog is empty.
func (m *Manager) SaveList(cat *Catalog) error {
	items := cat.Flatten()
	if len(items) == 0 {
		return nil
	}

	doc := xmlOutCatalog{Wallpapers: make([]xmlOutWallpaper, 0, len(items))}
	for _, it := range items {
		doc.Wallpapers = append(doc.Wallpapers, xmlOutWallpaper{
			Deleted:   strconv.FormatBool(it.Deleted),
			Name:      it.Name,
			Filename:  it.Filename,
			Options:   it.Options.String(),
			ShadeType: it.ShadeType.String(),
			PColor:    it.PrimaryColor,
			SColor:    it.SecondaryColor,
			Artist:    it.Artist,
		})
	}

	content, err := marshalCatalog(&doc)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(m.paths.UserCatalog, content); err != nil {
		return err
	}
	m.logger.Debug("saved wallpaper catalog", "path", m.paths.UserCatalog, "entries", len(items))
	return nil
}

func marshalCatalog(doc *xmlOutCatalog) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(catalogDoctype)
	buf.WriteString("\n")

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, content []byte) error {
	if path == "" {
		return fmt.Errorf("catalog path cannot be empty")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - config directory needs standard permissions
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".backgrounds-*.xml")
	if err != nil {
		return fmt.Errorf("failed to create catalog file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close catalog file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace catalog file: %w", err)
	}
	return nil
}
