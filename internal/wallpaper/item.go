// Package wallpaper loads, merges and saves the wallpaper catalog: the set of
// background images offered by the appearance panel.
//
// A catalog is read from the user's XML database when present, otherwise
// assembled from the system directory of XML lists plus the legacy flat list.
// Entries are keyed by filename; the first entry seen for a filename wins.
package wallpaper

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ukui/deskprefs/internal/thumbnail"
)

// NoneFilename is the sentinel filename of the "no background" entry.
const NoneFilename = "(none)"

// NoneArtist is the artist recorded when an entry names none.
const NoneArtist = "(none)"

// PlaceholderColor is written for both colors of every entry; stored colors
// are not parsed unless color parsing is explicitly enabled.
const PlaceholderColor = "#000000000000"

// Options is the picture placement of a wallpaper.
type Options int

// Placement values.
const (
	OptionsWallpaper Options = iota // tiled
	OptionsCentered
	OptionsScaled
	OptionsStretched
	OptionsZoom
	OptionsSpanned
	OptionsNone
)

var optionNames = map[Options]string{
	OptionsWallpaper: "wallpaper",
	OptionsCentered:  "centered",
	OptionsScaled:    "scaled",
	OptionsStretched: "stretched",
	OptionsZoom:      "zoom",
	OptionsSpanned:   "spanned",
	OptionsNone:      "none",
}

func (o Options) String() string {
	if s, ok := optionNames[o]; ok {
		return s
	}
	return optionNames[OptionsWallpaper]
}

// ParseOptions converts a stored placement name. Unknown names mean tiled.
func ParseOptions(s string) Options {
	for o, name := range optionNames {
		if name == s {
			return o
		}
	}
	return OptionsWallpaper
}

// Shading is the background color shading type.
type Shading int

// Shading values.
const (
	ShadingSolid Shading = iota
	ShadingHorizontal
	ShadingVertical
)

func (s Shading) String() string {
	switch s {
	case ShadingHorizontal:
		return "horizontal-gradient"
	case ShadingVertical:
		return "vertical-gradient"
	default:
		return "solid"
	}
}

// ParseShading converts a stored shading name; unknown names mean solid.
func ParseShading(s string) Shading {
	switch s {
	case "horizontal-gradient":
		return ShadingHorizontal
	case "vertical-gradient":
		return ShadingVertical
	default:
		return ShadingSolid
	}
}

// Item is one wallpaper catalog entry.
type Item struct {
	Filename       string
	Name           string
	Options        Options
	ShadeType      Shading
	PrimaryColor   string
	SecondaryColor string
	Artist         string
	Deleted        bool

	// Info is resolved when the entry is loaded; entries without it are
	// never part of a catalog.
	Info *thumbnail.Info
}

// IsNone reports whether the item is the "no background" entry.
func (it *Item) IsNone() bool {
	return it.Filename == NoneFilename
}

// Description is the multi-line caption shown under the thumbnail.
func (it *Item) Description() string {
	if it.IsNone() || it.Info == nil {
		return it.Name
	}

	var b strings.Builder
	b.WriteString(it.Name)
	b.WriteString("\n")
	if it.Info.Width > 0 && it.Info.Height > 0 {
		fmt.Fprintf(&b, "%s, %d × %d pixels\n", it.Info.MimeType, it.Info.Width, it.Info.Height)
	} else {
		fmt.Fprintf(&b, "%s\n", it.Info.MimeType)
	}
	fmt.Fprintf(&b, "Folder: %s", filepath.Dir(it.Filename))
	if it.Artist != "" && it.Artist != NoneArtist {
		fmt.Fprintf(&b, "\nArtist: %s", it.Artist)
	}
	return b.String()
}
