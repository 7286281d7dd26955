package wallpaper

import (
	"os"
	"slices"
	"strings"

	"github.com/rkoesters/xdg/keyfile"
)

// SystemLanguages returns the user's preferred message languages, most
// preferred first, always ending with "C". LANGUAGE may list several
// locales separated by colons; otherwise the first of LC_ALL, LC_MESSAGES
// and LANG is used.
func SystemLanguages() []string {
	return languagesFrom(os.Getenv)
}

func languagesFrom(getenv func(string) string) []string {
	var raw []string
	if v := getenv("LANGUAGE"); v != "" {
		raw = strings.Split(v, ":")
	}
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := getenv(name); v != "" {
			raw = append(raw, v)
			break
		}
	}

	var langs []string
	add := func(s string) {
		if s != "" && !slices.Contains(langs, s) {
			langs = append(langs, s)
		}
	}
	for _, r := range raw {
		l, err := keyfile.ParseLocale(r)
		if err != nil {
			continue
		}
		add(l.String())
		for _, v := range l.Variants() {
			add(v.String())
		}
	}
	add("C")
	return langs
}

// localizedText is one candidate value of a translatable element.
type localizedText struct {
	lang  string
	value string
}

// pickLocalized chooses the value whose language tag appears earliest in
// langs. Without a tagged match the first untagged value is used.
func pickLocalized(candidates []localizedText, langs []string) (string, bool) {
	best := -1
	var value string
	for _, c := range candidates {
		if c.lang == "" {
			continue
		}
		idx := slices.Index(langs, c.lang)
		if idx >= 0 && (best < 0 || idx < best) {
			best, value = idx, c.value
		}
	}
	if best >= 0 {
		return value, true
	}
	for _, c := range candidates {
		if c.lang == "" {
			return c.value, true
		}
	}
	return "", false
}
