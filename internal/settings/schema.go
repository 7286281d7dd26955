// Package settings implements a schema-backed key/value store for desktop
// preferences.
//
// Every key belongs to a schema that fixes its type and default. Values that
// differ from the default can be persisted to a TOML file shared between
// processes; changes made by another process are picked up by Store.Watch.
package settings

import "slices"

// Schema identifiers used by the panels.
const (
	ScreensaverSchema        = "org.ukui.screensaver"
	SessionSchema            = "org.ukui.session"
	ScreensaverDefaultSchema = "org.ukui.screensaver-default"
	BackgroundSchema         = "org.mate.background"
)

// Type is the value type of a key.
type Type int

// Supported key types.
const (
	TypeBool Type = iota
	TypeInt
	TypeString
	TypeStrv
	TypeEnum
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeStrv:
		return "strv"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Key describes one schema key.
type Key struct {
	Name    string
	Type    Type
	Default any
	// Nicks lists the allowed values of an enum key, in enum order.
	Nicks []string
}

// Schema is a named set of keys.
type Schema struct {
	ID   string
	Keys []Key
}

// Key returns the key definition with the given name.
func (s *Schema) Key(name string) (*Key, bool) {
	for i := range s.Keys {
		if s.Keys[i].Name == name {
			return &s.Keys[i], true
		}
	}
	return nil, false
}

// KeyNames returns the key names in definition order.
func (s *Schema) KeyNames() []string {
	names := make([]string, 0, len(s.Keys))
	for _, k := range s.Keys {
		names = append(names, k.Name)
	}
	return names
}

// Without returns a copy of the schema lacking the named keys. It is used to
// model older installations that do not ship every key.
func (s Schema) Without(names ...string) Schema {
	out := Schema{ID: s.ID}
	for _, k := range s.Keys {
		if !slices.Contains(names, k.Name) {
			out.Keys = append(out.Keys, k)
		}
	}
	return out
}

// Screensaver mode nicks, in enum order.
var screensaverModes = []string{"blank-only", "random", "single", "image", "default-ukui", "customize"}

// Builtin returns the schemas known to the panels.
func Builtin() []Schema {
	return []Schema{
		{
			ID: ScreensaverSchema,
			Keys: []Key{
				{Name: "mode", Type: TypeEnum, Default: "default-ukui", Nicks: screensaverModes},
				{Name: "themes", Type: TypeStrv, Default: []string{}},
				{Name: "lock-enabled", Type: TypeBool, Default: true},
				{Name: "idle-activation-enabled", Type: TypeBool, Default: true},
				{Name: "automatic-switching-enabled", Type: TypeBool, Default: false},
				{Name: "mytext", Type: TypeString, Default: ""},
				{Name: "text-is-center", Type: TypeBool, Default: true},
				{Name: "show-rest-time", Type: TypeBool, Default: true},
			},
		},
		{
			ID: SessionSchema,
			Keys: []Key{
				{Name: "idle-delay", Type: TypeInt, Default: 5},
			},
		},
		{
			ID: ScreensaverDefaultSchema,
			Keys: []Key{
				{Name: "background-path", Type: TypeString, Default: "/usr/share/backgrounds"},
				{Name: "cycle-time", Type: TypeInt, Default: 300},
			},
		},
		{
			ID: BackgroundSchema,
			Keys: []Key{
				{Name: "picture-options", Type: TypeEnum, Default: "zoom",
					Nicks: []string{"none", "wallpaper", "centered", "scaled", "stretched", "zoom", "spanned"}},
				{Name: "color-shading-type", Type: TypeEnum, Default: "solid",
					Nicks: []string{"solid", "horizontal-gradient", "vertical-gradient"}},
				{Name: "primary-color", Type: TypeString, Default: "#000000000000"},
				{Name: "secondary-color", Type: TypeString, Default: "#000000000000"},
			},
		},
	}
}

// BuiltinSchema returns the built-in schema with the given id.
func BuiltinSchema(id string) (Schema, bool) {
	for _, s := range Builtin() {
		if s.ID == id {
			return s, true
		}
	}
	return Schema{}, false
}
