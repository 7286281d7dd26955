package settings

import (
	"fmt"
	"slices"
)

// Settings reads and writes the keys of one schema.
type Settings struct {
	store  *Store
	schema *Schema
}

// SchemaID returns the schema this handle is bound to.
func (s *Settings) SchemaID() string {
	return s.schema.ID
}

// Keys returns the key names the installed schema defines.
func (s *Settings) Keys() []string {
	return s.schema.KeyNames()
}

// HasKey reports whether the installed schema defines name.
func (s *Settings) HasKey(name string) bool {
	_, ok := s.schema.Key(name)
	return ok
}

// Connect registers fn to be called with the key name after every write to a
// key of the schema, and after a reload that changed one. It returns an id
// for Disconnect.
func (s *Settings) Connect(fn func(key string)) int {
	return s.store.connect(s.schema.ID, fn)
}

// Disconnect removes a handler registered with Connect.
func (s *Settings) Disconnect(id int) {
	s.store.disconnect(s.schema.ID, id)
}

func (s *Settings) lookup(name string, want Type) (*Key, error) {
	key, ok := s.schema.Key(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownKey, s.schema.ID, name)
	}
	if key.Type != want {
		return nil, fmt.Errorf("%w: %s.%s is %s, not %s", ErrTypeMismatch, s.schema.ID, name, key.Type, want)
	}
	return key, nil
}

// Value returns the effective value of name, whatever its type.
func (s *Settings) Value(name string) (any, error) {
	key, ok := s.schema.Key(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownKey, s.schema.ID, name)
	}
	return s.store.get(s.schema.ID, key), nil
}

// Bool returns a boolean key, or false when the key is unusable.
func (s *Settings) Bool(name string) bool {
	key, err := s.lookup(name, TypeBool)
	if err != nil {
		s.store.logger.Warn("bool lookup failed", "error", err)
		return false
	}
	v, _ := s.store.get(s.schema.ID, key).(bool)
	return v
}

// SetBool writes a boolean key.
func (s *Settings) SetBool(name string, value bool) error {
	key, err := s.lookup(name, TypeBool)
	if err != nil {
		return err
	}
	return s.store.set(s.schema.ID, key, value)
}

// Int returns an integer key, or 0 when the key is unusable.
func (s *Settings) Int(name string) int {
	key, err := s.lookup(name, TypeInt)
	if err != nil {
		s.store.logger.Warn("int lookup failed", "error", err)
		return 0
	}
	v, _ := s.store.get(s.schema.ID, key).(int)
	return v
}

// SetInt writes an integer key.
func (s *Settings) SetInt(name string, value int) error {
	key, err := s.lookup(name, TypeInt)
	if err != nil {
		return err
	}
	return s.store.set(s.schema.ID, key, value)
}

// String returns a string key, or "" when the key is unusable.
func (s *Settings) String(name string) string {
	key, err := s.lookup(name, TypeString)
	if err != nil {
		s.store.logger.Warn("string lookup failed", "error", err)
		return ""
	}
	v, _ := s.store.get(s.schema.ID, key).(string)
	return v
}

// SetString writes a string key.
func (s *Settings) SetString(name, value string) error {
	key, err := s.lookup(name, TypeString)
	if err != nil {
		return err
	}
	return s.store.set(s.schema.ID, key, value)
}

// Strv returns a copy of a string-list key.
func (s *Settings) Strv(name string) []string {
	key, err := s.lookup(name, TypeStrv)
	if err != nil {
		s.store.logger.Warn("strv lookup failed", "error", err)
		return nil
	}
	v, _ := s.store.get(s.schema.ID, key).([]string)
	return slices.Clone(v)
}

// SetStrv writes a string-list key.
func (s *Settings) SetStrv(name string, value []string) error {
	key, err := s.lookup(name, TypeStrv)
	if err != nil {
		return err
	}
	if value == nil {
		value = []string{}
	}
	return s.store.set(s.schema.ID, key, slices.Clone(value))
}

// Enum returns the nick of an enum key.
func (s *Settings) Enum(name string) string {
	key, err := s.lookup(name, TypeEnum)
	if err != nil {
		s.store.logger.Warn("enum lookup failed", "error", err)
		return ""
	}
	v, _ := s.store.get(s.schema.ID, key).(string)
	return v
}

// SetEnum writes an enum key; nick must be one of the key's values.
func (s *Settings) SetEnum(name, nick string) error {
	key, err := s.lookup(name, TypeEnum)
	if err != nil {
		return err
	}
	if !slices.Contains(key.Nicks, nick) {
		return fmt.Errorf("%w: %q is not a value of %s.%s", ErrTypeMismatch, nick, s.schema.ID, name)
	}
	return s.store.set(s.schema.ID, key, nick)
}
