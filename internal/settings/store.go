package settings

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/pelletier/go-toml/v2"
)

var (
	// ErrSchemaNotInstalled is returned when a schema is not part of the store.
	ErrSchemaNotInstalled = errors.New("schema not installed")

	// ErrUnknownKey is returned for keys the schema does not define.
	ErrUnknownKey = errors.New("unknown key")

	// ErrTypeMismatch is returned when a value does not fit the key's type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence and watch diagnostics.
func WithLogger(logger hclog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store holds the installed schemas and their current values.
//
// A Store is not safe for concurrent use; it belongs to the goroutine that
// drives the panels. Store.Watch hands external changes to that goroutine.
type Store struct {
	schemas  map[string]*Schema
	values   map[string]map[string]any
	handlers map[string]*handlerList
	path     string
	logger   hclog.Logger
}

type handlerList struct {
	nextID int
	fns    []keyHandler
}

type keyHandler struct {
	id int
	fn func(key string)
}

// NewStore creates an in-memory store with the given schemas installed.
func NewStore(schemas []Schema, opts ...Option) *Store {
	s := &Store{
		schemas:  make(map[string]*Schema, len(schemas)),
		values:   make(map[string]map[string]any),
		handlers: make(map[string]*handlerList),
		logger:   hclog.NewNullLogger(),
	}
	for i := range schemas {
		sc := schemas[i]
		s.schemas[sc.ID] = &sc
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store persisted at path, loading existing values if the
// file exists.
func Open(path string, schemas []Schema, opts ...Option) (*Store, error) {
	s := NewStore(schemas, opts...)
	s.path = path

	values, err := s.readFile()
	if err != nil {
		return nil, err
	}
	s.values = values
	return s, nil
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// IsSchemaInstalled reports whether id is part of the store.
func (s *Store) IsSchemaInstalled(id string) bool {
	_, ok := s.schemas[id]
	return ok
}

// Schemas returns the installed schema ids in sorted order.
func (s *Store) Schemas() []string {
	return slices.Sorted(maps.Keys(s.schemas))
}

// Settings returns a handle for reading and writing keys of schema id.
func (s *Store) Settings(id string) (*Settings, error) {
	sc, ok := s.schemas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSchemaNotInstalled, id)
	}
	return &Settings{store: s, schema: sc}, nil
}

func (s *Store) get(schemaID string, key *Key) any {
	if vals, ok := s.values[schemaID]; ok {
		if v, ok := vals[key.Name]; ok {
			return v
		}
	}
	return key.Default
}

func (s *Store) set(schemaID string, key *Key, value any) error {
	vals, ok := s.values[schemaID]
	if !ok {
		vals = make(map[string]any)
		s.values[schemaID] = vals
	}
	prev, had := vals[key.Name]
	vals[key.Name] = value

	if err := s.persist(); err != nil {
		if had {
			vals[key.Name] = prev
		} else {
			delete(vals, key.Name)
		}
		return err
	}
	s.notify(schemaID, key.Name)
	return nil
}

func (s *Store) connect(schemaID string, fn func(string)) int {
	hl, ok := s.handlers[schemaID]
	if !ok {
		hl = &handlerList{}
		s.handlers[schemaID] = hl
	}
	hl.nextID++
	hl.fns = append(hl.fns, keyHandler{id: hl.nextID, fn: fn})
	return hl.nextID
}

func (s *Store) disconnect(schemaID string, id int) {
	hl, ok := s.handlers[schemaID]
	if !ok {
		return
	}
	hl.fns = slices.DeleteFunc(hl.fns, func(h keyHandler) bool { return h.id == id })
}

func (s *Store) notify(schemaID, key string) {
	hl, ok := s.handlers[schemaID]
	if !ok {
		return
	}
	fns := slices.Clone(hl.fns)
	for _, h := range fns {
		h.fn(key)
	}
}

// persist writes every non-default value to the backing file.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}

	doc := make(map[string]map[string]any, len(s.values))
	for id, vals := range s.values {
		if len(vals) > 0 {
			doc[id] = vals
		}
	}

	content, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil { // #nosec G301 - config directory needs standard permissions
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close settings file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace settings file: %w", err)
	}

	s.logger.Debug("settings saved", "path", s.path)
	return nil
}

// readFile parses the backing file. Values for unknown schemas or keys and
// values of the wrong type are skipped with a warning.
func (s *Store) readFile() (map[string]map[string]any, error) {
	values := make(map[string]map[string]any)
	if s.path == "" {
		return values, nil
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var doc map[string]map[string]any
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	for id, raw := range doc {
		sc, ok := s.schemas[id]
		if !ok {
			continue
		}
		vals := make(map[string]any, len(raw))
		for name, v := range raw {
			key, ok := sc.Key(name)
			if !ok {
				s.logger.Warn("ignoring unknown settings key", "schema", id, "key", name)
				continue
			}
			nv, err := normalize(key, v)
			if err != nil {
				s.logger.Warn("ignoring invalid settings value", "schema", id, "key", name, "error", err)
				continue
			}
			vals[name] = nv
		}
		values[id] = vals
	}
	return values, nil
}

// Reload re-reads the backing file and emits changed for every key whose
// effective value differs from the one held in memory.
func (s *Store) Reload() error {
	values, err := s.readFile()
	if err != nil {
		return err
	}

	type change struct{ schema, key string }
	var changes []change
	for _, id := range s.Schemas() {
		sc := s.schemas[id]
		for i := range sc.Keys {
			key := &sc.Keys[i]
			before := s.get(id, key)
			after := key.Default
			if v, ok := values[id][key.Name]; ok {
				after = v
			}
			if !equalValues(before, after) {
				changes = append(changes, change{id, key.Name})
			}
		}
	}

	s.values = values
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].schema < changes[j].schema })
	for _, c := range changes {
		s.logger.Debug("external settings change", "schema", c.schema, "key", c.key)
		s.notify(c.schema, c.key)
	}
	return nil
}

func normalize(key *Key, v any) (any, error) {
	switch key.Type {
	case TypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s wants bool", ErrTypeMismatch, key.Name)
		}
		return b, nil
	case TypeInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		default:
			return nil, fmt.Errorf("%w: %s wants int", ErrTypeMismatch, key.Name)
		}
	case TypeString:
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s wants string", ErrTypeMismatch, key.Name)
		}
		return str, nil
	case TypeStrv:
		switch list := v.(type) {
		case []string:
			return slices.Clone(list), nil
		case []any:
			out := make([]string, 0, len(list))
			for _, item := range list {
				str, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: %s wants string list", ErrTypeMismatch, key.Name)
				}
				out = append(out, str)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("%w: %s wants string list", ErrTypeMismatch, key.Name)
		}
	case TypeEnum:
		str, ok := v.(string)
		if !ok || !slices.Contains(key.Nicks, str) {
			return nil, fmt.Errorf("%w: %s wants one of %v", ErrTypeMismatch, key.Name, key.Nicks)
		}
		return str, nil
	default:
		return nil, fmt.Errorf("%w: %s has unsupported type", ErrTypeMismatch, key.Name)
	}
}

func equalValues(a, b any) bool {
	as, aok := a.([]string)
	bs, bok := b.([]string)
	if aok || bok {
		return aok && bok && slices.Equal(as, bs)
	}
	return a == b
}
