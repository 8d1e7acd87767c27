package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Attribute is one (name, type) pair from a class's attribute list, kept in
// the insertion order it appeared in the catalog JSON: decode order is
// significant and must match the source file, not Go's unordered map
// iteration.
type Attribute struct {
	Name string
	Type Type
}

// Class is one decoded schema catalog entry.
type Class struct {
	ID         uint16
	Name       string
	Parent     string // empty if this class has no parent
	Attributes []Attribute
}

// rawEntry mirrors one catalog JSON object before the attribute map is
// flattened into an ordered slice. Attributes is decoded manually in
// UnmarshalJSON to preserve source order.
type rawEntry struct {
	ID         *int
	Name       string
	Parent     string
	Attributes []Attribute
}

func (r *rawEntry) UnmarshalJSON(data []byte) error {
	var shape struct {
		ID        json.RawMessage `json:"id"`
		ClassName string          `json:"class_name"`
		Parent    string          `json:"superclass"`
		RawAttrs  json.RawMessage `json:"attributes"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}
	// "id" may be a JSON number or a string holding one.
	if len(shape.ID) > 0 && string(shape.ID) != "null" {
		idText := string(shape.ID)
		var s string
		if json.Unmarshal(shape.ID, &s) == nil {
			idText = s
		}
		n, err := strconv.Atoi(idText)
		if err != nil {
			return fmt.Errorf("schema: class %q: id %s is not an integer", shape.ClassName, shape.ID)
		}
		r.ID = &n
	}
	r.Name = shape.ClassName
	r.Parent = shape.Parent

	if len(shape.RawAttrs) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(shape.RawAttrs))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("schema: attributes: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("schema: attributes must be an object")
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("schema: attributes key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("schema: attributes key is not a string")
		}
		var typeName string
		if err := dec.Decode(&typeName); err != nil {
			return fmt.Errorf("schema: attribute %q value: %w", key, err)
		}
		r.Attributes = append(r.Attributes, Attribute{Name: key, Type: ParseType(typeName)})
	}
	return nil
}

// Registry is a thread-safe, hot-reloadable schema catalog indexed by both
// numeric class id and class name.
type Registry struct {
	mu      sync.RWMutex
	byID    map[uint16]*Class
	byName  map[string]*Class
	path    string
	log     *zap.Logger
	watcher *fsnotify.Watcher
}

// Load reads a JSON array of schema entries from path and builds the id and
// name indexes. Exactly one entry may omit "id"; it is assigned id 0 as the
// synthetic root class. I/O and JSON errors are returned directly.
func Load(path string, log *zap.Logger) (*Registry, error) {
	r := &Registry{path: path, log: log}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("schema: read %s: %w", r.path, err)
	}

	var entries []rawEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("schema: decode %s: %w", r.path, err)
	}

	byID := make(map[uint16]*Class, len(entries))
	byName := make(map[string]*Class, len(entries))
	rootAssigned := false

	for _, e := range entries {
		var id uint16
		if e.ID == nil {
			if rootAssigned {
				return fmt.Errorf("schema: more than one entry without an id")
			}
			rootAssigned = true
			id = 0
		} else {
			id = uint16(*e.ID)
		}
		class := &Class{ID: id, Name: e.Name, Parent: e.Parent, Attributes: e.Attributes}
		byID[id] = class
		byName[e.Name] = class
	}

	r.mu.Lock()
	r.byID = byID
	r.byName = byName
	r.mu.Unlock()
	return nil
}

// Get looks up a class by numeric id.
func (r *Registry) Get(id uint16) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	return c, ok
}

// GetByName looks up a class by name.
func (r *Registry) GetByName(name string) (*Class, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

// IDOf returns the numeric id registered for a class name.
func (r *Registry) IDOf(name string) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	return c.ID, true
}

// Classes returns a snapshot of every loaded class, in no particular
// order.
func (r *Registry) Classes() []*Class {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Class, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out
}

// Watch starts an fsnotify watch on the catalog file and reloads on every
// write event. A reload that fails to parse logs a warning and leaves the
// previously loaded indexes in place — callers keep decoding against the
// last-good catalog rather than losing schema mid-capture.
func (r *Registry) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("schema: watcher: %w", err)
	}
	if err := w.Add(r.path); err != nil {
		w.Close()
		return fmt.Errorf("schema: watch %s: %w", r.path, err)
	}
	r.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := r.reload(); err != nil {
					r.log.Warn("schema hot-reload failed, keeping previous catalog",
						zap.String("path", r.path), zap.Error(err))
					continue
				}
				r.log.Info("schema catalog reloaded", zap.String("path", r.path))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.log.Warn("schema watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

// Close stops the hot-reload watcher, if one was started.
func (r *Registry) Close() error {
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Close()
}
