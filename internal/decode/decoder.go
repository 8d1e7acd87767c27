// Package decode walks a schema.Class against a cursor.Cursor and produces
// an ordered attribute map, recursing into parent classes and generic
// container types as the catalog describes them.
package decode

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vahor/dofuscap/internal/cursor"
	"github.com/vahor/dofuscap/internal/schema"
)

// Attr is one decoded (name, value) pair, kept in declaration order. Value
// holds the Go type the cursor read returns for primitives
// (byte/int16/uint16/uint32/uint64/float64/bool/string, or nil for None),
// []Attr for nested classes, or []any for vectors.
type Attr struct {
	Name  string
	Value any
}

// Message is the decoded result: the schema id and name it was decoded
// against, plus its ordered attributes (parent attributes first).
type Message struct {
	ID         uint16
	Name       string
	Attributes []Attr
}

// UnknownParentTypeError is returned when a class's parent (or a nested
// class/vector element type) names a class absent from the registry.
type UnknownParentTypeError struct {
	Name string
}

func (e *UnknownParentTypeError) Error() string {
	return fmt.Sprintf("decode: unknown parent type %q", e.Name)
}

// UnknownPacketTypeError is returned when the top-level frame id has no
// matching schema entry.
type UnknownPacketTypeError struct {
	ID uint16
}

func (e *UnknownPacketTypeError) Error() string {
	return fmt.Sprintf("decode: unknown packet type %d", e.ID)
}

// FailedToParseAttributeError wraps a panic or bounds error encountered
// while decoding a single attribute, naming the attribute's declared type
// so the caller can tell which field of the message was unreadable.
type FailedToParseAttributeError struct {
	Type string
	Err  error
}

func (e *FailedToParseAttributeError) Error() string {
	return fmt.Sprintf("decode: failed to parse attribute of type %q: %v", e.Type, e.Err)
}

func (e *FailedToParseAttributeError) Unwrap() error { return e.Err }

// Decoder decodes messages against a schema registry.
type Decoder struct {
	registry *schema.Registry
	log      *zap.Logger
}

// New builds a Decoder bound to a registry.
func New(registry *schema.Registry, log *zap.Logger) *Decoder {
	return &Decoder{registry: registry, log: log}
}

// Decode parses the class named by id out of cur. Leftover bytes in cur
// after decoding are logged at debug level, not treated as an error —
// trailing unparsed data is common when a server uses a newer catalog
// than the one loaded locally.
func (d *Decoder) Decode(id uint16, cur *cursor.Cursor) (*Message, error) {
	class, ok := d.registry.Get(id)
	if !ok {
		return nil, &UnknownPacketTypeError{ID: id}
	}

	attrs, err := d.decodeClass(class, cur)
	if err != nil {
		return nil, err
	}

	if cur.Remaining() > 0 {
		d.log.Debug("leftover bytes after decode",
			zap.Uint16("id", id), zap.String("class", class.Name), zap.Int("remaining", cur.Remaining()))
	}

	return &Message{ID: id, Name: class.Name, Attributes: attrs}, nil
}

// decodeClass recurses into the parent class first (regardless of whether
// the parent itself has a registered id — only its name needs to resolve),
// then walks this class's own attributes in declaration order.
func (d *Decoder) decodeClass(class *schema.Class, cur *cursor.Cursor) ([]Attr, error) {
	var attrs []Attr

	if class.Parent != "" {
		parent, ok := d.registry.GetByName(class.Parent)
		if !ok {
			return nil, &UnknownParentTypeError{Name: class.Parent}
		}
		parentAttrs, err := d.decodeClass(parent, cur)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, parentAttrs...)
	}

	for _, a := range class.Attributes {
		value, err := d.decodeAttribute(a.Type, cur)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attr{Name: a.Name, Value: value})
	}

	return attrs, nil
}

// decodeAttribute dispatches one (name-less) type descriptor to a cursor
// read, a class lookup, or a container expansion. Bounds errors from a
// truncated cursor read, and any panic the dispatch otherwise triggers,
// are surfaced as FailedToParseAttributeError so one bad attribute cannot
// kill the whole capture loop. Class-resolution failures (an unknown
// parent/element type name) are left as UnknownParentTypeError, a
// distinct taxonomy from a bounds overflow.
func (d *Decoder) decodeAttribute(t schema.Type, cur *cursor.Cursor) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &FailedToParseAttributeError{Type: t.String(), Err: fmt.Errorf("%v", r)}
		}
	}()

	if t.IsPrimitive() {
		v, perr := d.decodePrimitive(t, cur)
		if perr != nil {
			return nil, &FailedToParseAttributeError{Type: t.String(), Err: perr}
		}
		return v, nil
	}

	if container := schema.ParseContainer(t.Name); container.Kind != schema.ContainerNone {
		return d.decodeContainer(container, cur)
	}

	class, ok := d.registry.GetByName(t.Name)
	if !ok {
		return nil, &UnknownParentTypeError{Name: t.Name}
	}
	attrs, err := d.decodeClass(class, cur)
	if err != nil {
		return nil, err
	}
	return attrs, nil
}

func (d *Decoder) decodePrimitive(t schema.Type, cur *cursor.Cursor) (any, error) {
	switch t.Kind {
	case schema.KindByte:
		return cur.ReadByte()
	case schema.KindShort:
		return cur.ReadShort()
	case schema.KindUnsignedShort:
		return cur.ReadUnsignedShort()
	case schema.KindInt:
		return cur.ReadInt()
	case schema.KindVarInt:
		return cur.ReadVarInt()
	case schema.KindVarShort:
		return cur.ReadVarShort()
	case schema.KindVarLong:
		return cur.ReadVarLong()
	case schema.KindBoolean:
		return cur.ReadBoolean()
	case schema.KindDouble:
		return cur.ReadDouble()
	case schema.KindString:
		return cur.ReadUTF()
	case schema.KindNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("decode: unhandled primitive kind %v", t.Kind)
	}
}

// decodeContainer expands Vector<LEN,ELEM>, TypeIdVector<LEN,ELEM> and
// TypeId<T>. Only UnsignedShort is supported as a vector length type,
// matching the catalog's own generator output; any other length type
// fails with FailedToParseAttributeError naming that length type.
func (d *Decoder) decodeContainer(c schema.Container, cur *cursor.Cursor) (any, error) {
	switch c.Kind {
	case schema.ContainerTypeID:
		return d.decodeAttribute(c.Elem, cur)

	case schema.ContainerVector, schema.ContainerTypeIDVector:
		if c.Length.Kind != schema.KindUnsignedShort {
			return nil, &FailedToParseAttributeError{
				Type: c.Length.String(),
				Err:  fmt.Errorf("decode: unsupported vector length type %q", c.Length.String()),
			}
		}
		count, err := cur.ReadUnsignedShort()
		if err != nil {
			return nil, &FailedToParseAttributeError{Type: c.Length.String(), Err: err}
		}
		elems := make([]any, 0, count)
		for i := uint16(0); i < count; i++ {
			v, err := d.decodeAttribute(c.Elem, cur)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return elems, nil

	default:
		return nil, fmt.Errorf("decode: unknown container kind %v", c.Kind)
	}
}
