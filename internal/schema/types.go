package schema

// Kind enumerates the primitive wire types plus the catch-all "other" kind
// used for class names and generic container expressions.
type Kind int

const (
	KindByte Kind = iota
	KindShort
	KindUnsignedShort
	KindInt
	KindVarInt
	KindVarShort
	KindVarLong
	KindBoolean
	KindDouble
	KindString
	KindNone
	KindOther
)

var primitiveNames = map[string]Kind{
	"Byte":          KindByte,
	"Short":         KindShort,
	"UnsignedShort": KindUnsignedShort,
	"Int":           KindInt,
	"VarInt":        KindVarInt,
	"VarShort":      KindVarShort,
	"VarLong":       KindVarLong,
	"Boolean":       KindBoolean,
	"Double":        KindDouble,
	"String":        KindString,
	"None":          KindNone,
}

// Type is a tagged type descriptor: either a known primitive, or Other
// carrying the raw textual name (a class name or a generic container
// expression such as "Vector<UnsignedShort,Int>").
type Type struct {
	Kind Kind
	// Name is populated for KindOther: the raw attribute type string as it
	// appeared in the schema JSON.
	Name string
}

// ParseType classifies a raw attribute type string into a primitive Kind or
// KindOther, without attempting to parse container syntax — that happens
// lazily at decode time (see typeexpr.go) so a malformed container string
// only fails the enclosing decode, not schema load.
func ParseType(raw string) Type {
	if kind, ok := primitiveNames[raw]; ok {
		return Type{Kind: kind}
	}
	return Type{Kind: KindOther, Name: raw}
}

func (t Type) IsPrimitive() bool {
	return t.Kind != KindOther
}

func (t Type) String() string {
	if t.Kind == KindOther {
		return t.Name
	}
	for name, k := range primitiveNames {
		if k == t.Kind {
			return name
		}
	}
	return "Unknown"
}
