package schema

import "strings"

// ContainerKind distinguishes the three generic container forms recognized
// in attribute type expressions.
type ContainerKind int

const (
	ContainerNone ContainerKind = iota
	ContainerVector
	ContainerTypeIDVector
	ContainerTypeID
)

// Container is the result of lazily parsing a KindOther type's textual name
// for one of the three generic container forms. Only Elem is populated for
// TypeId<T>; Length and Elem are populated for the two vector forms.
type Container struct {
	Kind   ContainerKind
	Length Type
	Elem   Type
}

// ParseContainer recognizes "Vector<LEN,ELEM>", "TypeIdVector<LEN,ELEM>" and
// "TypeId<T>" by textual prefix, splitting the inner expression on the
// first comma for the vector forms. Returns ContainerNone if name is not
// one of these three forms (it is then a bare class name).
//
// This is pure string manipulation performed at decode time, not at schema
// load time, exactly mirroring the source catalog's lazy type resolution:
// a malformed container expression only fails the enclosing decode.
func ParseContainer(name string) Container {
	switch {
	case strings.HasPrefix(name, "Vector<") && strings.HasSuffix(name, ">"):
		inner := trimOuter(name, "Vector<")
		length, elem, ok := splitOnce(inner)
		if !ok {
			return Container{}
		}
		return Container{Kind: ContainerVector, Length: ParseType(length), Elem: ParseType(elem)}

	case strings.HasPrefix(name, "TypeIdVector<") && strings.HasSuffix(name, ">"):
		inner := trimOuter(name, "TypeIdVector<")
		length, elem, ok := splitOnce(inner)
		if !ok {
			return Container{}
		}
		return Container{Kind: ContainerTypeIDVector, Length: ParseType(length), Elem: ParseType(elem)}

	case strings.HasPrefix(name, "TypeId<") && strings.HasSuffix(name, ">"):
		inner := trimOuter(name, "TypeId<")
		return Container{Kind: ContainerTypeID, Elem: ParseType(strings.TrimSpace(inner))}
	}
	return Container{}
}

func trimOuter(name, prefix string) string {
	inner := strings.TrimPrefix(name, prefix)
	inner = strings.TrimSuffix(inner, ">")
	return inner
}

// splitOnce splits "A,B" on the first comma, trimming surrounding
// whitespace from each side. It fails if there is no comma.
func splitOnce(s string) (a, b string, ok bool) {
	idx := strings.IndexByte(s, ',')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:]), true
}
