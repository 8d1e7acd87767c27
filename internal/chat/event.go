// Package chat implements the chat feature: it subscribes to
// ChatServerMessage-family frames, projects them into Event, routes
// them through per-tab filters, and fans the result out to a SQLite
// history store and a WebSocket broadcaster.
package chat

import "github.com/vahor/dofuscap/internal/decode"

// Event is the flattened view of a decoded chat message the rest of the
// feature operates on.
type Event struct {
	Channel    uint8
	SenderName string
	Content    string
	Timestamp  uint32
	Objects    []map[string]string
}

// FromMessage projects the subset of fields chat cares about out of a
// decoded message's attribute list. Missing or mistyped fields are left
// at their zero value rather than causing an error — a schema that lacks
// one of these attributes (an older catalog version, a non-chat message
// id) should not crash the feature, it should just produce a sparse
// event.
func FromMessage(msg *decode.Message) Event {
	attrs := indexAttrs(msg.Attributes)

	ev := Event{
		Channel:    asUint8(attrs["channel"]),
		SenderName: asString(attrs["senderName"]),
		Content:    asString(attrs["content"]),
		Timestamp:  asUint32(attrs["timestamp"]),
	}

	if raw, ok := attrs["objects"].([]any); ok {
		for _, o := range raw {
			inner, ok := o.([]decode.Attr)
			if !ok {
				continue
			}
			m := make(map[string]string, len(inner))
			for _, a := range inner {
				m[a.Name] = asString(a.Value)
			}
			ev.Objects = append(ev.Objects, m)
		}
	}

	return ev
}

func indexAttrs(attrs []decode.Attr) map[string]any {
	m := make(map[string]any, len(attrs))
	for _, a := range attrs {
		m[a.Name] = a.Value
	}
	return m
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asUint8(v any) uint8 {
	switch n := v.(type) {
	case byte:
		return n
	case uint16:
		return uint8(n)
	case uint32:
		return uint8(n)
	default:
		return 0
	}
}

func asUint32(v any) uint32 {
	switch n := v.(type) {
	case byte:
		return uint32(n)
	case uint16:
		return uint32(n)
	case uint32:
		return n
	default:
		return 0
	}
}
