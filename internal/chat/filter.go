package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FilterLeafType names the single-field comparisons a filter leaf can
// perform against a decoded Event.
type FilterLeafType string

const (
	FilterChannel FilterLeafType = "channel"
	FilterPlayer  FilterLeafType = "player"
	FilterWord    FilterLeafType = "word"
)

// FilterLeaf is one concrete comparison: Type selects which Event field is
// compared, Value holds the comparison operand.
type FilterLeaf struct {
	Type  FilterLeafType  `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (l FilterLeaf) evaluate(ev Event) bool {
	switch l.Type {
	case FilterChannel:
		var channel uint8
		if err := json.Unmarshal(l.Value, &channel); err != nil {
			return false
		}
		return ev.Channel == channel
	case FilterPlayer:
		var player string
		if err := json.Unmarshal(l.Value, &player); err != nil {
			return false
		}
		return ev.SenderName == player
	case FilterWord:
		var word string
		if err := json.Unmarshal(l.Value, &word); err != nil {
			return false
		}
		return strings.Contains(ev.Content, word)
	default:
		return false
	}
}

// FilterTree is a boolean expression over Event fields: And/Or combine
// child trees, Leaf evaluates one FilterLeaf. The JSON shape is
// {"and":[...]}, {"or":[...]}, or {"leaf":{"type":"channel","value":1}} —
// one key present per node, matching the tagged-enum encoding the
// original catalog persists to disk.
type FilterTree struct {
	And  []FilterTree
	Or   []FilterTree
	Leaf *FilterLeaf
}

func (t *FilterTree) UnmarshalJSON(data []byte) error {
	var shape struct {
		And  []FilterTree `json:"and"`
		Or   []FilterTree `json:"or"`
		Leaf *struct {
			Type  FilterLeafType  `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"leaf"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}

	switch {
	case shape.And != nil:
		t.And = shape.And
	case shape.Or != nil:
		t.Or = shape.Or
	case shape.Leaf != nil:
		t.Leaf = &FilterLeaf{Type: shape.Leaf.Type, Value: shape.Leaf.Value}
	default:
		return fmt.Errorf("chat: filter tree node has no and/or/leaf key")
	}
	return nil
}

func (t FilterTree) MarshalJSON() ([]byte, error) {
	switch {
	case t.And != nil:
		return json.Marshal(struct {
			And []FilterTree `json:"and"`
		}{t.And})
	case t.Or != nil:
		return json.Marshal(struct {
			Or []FilterTree `json:"or"`
		}{t.Or})
	case t.Leaf != nil:
		return json.Marshal(struct {
			Leaf FilterLeaf `json:"leaf"`
		}{*t.Leaf})
	default:
		return nil, fmt.Errorf("chat: filter tree node has no and/or/leaf value")
	}
}

// Evaluate walks the tree against ev. And requires every child to match,
// Or requires at least one, Leaf delegates to its single comparison.
func (t FilterTree) Evaluate(ev Event) bool {
	switch {
	case t.And != nil:
		for _, child := range t.And {
			if !child.Evaluate(ev) {
				return false
			}
		}
		return true
	case t.Or != nil:
		for _, child := range t.Or {
			if child.Evaluate(ev) {
				return true
			}
		}
		return false
	case t.Leaf != nil:
		return t.Leaf.evaluate(ev)
	default:
		return false
	}
}
