package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Node is a read-only view over a decoded JSON value.
// The zero Node represents an absent value.
type Node struct {
	v any
}

// NewNode wraps an already-decoded JSON value (maps, slices, float64, string, bool, nil).
func NewNode(v any) Node {
	return Node{v: v}
}

// ParseNode decodes a JSON document into a Node.
func ParseNode(data []byte) (Node, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Node{}, fmt.Errorf("parse node: %w", err)
	}
	return Node{v: v}, nil
}

// Exists reports whether the node holds a non-null value.
func (n Node) Exists() bool {
	return n.v != nil
}

// Get walks nested objects by key. Any missing key or non-object
// intermediate yields the zero Node.
func (n Node) Get(path ...string) Node {
	cur := n.v
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return Node{}
		}
		cur = obj[key]
	}
	return Node{v: cur}
}

// Float returns the numeric value and true, or 0 and false when the node
// is absent or not a number.
func (n Node) Float() (float64, bool) {
	var f float64
	switch v := n.v.(type) {
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case int:
		f = float64(v)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Int returns the numeric value truncated to an int, or def when the node is
// absent or not a number.
func (n Node) Int(def int) int {
	f, ok := n.Float()
	if !ok || f > math.MaxInt32 || f < math.MinInt32 {
		return def
	}
	return int(f)
}

// String returns the string value, or def when the node is absent or not a string.
func (n Node) String(def string) string {
	s, ok := n.v.(string)
	if !ok {
		return def
	}
	return s
}

// Items returns the elements of an array node, or nil for anything else.
func (n Node) Items() []Node {
	arr, ok := n.v.([]any)
	if !ok {
		return nil
	}
	out := make([]Node, len(arr))
	for i, v := range arr {
		out[i] = Node{v: v}
	}
	return out
}
