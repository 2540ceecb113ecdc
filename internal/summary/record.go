// Package summary computes the headline numbers of a listening history.
package summary

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Stat is one named headline value.
type Stat struct {
	Name  string
	Value any
}

// Record is an ordered list of stats. It marshals as an object whose keys
// keep that order.
type Record []Stat

// Get returns the value of the named stat.
func (r Record) Get(name string) (any, bool) {
	for _, s := range r {
		if s.Name == name {
			return s.Value, true
		}
	}
	return nil, false
}

func (r *Record) add(name string, value any) {
	*r = append(*r, Stat{Name: name, Value: value})
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.Value)
		if err != nil {
			return nil, fmt.Errorf("marshalling %s: %w", s.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r Record) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range r {
		var value yaml.Node
		if err := value.Encode(s.Value); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", s.Name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s.Name},
			&value,
		)
	}
	return node, nil
}
