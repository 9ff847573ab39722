package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

type valueKind uint8

const (
	valueAbsent valueKind = iota
	valueNumber
	valueText
)

// Value is a single StatUpdate field. Content authors write either a literal
// number ("cashChange: 2000") or a string ("incomeChange: 10%",
// "cashChange: portfolioValueChange:50%"); the zero Value means the field was
// not given.
type Value struct {
	kind valueKind
	num  float64
	text string
}

// Num returns a numeric Value.
func Num(v float64) Value {
	return Value{kind: valueNumber, num: v}
}

// Text returns a string Value.
func Text(s string) Value {
	return Value{kind: valueText, text: s}
}

// IsSet reports whether the field was present in the patch.
func (v Value) IsSet() bool { return v.kind != valueAbsent }

// IsZero reports whether the field was absent. It lets encoders omit it.
func (v Value) IsZero() bool { return v.kind == valueAbsent }

// AsNumber returns the literal number, if the Value holds one.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == valueNumber
}

// AsText returns the string form, if the Value holds one.
func (v Value) AsText() (string, bool) {
	return v.text, v.kind == valueText
}

func (v Value) String() string {
	switch v.kind {
	case valueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case valueText:
		return v.text
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueNumber:
		return json.Marshal(v.num)
	case valueText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("stat value must be a number or a string: %w", err)
	}
	*v = Num(f)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case valueNumber:
		return v.num, nil
	case valueText:
		return v.text, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML implements yaml.Unmarshaler
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: stat value must be a scalar", node.Line)
	}
	switch node.Tag {
	case "!!null":
		*v = Value{}
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		*v = Num(f)
	default:
		*v = Text(node.Value)
	}
	return nil
}
