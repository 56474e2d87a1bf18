package config

import (
	"encoding/json"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MessageLimit is the maximum input length in characters. Decoding never
// fails: a value that is not a whole number becomes InvalidLimit so that
// validation can replace it with the default.
type MessageLimit int

// InvalidLimit marks a limit that could not be read as a number.
const InvalidLimit MessageLimit = -1

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *MessageLimit) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	*m = parseLimit(node.Value)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *MessageLimit) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		*m = InvalidLimit
		return nil
	}
	*m = parseLimit(n.String())
	return nil
}

func parseLimit(s string) MessageLimit {
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return InvalidLimit
		}
		n = int(f)
	}
	if n == 0 {
		// Explicit zero is "supplied but invalid", not "absent".
		return InvalidLimit
	}
	return MessageLimit(n)
}
