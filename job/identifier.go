package job

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Identifier is an id which job files carry either as JSON string or as JSON
// number. Original representation is kept so it could be written back
// unchanged.
type Identifier struct {
	value   string
	numeric bool
}

// NewIdentifier makes string identifier.
func NewIdentifier(value string) Identifier {
	return Identifier{value: value}
}

func (id Identifier) String() string {
	return id.value
}

// IsZero reports if identifier was not set.
func (id Identifier) IsZero() bool {
	return id.value == ""
}

func (id *Identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = Identifier{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = Identifier{value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be string or number, got %s", data)
	}
	*id = Identifier{value: n.String(), numeric: true}
	return nil
}

func (id Identifier) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}
