package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSet 以 JSON 数组文本存储，三种方言通用
type StringSet []string

func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSet) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*s = StringSet{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("StringSet: unsupported scan type %T", src)
	}
	if len(b) == 0 {
		*s = StringSet{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("StringSet: %w", err)
	}
	*s = out
	return nil
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
