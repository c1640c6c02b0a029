package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList stores a []string as a JSON text column so it works the same on
// PostgreSQL and the SQLite databases used in tests.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, (*[]string)(l))
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(l))
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}
