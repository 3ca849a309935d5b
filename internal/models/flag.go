package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Flag is a checkbox value. HTML forms and older clients send it in several shapes.
type Flag bool

func (f Flag) Bool() bool { return bool(f) }

func (f Flag) String() string { return strconv.FormatBool(bool(f)) }

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = false
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, ok := ParseFlag(v)
	if !ok {
		return fmt.Errorf("invalid boolean value %s", b)
	}
	*f = Flag(parsed)
	return nil
}

// ParseFlag converts loosely typed checkbox values.
func ParseFlag(v any) (bool, bool) {
	switch t := v.(type) {
	case nil:
		return false, true
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case int64:
		return t != 0, true
	case int:
		return t != 0, true
	case []byte:
		return ParseFlag(string(t))
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "on", "1", "yes", "oui", "y":
			return true, true
		case "false", "off", "0", "no", "non", "n", "":
			return false, true
		}
	}
	return false, false
}

func (f Flag) Value() (driver.Value, error) { return bool(f), nil }

func (f *Flag) Scan(value interface{}) error {
	b, ok := ParseFlag(value)
	if !ok {
		return fmt.Errorf("flag scan: unsupported value %T", value)
	}
	*f = Flag(b)
	return nil
}
