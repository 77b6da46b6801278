package schema

import (
	"fmt"
	"strings"
)

// TagName is the struct tag key read by the resolver.
const TagName = "db"

// Values of the generated tag option.
const (
	GeneratedNone   = "none"
	GeneratedAdd    = "add"
	GeneratedAlways = "always"
)

// tag holds the parsed `db` struct tag of a field.
//
//	Id       int64     `db:"Id,pk,generated=add"`
//	Name     string    `db:"ProductName"`
//	Version  []byte    `db:",rowversion"`
//	Modified time.Time `db:",type=timestamp,generated=always"`
//	Total    float64   `db:",computed"`
//	Address  Address   `db:",owned"`
//	Secret   string    `db:"-"`
type tag struct {
	column     string
	skip       bool
	pk         bool
	generated  string
	storage    string
	rowversion bool
	computed   bool
	owned      bool
}

func parseTag(s string) (tag, error) {
	var t tag
	if s == "-" {
		t.skip = true
		return t, nil
	}
	parts := strings.Split(s, ",")
	t.column = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		key, value, _ := strings.Cut(p, "=")
		switch key {
		case "":
		case "pk":
			t.pk = true
		case "rowversion":
			t.rowversion = true
		case "computed":
			t.computed = true
		case "owned":
			t.owned = true
		case "type":
			t.storage = strings.ToLower(value)
		case "generated":
			switch value {
			case GeneratedNone, GeneratedAdd, GeneratedAlways:
				t.generated = value
			default:
				return t, fmt.Errorf("invalid generated option %q", value)
			}
		default:
			return t, fmt.Errorf("unknown tag option %q", p)
		}
	}
	return t, nil
}

// timestamp reports if the column is maintained by the database to detect
// concurrent writes.
func (t tag) timestamp() bool {
	return t.rowversion || (t.storage == "timestamp" && t.generated == GeneratedAlways)
}

// excluded reports if the column is computed by the database and never written.
func (t tag) excluded() bool {
	return t.computed || (t.generated == GeneratedAlways && !t.timestamp())
}
