package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/eslsoft/yorlect/internal/entity"
)

// Metadata stores entity.Metadata as a JSON text column.
type Metadata entity.Metadata

// IndexList stores the assigned sentence indices as a JSON text column.
type IndexList []int

// Translations stores submitted translations as a JSON text column.
type Translations map[string]entity.TranslationEntry

func scanJSON(name string, src any, dst any) error {
	switch data := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(data) == 0 {
			return nil
		}
		return json.Unmarshal(data, dst)
	case string:
		if data == "" {
			return nil
		}
		return json.Unmarshal([]byte(data), dst)
	default:
		return fmt.Errorf("%s: unsupported src type %T", name, src)
	}
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for Metadata.
func (m *Metadata) Scan(src any) error {
	*m = Metadata{}
	return scanJSON("Metadata", src, m)
}

// Value implements driver.Valuer for Metadata.
func (m Metadata) Value() (driver.Value, error) {
	return jsonValue(m)
}

// Scan implements sql.Scanner for IndexList.
func (l *IndexList) Scan(src any) error {
	*l = nil
	if err := scanJSON("IndexList", src, l); err != nil {
		return err
	}
	if *l == nil {
		*l = IndexList{}
	}
	return nil
}

// Value implements driver.Valuer for IndexList.
func (l IndexList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue([]int(l))
}

// Scan implements sql.Scanner for Translations.
func (t *Translations) Scan(src any) error {
	*t = nil
	if err := scanJSON("Translations", src, t); err != nil {
		return err
	}
	if *t == nil {
		*t = Translations{}
	}
	return nil
}

// Value implements driver.Valuer for Translations.
func (t Translations) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	return jsonValue(map[string]entity.TranslationEntry(t))
}
