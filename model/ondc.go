package model

import (
	"encoding/json"
	"fmt"
)

// CommonValueSet is the category code whose attribute values apply to every
// ONDC category.
const CommonValueSet = "COMMON"

type OndcProperty struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (p OndcProperty) IsEnum() bool {
	return p.Type == "enum"
}

// OndcProperties is the ordered property list stored as JSONB.
type OndcProperties []OndcProperty

func (p *OndcProperties) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*p = nil
		return nil
	default:
		return fmt.Errorf("ondc properties: unsupported source type %T", src)
	}
	return json.Unmarshal(raw, p)
}

// OndcCategory is an internal category-attribute record keyed by ONDC code.
type OndcCategory struct {
	Code        string         `db:"code"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Required    []string       `db:"-"`
	Properties  OndcProperties `db:"properties"`
}

// OndcValueSets maps a category code (or COMMON) to attribute -> values.
type OndcValueSets map[string]map[string][]string

type OndcAttributeValue struct {
	CategoryCode string `db:"category_code"`
	Attribute    string `db:"attribute"`
	Value        string `db:"value"`
}
