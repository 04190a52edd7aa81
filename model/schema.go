package model

import (
	"bytes"
	"encoding/json"
)

type Channel string

const (
	ChannelAmazon  Channel = "amazon"
	ChannelONDC    Channel = "ondc"
	ChannelShopify Channel = "shopify"
)

// Field describes one attribute of a channel schema.
type Field struct {
	Name      string   `json:"-"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	Required  bool     `json:"required"`
	Enum      []string `json:"enum,omitempty"`
	EnumNames []string `json:"enumNames,omitempty"`
}

// FieldSet keeps fields in source order and marshals to a JSON object whose
// keys appear in that same order.
type FieldSet []Field

func (fs FieldSet) Get(name string) (Field, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (fs FieldSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ChannelSchema is the projected field schema for one category on one channel.
type ChannelSchema struct {
	Channel     Channel  `json:"channel"`
	Code        string   `json:"code"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required"`
	Attributes  FieldSet `json:"attributes"`
}
