package model

import (
	"encoding/json"
	"time"
)

// Asset is a stored media reference. URI is either an http(s) URL or an
// object-store URI of the form scheme://bucket/key.
type Asset struct {
	ID        int64           `json:"id,string" db:"id"`
	StoreID   int64           `json:"-" db:"store_id"`
	URI       string          `json:"uri" db:"uri"`
	Metadata  json.RawMessage `json:"metadata" db:"metadata"`
	Position  int             `json:"position" db:"position"`
	CreatedAt time.Time       `json:"-" db:"created_at"`
}

// AssetView is an asset together with a URL a client can fetch right away.
type AssetView struct {
	ID       int64           `json:"id,string"`
	Metadata json.RawMessage `json:"metadata"`
	Position int             `json:"position"`
	URI      string          `json:"uri"`
	AssetURL string          `json:"assetUrl"`
}
