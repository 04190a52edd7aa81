package model

import "database/sql"

// CategoryRow is a flat category record as stored.
type CategoryRow struct {
	ID          int64         `db:"id"`
	StoreID     int64         `db:"store_id"`
	ParentID    sql.NullInt64 `db:"parent_id"`
	Name        string        `db:"name"`
	Description string        `db:"description"`
	Position    int           `db:"position"`
}

// Category is a node of the category tree returned to clients.
type Category struct {
	ID            int64       `json:"id,string"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Position      int         `json:"position"`
	SubCategories []*Category `json:"subCategories"`
}
