package model

import "time"

// User is an identity record. Password holds the bcrypt hash and is never
// serialised.
type User struct {
	ID        int64     `json:"id,string" db:"id"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Name      string    `json:"name,omitempty" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Store is the tenant every catalog row hangs off. One is generated per user
// at registration.
type Store struct {
	ID        int64     `json:"id,string" db:"id"`
	OwnerID   int64     `json:"ownerId,string" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
