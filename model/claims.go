package model

import "github.com/golang-jwt/jwt/v5"

type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// AppClaims is the payload of both token kinds. The subject is the user id.
type AppClaims struct {
	Email string    `json:"email"`
	Type  TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// Identity is what a verified access token resolves to.
type Identity struct {
	ID    int64  `json:"id,string"`
	Email string `json:"email"`
}
