package model

// LoginResponse is returned by /auth/login.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user"`
	StoreID      int64  `json:"storeId,string"`
}

// TokenPair is returned by /auth/refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RegisterResponse struct {
	User    *User `json:"user"`
	StoreID int64 `json:"storeId,string"`
}
