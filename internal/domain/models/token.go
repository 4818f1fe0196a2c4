package models

import "encoding/json"

// TokenResponse is returned by login, register and refresh-token.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user,omitempty"`
}

// UnmarshalJSON accepts the legacy "token" field as an alias of "access_token".
func (t *TokenResponse) UnmarshalJSON(data []byte) error {
	type plain TokenResponse
	var aux struct {
		plain
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*t = TokenResponse(aux.plain)
	if t.AccessToken == "" {
		t.AccessToken = aux.Token
	}

	return nil
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
