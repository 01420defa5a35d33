// Package auth obtains OAuth2 client-credentials tokens for calls to the
// external predictor.
package auth

import (
	"errors"

	"golang.org/x/oauth2/clientcredentials"
)

// Conf represents the client-credentials settings. Authentication is off
// when ClientID is empty.
type Conf struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	TokenURL     string   `json:"token_url"`
	Scopes       []string `json:"scopes"`
}

// Enabled reports whether requests should carry a token.
func (c Conf) Enabled() bool { return c.ClientID != "" }

func (c Conf) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.TokenURL == "" {
		return errors.New("predictor.auth.token_url is required when client_id is set")
	}
	return nil
}

func (c Conf) toOauth2Config() clientcredentials.Config {
	return clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
		Scopes:       c.Scopes,
	}
}
