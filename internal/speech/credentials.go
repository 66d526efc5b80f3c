package speech

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Credential is the variant over the two supported deployment modes. Both
// produce a token source feeding the same recognize/long-running contract.
type Credential interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// ServiceAccountCredential authenticates with a service-account JSON key,
// given inline or as a file path.
type ServiceAccountCredential struct {
	JSON []byte
	File string
}

func (c ServiceAccountCredential) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	data := c.JSON
	if len(data) == 0 {
		if c.File == "" {
			return nil, fmt.Errorf("speech: service account credential has no key material")
		}
		b, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("speech: read service account key: %w", err)
		}
		data = b
	}

	creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("speech: parse service account key: %w", err)
	}
	return creds.TokenSource, nil
}

// OAuthRefreshCredential authenticates with a user-granted refresh token.
type OAuthRefreshCredential struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func (c OAuthRefreshCredential) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
		return nil, fmt.Errorf("speech: oauth refresh credential is incomplete")
	}
	conf := &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{cloudPlatformScope},
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken}), nil
}
