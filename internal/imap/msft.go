package imap

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/clientcredentials"
)

// Microsoft365Config configures the app-only OAuth client-credentials grant
// used to mint XOAUTH2 bearer tokens for an Exchange Online mailbox,
// grounded on original_source's Microsoft365Config/TokenGenerationMethod
// (msft/mod.rs) but narrowed to the one flow worth wiring here: the core
// ingestion engine only needs a TokenSource, never the auth flow itself.
type Microsoft365Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// microsoft365TokenSource adapts an oauth2 client-credentials config to the
// package's TokenSource interface.
type microsoft365TokenSource struct {
	cfg *clientcredentials.Config
}

// NewMicrosoft365TokenSource builds a TokenSource backed by the Azure AD
// v2 token endpoint for cfg.TenantID.
func NewMicrosoft365TokenSource(cfg Microsoft365Config) TokenSource {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"https://outlook.office365.com/.default"}
	}
	return microsoft365TokenSource{cfg: &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       scopes,
	}}
}

func (m microsoft365TokenSource) Token(ctx context.Context) (string, error) {
	tok, err := m.cfg.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("imap.Microsoft365TokenSource: %w", err)
	}
	return tok.AccessToken, nil
}
