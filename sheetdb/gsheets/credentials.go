// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package gsheets

import (
	"encoding/json"
	"os"
	"strings"

	"storj.io/clubsheet/sheetdb"
)

// ServiceAccount is a Google service account key bundle.
type ServiceAccount struct {
	Type                    string `json:"type,omitempty" help:"key type, normally service_account" default:""`
	ProjectID               string `json:"project_id,omitempty" help:"project the service account belongs to" default:""`
	PrivateKeyID            string `json:"private_key_id,omitempty" help:"id of the private key" default:""`
	PrivateKey              string `json:"private_key,omitempty" help:"PEM private key, literal \\n sequences are accepted" default:""`
	ClientEmail             string `json:"client_email,omitempty" help:"service account email address" default:""`
	ClientID                string `json:"client_id,omitempty" help:"service account client id" default:""`
	AuthURI                 string `json:"auth_uri,omitempty" help:"oauth2 authorization endpoint" default:""`
	TokenURI                string `json:"token_uri,omitempty" help:"oauth2 token endpoint" default:""`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url,omitempty" help:"certificate url of the auth provider" default:""`
	ClientX509CertURL       string `json:"client_x509_cert_url,omitempty" help:"certificate url of the client" default:""`
	UniverseDomain          string `json:"universe_domain,omitempty" help:"universe domain of the service account" default:""`
}

func (account ServiceAccount) empty() bool {
	return account == ServiceAccount{}
}

// CredentialsConfig holds the service account in one of the accepted forms.
// Fields take precedence over JSON, which takes precedence over File.
type CredentialsConfig struct {
	Fields ServiceAccount
	JSON   string `help:"service account key as a JSON document" default:""`
	File   string `help:"path to a service account key file" default:""`
}

// ResolveCredentials returns the configured service account as a canonical
// JSON payload with private key line breaks restored.
func ResolveCredentials(config CredentialsConfig) ([]byte, error) {
	var account ServiceAccount
	switch {
	case !config.Fields.empty():
		account = config.Fields

	case strings.TrimSpace(config.JSON) != "":
		if err := json.Unmarshal([]byte(config.JSON), &account); err != nil {
			return nil, sheetdb.ErrCredentialFormat.New("invalid service account JSON: %v", err)
		}

	case config.File != "":
		data, err := os.ReadFile(config.File)
		if err != nil {
			return nil, sheetdb.ErrCredentialFormat.Wrap(err)
		}
		if err := json.Unmarshal(data, &account); err != nil {
			return nil, sheetdb.ErrCredentialFormat.New("invalid service account key file %q: %v", config.File, err)
		}

	default:
		return nil, sheetdb.ErrCredentialFormat.New("no service account configured")
	}

	account.PrivateKey = strings.ReplaceAll(account.PrivateKey, `\n`, "\n")
	if account.Type == "" {
		account.Type = "service_account"
	}
	if account.ClientEmail == "" {
		return nil, sheetdb.ErrCredentialFormat.New("service account is missing client_email")
	}
	if strings.TrimSpace(account.PrivateKey) == "" {
		return nil, sheetdb.ErrCredentialFormat.New("service account is missing private_key")
	}

	payload, err := json.Marshal(account)
	if err != nil {
		return nil, sheetdb.ErrCredentialFormat.Wrap(err)
	}
	return payload, nil
}
