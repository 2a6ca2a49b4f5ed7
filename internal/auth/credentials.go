package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenType classifies a stored token by its prefix.
type TokenType int

const (
	TokenAPIKey TokenType = iota
	TokenOAuthAccess
	TokenOAuthRefresh
)

// Credentials is the on-disk shape of <config_dir>/codepilot/credentials.json.
type Credentials struct {
	Token   string `json:"token"`
	IsOAuth bool   `json:"is_oauth"`
}

// Type classifies Token by its well-known prefix.
func (c Credentials) Type() TokenType {
	switch {
	case strings.HasPrefix(c.Token, "sk-ant-oat"):
		return TokenOAuthAccess
	case strings.HasPrefix(c.Token, "sk-ant-ort"):
		return TokenOAuthRefresh
	default:
		return TokenAPIKey
	}
}

func configDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	dir := filepath.Join(base, "codepilot")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

func credentialsPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.json"), nil
}

// LoadCredentials reads the credentials file, returning (nil, nil) if it
// does not exist.
func LoadCredentials() (*Credentials, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return &creds, nil
}

// SaveCredentials writes creds to the credentials file with mode 0600.
func SaveCredentials(creds Credentials) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return os.Chmod(path, 0o600)
}
