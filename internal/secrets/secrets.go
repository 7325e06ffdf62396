// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files
// and from a dotenv file. Each file in the directory represents one secret: the filename
// is the key name and the file contents (trimmed) are the value.
//
// Supported keys: patent-api-token, chat-api-key, redis-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Secret key names.
const (
	PatentAPIToken = "patent-api-token"
	ChatAPIKey     = "chat-api-key"
	RedisPassword  = "redis-password"
)

// envNames maps dotenv variables to secret keys. Several variables may feed
// one key; the first one set wins.
var envNames = []struct {
	env string
	key string
}{
	{"PATENT_API_TOKEN", PatentAPIToken},
	{"CHAT_API_KEY", ChatAPIKey},
	{"GEMINI_API_KEY", ChatAPIKey},
	{"REDIS_PASSWORD", RedisPassword},
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnv reads a dotenv file and returns the secrets it defines, keyed like
// Load. A missing file is not an error.
func LoadEnv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	secrets := make(map[string]string)
	for _, n := range envNames {
		if _, ok := secrets[n.key]; ok {
			continue
		}
		if v := strings.TrimSpace(vars[n.env]); v != "" {
			secrets[n.key] = v
		}
	}
	return secrets, nil
}

// Resolve merges the secrets directory with the dotenv file. Directory
// entries take precedence.
func Resolve(dir, envFile string) (map[string]string, error) {
	fromEnv, err := LoadEnv(envFile)
	if err != nil {
		return nil, err
	}
	fromDir, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for k, v := range fromDir {
		fromEnv[k] = v
	}
	return fromEnv, nil
}
