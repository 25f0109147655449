package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// KeyParams identifies one query for caching.
type KeyParams struct {
	Endpoint  string
	Operation string
	Variables map[string]any
}

// GenerateKey returns a deterministic key for params. The endpoint ignores
// case and a trailing slash. Variables are compared by their JSON encoding,
// which orders map keys.
func GenerateKey(params KeyParams) (string, error) {
	canonical := struct {
		Endpoint  string         `json:"endpoint"`
		Operation string         `json:"operation"`
		Variables map[string]any `json:"variables"`
	}{
		Endpoint:  strings.ToLower(strings.TrimSpace(strings.TrimRight(params.Endpoint, "/"))),
		Operation: strings.TrimSpace(params.Operation),
		Variables: params.Variables,
	}
	if canonical.Operation == "" {
		return "", ErrInvalidCacheKey
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("encoding cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
