package helper

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// GenerateUUID returns a random v4 UUID string
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return id.String(), nil
}

// DocumentID derives a short stable identifier from document content, so
// re-ingesting the same file produces the same ID.
func DocumentID(content string) string {
	sum := md5.Sum([]byte(content))
	return fmt.Sprintf("%x", sum)[:12]
}

// CreateFolder creates the folder if it does not exist
func CreateFolder(path string) error {
	return os.MkdirAll(path, 0o755)
}

// PrettyPrint renders a value as indented JSON for CLI output
func PrettyPrint(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
