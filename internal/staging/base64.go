package staging

import (
	"encoding/base64"
	"fmt"
	"os"
)

// EncodeFile reads the file at path and returns its base64 encoding for use
// as an inline recognition payload.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("staging: read %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
