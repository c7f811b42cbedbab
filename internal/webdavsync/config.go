package webdavsync

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/dori/gtdsync/internal/model"
)

// nextcloudFilesPath is where Nextcloud serves a user's files over WebDAV
const nextcloudFilesPath = "/remote.php/dav/files/"

// Config is the persisted connection configuration
type Config struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// PublicConfig is Config without the secret
type PublicConfig struct {
	URL      string
	Username string
}

// NormalizeURL trims rawURL and, unless it already points below the
// server's WebDAV endpoint, appends the Nextcloud files path for username.
func NormalizeURL(rawURL, username string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	u, err := url.Parse(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an http(s) URL", model.ErrValidation, rawURL)
	}
	if strings.Contains(u.Path, "/remote.php/") {
		return trimmed, nil
	}
	if strings.TrimSpace(username) == "" {
		return "", fmt.Errorf("%w: username is required", model.ErrValidation)
	}
	return trimmed + nextcloudFilesPath + url.PathEscape(username), nil
}
