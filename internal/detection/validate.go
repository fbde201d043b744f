package detection

import (
	"net"
	"net/url"
	"strings"

	"github.com/verbalis/voicedetect-go/internal/errors"
)

// ValidateURL rejects malformed or disallowed audio URLs before any network
// traffic happens. The HTTP layer performs the same checks; the engine
// repeats them defensively so a misbehaving caller cannot reach acquisition
// with an internal target.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return validationError("audio URL must be a non-empty string")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return validationError("invalid URL format")
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return validationError("invalid URL format")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return validationError("URL must use HTTP or HTTPS protocol")
	}

	hostname := strings.ToLower(parsed.Hostname())
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return validationError("cannot access local or internal resources")
	}
	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return validationError("cannot access local or internal resources")
		}
	}

	return nil
}

func validationError(msg string) error {
	return errors.Newf("%s", msg).
		Component("detection").
		Category(errors.CategoryValidation).
		Build()
}
