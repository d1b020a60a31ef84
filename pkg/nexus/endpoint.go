package nexus

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// ValidateEndpoint checks a node URL against the transport-security policy and
// returns it normalized (no trailing slash). Plaintext HTTP is allowed only
// toward loopback or private-network hosts; every public endpoint must use
// HTTPS. Anything unparsable is rejected.
func ValidateEndpoint(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidEndpoint)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}
	switch parsed.Scheme {
	case schemeHTTPS:
	case schemeHTTP:
		if !isLocalOrPrivateHost(parsed.Hostname()) {
			return "", fmt.Errorf("%w: https is required for remote hosts, got %q", ErrInsecureEndpoint, parsed.Hostname())
		}
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, parsed.Scheme)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

func isLocalOrPrivateHost(hostname string) bool {
	if strings.EqualFold(hostname, "localhost") {
		return true
	}
	address := net.ParseIP(hostname)
	if address == nil {
		return false
	}
	return address.IsLoopback() || address.IsPrivate()
}
