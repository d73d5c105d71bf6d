package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateServerOrigin validates a server origin such as https://open.rocket.chat
func ValidateServerOrigin(origin string) error {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return fmt.Errorf("server URL is required")
	}
	u, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("server URL is malformed: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server URL must use http or https")
	}
	if u.Hostname() == "" {
		return fmt.Errorf("server URL must include a host")
	}
	if u.User != nil {
		return fmt.Errorf("server URL must not include credentials")
	}
	// Hostnames have a 253 character limit
	if len(u.Hostname()) > 253 {
		return fmt.Errorf("server host too long (max 253 characters)")
	}
	if strings.ContainsAny(u.Hostname(), " \x00\t\r\n") {
		return fmt.Errorf("server host contains invalid characters")
	}
	return nil
}

// ValidateHost validates a bare host name used as a certificate trust key
func ValidateHost(host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("host is required")
	}
	if strings.ContainsAny(host, "/ \x00") {
		return fmt.Errorf("host contains invalid characters")
	}
	return nil
}
