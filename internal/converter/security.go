package converter

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/fjglira/GoE2E-ScenarioRunner/internal/config"
)

// ValidateURL checks a navigation target against the target policy.
// Relative URLs are resolved against base. The base URL's host is always
// allowed; other hosts must be listed in AllowedHosts.
func ValidateURL(raw, base string, target *config.TargetConfig) error {
	if err := checkBlocked(raw, target.BlockedPatterns); err != nil {
		return err
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid navigation URL %q: %w", raw, err)
	}
	resolved := baseURL.ResolveReference(ref)

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return fmt.Errorf("navigation URL %q must use http or https", raw)
	}
	host := resolved.Hostname()
	if host == baseURL.Hostname() || slices.Contains(target.AllowedHosts, host) {
		return nil
	}
	return fmt.Errorf("navigation to host %q is not allowed by target policy", host)
}

// ValidateBaseURL checks a scenario-level base URL override.
func ValidateBaseURL(raw string, blockedPatterns []string) error {
	if err := checkBlocked(raw, blockedPatterns); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base URL %q must be an absolute http(s) URL", raw)
	}
	return nil
}

func checkBlocked(raw string, blockedPatterns []string) error {
	lower := strings.ToLower(raw)
	for _, pattern := range blockedPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return fmt.Errorf("URL blocked by security policy: contains %q", pattern)
		}
	}
	return nil
}
