// Package policy evaluates organization-supplied allow, deny, and
// force-review rules before any scoring runs. A policy document is
// plain data with an explicit validator; there is no expression
// language anywhere in this path.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Document is the JSON policy schema. Domain lists accept exact
// entries ("example.com") and wildcard entries ("*.example.com");
// a wildcard matches the apex and every subdomain. TLD entries are
// written with or without the leading dot.
type Document struct {
	Name          string   `json:"name"`
	AllowDomains  []string `json:"allow_domains,omitempty"`
	DenyDomains   []string `json:"deny_domains,omitempty"`
	ReviewDomains []string `json:"review_domains,omitempty"`
	DenyTLDs      []string `json:"deny_tlds,omitempty"`
	RequireHTTPS  bool     `json:"require_https,omitempty"`
	BlockIPHosts  bool     `json:"block_ip_hosts,omitempty"`

	// Optional per-organization threshold overrides. Set both or
	// neither.
	SafeThreshold      *int `json:"safe_threshold,omitempty"`
	MaliciousThreshold *int `json:"malicious_threshold,omitempty"`
}

// Load reads and validates a policy document from a JSON file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return &doc, nil
}

// Validate checks the document for internal consistency and
// normalizes its entries in place.
func (d *Document) Validate() error {
	if d.Name == "" {
		d.Name = "policy"
	}

	for _, list := range []struct {
		name    string
		entries []string
	}{
		{"allow_domains", d.AllowDomains},
		{"deny_domains", d.DenyDomains},
		{"review_domains", d.ReviewDomains},
	} {
		for i, p := range list.entries {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				return fmt.Errorf("%s[%d]: empty pattern", list.name, i)
			}
			if strings.Count(p, "*") > 1 || (strings.Contains(p, "*") && !strings.HasPrefix(p, "*.")) {
				return fmt.Errorf("%s[%d]: wildcard must be a leading *. in %q", list.name, i, p)
			}
			if p == "*." {
				return fmt.Errorf("%s[%d]: wildcard needs a domain", list.name, i)
			}
			list.entries[i] = p
		}
	}

	for i, tld := range d.DenyTLDs {
		tld = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tld, ".")))
		if tld == "" {
			return fmt.Errorf("deny_tlds[%d]: empty entry", i)
		}
		d.DenyTLDs[i] = tld
	}

	if (d.SafeThreshold == nil) != (d.MaliciousThreshold == nil) {
		return fmt.Errorf("threshold override must set both safe_threshold and malicious_threshold")
	}
	if d.SafeThreshold != nil {
		s, m := *d.SafeThreshold, *d.MaliciousThreshold
		if s < 0 || s > 100 || m < 0 || m > 100 {
			return fmt.Errorf("threshold override out of range: safe=%d malicious=%d", s, m)
		}
		if s >= m {
			return fmt.Errorf("safe_threshold %d must be below malicious_threshold %d", s, m)
		}
	}
	return nil
}
