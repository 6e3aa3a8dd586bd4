// Package brand detects impersonation of known brands in URL hosts:
// typosquats, homograph spellings, character substitutions, and brand
// tokens smuggled into subdomains.
package brand

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one protected brand in the registry.
type Record struct {
	Name     string   `yaml:"name"`               // display name ("PayPal")
	Domain   string   `yaml:"domain"`             // canonical registrable domain ("paypal.com")
	Official []string `yaml:"official,omitempty"` // other legitimate registrable domains ("paypal.me")
	Tokens   []string `yaml:"tokens,omitempty"`   // extra lookalike tokens beyond the domain base
}

// entry is a Record prepared for matching.
type entry struct {
	Record
	tokens []string
}

// DB is the brand registry.
type DB struct {
	entries  []entry
	byDomain map[string]int
}

// NewDB validates and indexes a set of brand records.
func NewDB(records []Record) (*DB, error) {
	if len(records) == 0 {
		return nil, errors.New("brand registry is empty")
	}

	db := &DB{byDomain: make(map[string]int, len(records))}
	for _, r := range records {
		r.Name = strings.TrimSpace(r.Name)
		r.Domain = strings.ToLower(strings.TrimSpace(r.Domain))
		if r.Name == "" || r.Domain == "" {
			return nil, fmt.Errorf("brand record needs both name and domain, got name=%q domain=%q", r.Name, r.Domain)
		}

		e := entry{Record: r}
		seen := make(map[string]bool)
		add := func(tok string) {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if len(tok) >= 3 && !seen[tok] {
				seen[tok] = true
				e.tokens = append(e.tokens, tok)
			}
		}
		add(strings.Split(r.Domain, ".")[0])
		add(nameToken(r.Name))
		for _, t := range r.Tokens {
			add(t)
		}

		idx := len(db.entries)
		db.byDomain[r.Domain] = idx
		for _, d := range r.Official {
			d = strings.ToLower(strings.TrimSpace(d))
			if d != "" {
				db.byDomain[d] = idx
			}
		}
		db.entries = append(db.entries, e)
	}
	return db, nil
}

// DefaultDB returns the bundled registry of commonly impersonated
// brands.
func DefaultDB() *DB {
	db, err := NewDB(builtinRecords())
	if err != nil {
		// The builtin list is static; failing to build it is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return db
}

// dbFile is the YAML override schema:
//
//	brands:
//	  - name: PayPal
//	    domain: paypal.com
//	    tokens: [paypall]
type dbFile struct {
	Brands []Record `yaml:"brands"`
}

// LoadDB reads a YAML override file replacing the bundled registry.
func LoadDB(path string) (*DB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brand registry: %w", err)
	}
	var f dbFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse brand registry %s: %w", path, err)
	}
	db, err := NewDB(f.Brands)
	if err != nil {
		return nil, fmt.Errorf("brand registry %s: %w", path, err)
	}
	return db, nil
}

// IsOfficial reports whether a registrable domain belongs to a listed
// brand. Official domains and all their subdomains score zero.
func (db *DB) IsOfficial(registrable string) bool {
	_, ok := db.byDomain[strings.ToLower(registrable)]
	return ok
}

// Len returns the number of registered brands.
func (db *DB) Len() int {
	return len(db.entries)
}

// nameToken folds a display name into a matchable token: lowercase,
// letters and digits only.
func nameToken(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// builtinRecords is a starter registry of heavily impersonated brands.
// Official lists the brand's other real domains so a token like
// "icloud" cannot flag icloud.com itself; deployments with broader
// needs ship their own YAML registry.
func builtinRecords() []Record {
	return []Record{
		{Name: "Google", Domain: "google.com", Official: []string{"gmail.com", "google.co.uk", "google.de", "google.fr", "google.co.jp"}, Tokens: []string{"gmail"}},
		{Name: "YouTube", Domain: "youtube.com", Official: []string{"youtu.be"}},
		{Name: "Facebook", Domain: "facebook.com", Official: []string{"fb.com"}},
		{Name: "Instagram", Domain: "instagram.com", Official: []string{"instagr.am"}},
		{Name: "WhatsApp", Domain: "whatsapp.com", Official: []string{"wa.me"}},
		{Name: "Apple", Domain: "apple.com", Official: []string{"icloud.com"}, Tokens: []string{"icloud", "appleid"}},
		{Name: "Microsoft", Domain: "microsoft.com", Official: []string{"outlook.com", "live.com", "office.com", "office365.com", "onedrive.com"}, Tokens: []string{"outlook", "office365", "onedrive"}},
		{Name: "PayPal", Domain: "paypal.com", Official: []string{"paypal.me"}},
		{Name: "Amazon", Domain: "amazon.com", Official: []string{"amazon.co.uk", "amazon.de", "amazon.co.jp", "amazon.in"}},
		{Name: "Netflix", Domain: "netflix.com"},
		{Name: "eBay", Domain: "ebay.com", Official: []string{"ebay.co.uk", "ebay.de"}},
		{Name: "LinkedIn", Domain: "linkedin.com"},
		{Name: "Twitter", Domain: "twitter.com", Official: []string{"x.com"}},
		{Name: "Chase", Domain: "chase.com"},
		{Name: "Wells Fargo", Domain: "wellsfargo.com"},
		{Name: "Bank of America", Domain: "bankofamerica.com"},
		{Name: "Coinbase", Domain: "coinbase.com"},
		{Name: "Binance", Domain: "binance.com", Official: []string{"binance.us"}},
		{Name: "Steam", Domain: "steampowered.com", Official: []string{"steamcommunity.com"}, Tokens: []string{"steam", "steamcommunity"}},
		{Name: "DHL", Domain: "dhl.com", Official: []string{"dhl.de"}},
		{Name: "USPS", Domain: "usps.com"},
	}
}
