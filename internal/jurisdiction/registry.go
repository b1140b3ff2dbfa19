// Package jurisdiction holds the immutable registry of supported zoning
// authorities, loaded once at startup and never mutated.
package jurisdiction

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config describes one supported jurisdiction.
type Config struct {
	ID           string `koanf:"id" json:"id"`
	Name         string `koanf:"name" json:"name"`
	OrdinanceURL string `koanf:"ordinance_url" json:"ordinance_url"`

	// DistrictCodes enumerates the zoning districts this jurisdiction
	// recognizes; requests for other codes are rejected up front.
	DistrictCodes []string `koanf:"district_codes" json:"district_codes"`

	// FormBasedDistricts flags districts whose standards are intentionally
	// loose; dimensional violations there are downgraded to MINOR.
	FormBasedDistricts []string `koanf:"form_based_districts" json:"form_based_districts,omitempty"`

	// CacheTTLDays overrides the registry-wide TTL when > 0.
	CacheTTLDays int `koanf:"cache_ttl_days" json:"cache_ttl_days,omitempty"`
}

// HasDistrict reports whether the district code is valid for this jurisdiction.
func (c Config) HasDistrict(code string) bool {
	for _, d := range c.DistrictCodes {
		if strings.EqualFold(d, code) {
			return true
		}
	}
	return false
}

// IsFormBased reports whether the district is flagged form-based.
func (c Config) IsFormBased(code string) bool {
	for _, d := range c.FormBasedDistricts {
		if strings.EqualFold(d, code) {
			return true
		}
	}
	return false
}

// Registry is the startup-loaded set of jurisdiction configs.
type Registry struct {
	byID       map[string]Config
	defaultTTL time.Duration
}

type registryFile struct {
	DefaultTTLDays int      `koanf:"default_ttl_days"`
	Jurisdictions  []Config `koanf:"jurisdictions"`
}

// Load reads the registry from a YAML file, with ZONECHECK_REGISTRY_*
// environment variables overriding top-level settings
// (e.g. ZONECHECK_REGISTRY_DEFAULT_TTL_DAYS).
func Load(path string) (*Registry, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load jurisdictions file %s: %w", path, err)
	}
	return build(k)
}

// LoadBytes reads the registry from in-memory YAML. Used by tests and by
// deployments that inject the registry as a mounted secret.
func LoadBytes(content []byte) (*Registry, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load jurisdictions: %w", err)
	}
	return build(k)
}

func build(k *koanf.Koanf) (*Registry, error) {
	if err := k.Load(env.Provider("ZONECHECK_REGISTRY_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ZONECHECK_REGISTRY_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("load registry env overrides: %w", err)
	}

	var parsed registryFile
	if err := k.Unmarshal("", &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal jurisdictions: %w", err)
	}
	if len(parsed.Jurisdictions) == 0 {
		return nil, fmt.Errorf("jurisdictions file lists no jurisdictions")
	}
	if parsed.DefaultTTLDays <= 0 {
		parsed.DefaultTTLDays = 7
	}

	byID := make(map[string]Config, len(parsed.Jurisdictions))
	for _, cfg := range parsed.Jurisdictions {
		if cfg.ID == "" {
			return nil, fmt.Errorf("jurisdiction with empty id")
		}
		if cfg.OrdinanceURL == "" {
			return nil, fmt.Errorf("jurisdiction %s has no ordinance_url", cfg.ID)
		}
		if len(cfg.DistrictCodes) == 0 {
			return nil, fmt.Errorf("jurisdiction %s lists no district codes", cfg.ID)
		}
		if _, dup := byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate jurisdiction id %s", cfg.ID)
		}
		byID[cfg.ID] = cfg
	}

	return &Registry{
		byID:       byID,
		defaultTTL: time.Duration(parsed.DefaultTTLDays) * 24 * time.Hour,
	}, nil
}

// Get returns the config for a jurisdiction id.
func (r *Registry) Get(id string) (Config, bool) {
	cfg, ok := r.byID[id]
	return cfg, ok
}

// TTL returns the cache freshness window for a jurisdiction, falling back to
// the registry default when no override is set.
func (r *Registry) TTL(id string) time.Duration {
	if cfg, ok := r.byID[id]; ok && cfg.CacheTTLDays > 0 {
		return time.Duration(cfg.CacheTTLDays) * 24 * time.Hour
	}
	return r.defaultTTL
}

// List returns all configs sorted by id.
func (r *Registry) List() []Config {
	out := make([]Config, 0, len(r.byID))
	for _, cfg := range r.byID {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
