// Package config loads the server's TOML configuration file: the set of
// zones to serve and where their zone files live.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"authoritative-core/internal/dnsname"
)

// ListenAddr is the address the server listens on for both UDP and TCP.
// Non-goals exclude per-deployment listener configuration, so this is a
// constant rather than a config field.
const ListenAddr = "0.0.0.0:8053"

// ZoneConfig is one `[[zone]]` table: an apex name and the zone file
// that defines it, relative to the config file's own directory.
type ZoneConfig struct {
	Name     string `toml:"name"`
	ZoneFile string `toml:"zonefile"`
}

// fileConfig mirrors the on-disk TOML shape before zone names and paths
// are resolved.
type fileConfig struct {
	Zone []ZoneConfig `toml:"zone"`
}

// Zone is a fully resolved zone entry: an absolute apex name and an
// absolute (or cwd-relative) zone file path.
type Zone struct {
	Name     dnsname.Name
	ZoneFile string
}

// Config is the resolved, ready-to-use configuration.
type Config struct {
	Zones []Zone
}

// Load reads and validates the TOML config file at path, resolving each
// zone's file path relative to path's own directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if len(fc.Zone) == 0 {
		return nil, fmt.Errorf("config file %s defines no zones", path)
	}

	base := filepath.Dir(path)
	cfg := &Config{}
	for _, z := range fc.Zone {
		if z.Name == "" || z.ZoneFile == "" {
			return nil, fmt.Errorf("config file %s: zone entry missing name or zonefile", path)
		}
		name, err := dnsname.ResolveName(z.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("config file %s: invalid zone name %q: %w", path, z.Name, err)
		}
		zoneFile := z.ZoneFile
		if !filepath.IsAbs(zoneFile) {
			zoneFile = filepath.Join(base, zoneFile)
		}
		cfg.Zones = append(cfg.Zones, Zone{Name: name, ZoneFile: zoneFile})
	}
	return cfg, nil
}
