package jurisdiction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistry = `
default_ttl_days: 7
jurisdictions:
  - id: springfield
    name: City of Springfield
    ordinance_url: https://ordinances.example.com/springfield.txt
    district_codes: [R-1, R-2, C-1, C-2, FB-1]
    form_based_districts: [FB-1]
  - id: shelbyville
    name: City of Shelbyville
    ordinance_url: https://ordinances.example.com/shelbyville.txt
    district_codes: [R-1, M-1]
    cache_ttl_days: 14
`

func TestLoadBytes(t *testing.T) {
	reg, err := LoadBytes([]byte(sampleRegistry))
	require.NoError(t, err)

	t.Run("lookup and district validation", func(t *testing.T) {
		cfg, ok := reg.Get("springfield")
		require.True(t, ok)
		assert.Equal(t, "City of Springfield", cfg.Name)
		assert.True(t, cfg.HasDistrict("R-1"))
		assert.True(t, cfg.HasDistrict("r-1"), "district match is case-insensitive")
		assert.False(t, cfg.HasDistrict("Z-9"))
	})

	t.Run("form-based flags", func(t *testing.T) {
		cfg, _ := reg.Get("springfield")
		assert.True(t, cfg.IsFormBased("FB-1"))
		assert.False(t, cfg.IsFormBased("R-1"))
	})

	t.Run("ttl override", func(t *testing.T) {
		assert.Equal(t, 7*24*time.Hour, reg.TTL("springfield"))
		assert.Equal(t, 14*24*time.Hour, reg.TTL("shelbyville"))
		assert.Equal(t, 7*24*time.Hour, reg.TTL("unknown"), "unknown ids get the default")
	})

	t.Run("list is sorted", func(t *testing.T) {
		list := reg.List()
		require.Len(t, list, 2)
		assert.Equal(t, "shelbyville", list[0].ID)
		assert.Equal(t, "springfield", list[1].ID)
	})

	t.Run("unknown jurisdiction", func(t *testing.T) {
		_, ok := reg.Get("ogdenville")
		assert.False(t, ok)
	})
}

func TestLoadBytesRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no jurisdictions", "default_ttl_days: 7\njurisdictions: []"},
		{"missing id", "jurisdictions:\n  - name: X\n    ordinance_url: u\n    district_codes: [R-1]"},
		{"missing url", "jurisdictions:\n  - id: x\n    district_codes: [R-1]"},
		{"missing districts", "jurisdictions:\n  - id: x\n    ordinance_url: u"},
		{"duplicate id", "jurisdictions:\n  - id: x\n    ordinance_url: u\n    district_codes: [R-1]\n  - id: x\n    ordinance_url: u\n    district_codes: [R-1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}
