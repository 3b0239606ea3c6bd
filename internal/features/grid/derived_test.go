package grid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineDerivedColumns(t *testing.T) {
	d, err := NewDeriver(DefaultDisplayRules()[ListingMachines])
	require.NoError(t, err)
	assert.Equal(t, []string{"allocated", "statusDot"}, d.Keys())

	tests := []struct {
		name      string
		row       map[string]any
		dot       string
		allocated bool
	}{
		{"faulty wins over stock", map[string]any{"status": "Faulty", "stockLevel": 80.0, "schoolId": 3.0}, "red", true},
		{"inactive", map[string]any{"status": "inactive", "stockLevel": 80.0}, "red", false},
		{"unknown stock", map[string]any{"status": "active", "stockLevel": nil}, "grey", false},
		{"empty", map[string]any{"status": "active", "stockLevel": 0.0, "schoolId": ""}, "red", false},
		{"low", map[string]any{"status": "active", "stockLevel": 12.0, "schoolId": "s-1"}, "amber", true},
		{"healthy", map[string]any{"status": "active", "stockLevel": 20.0}, "green", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []map[string]any{tt.row}
			require.NoError(t, d.Apply(rows))
			assert.Equal(t, tt.dot, rows[0]["statusDot"])
			assert.Equal(t, tt.allocated, rows[0]["allocated"])
		})
	}
}

func TestLoadDisplayRulesOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"vending-machines":{"statusDot":"value = \"blue\""},"schools":{"short":"value = row.name"}}`), 0o600))

	rules, err := LoadDisplayRules(path)
	require.NoError(t, err)
	assert.Equal(t, `value = "blue"`, rules[ListingMachines]["statusDot"])
	assert.Contains(t, rules[ListingMachines], "allocated")

	d, err := NewDeriver(rules["schools"])
	require.NoError(t, err)
	rows := []map[string]any{{"name": "GHS Palayam"}}
	require.NoError(t, d.Apply(rows))
	assert.Equal(t, "GHS Palayam", rows[0]["short"])
}

func TestNewDeriverRejectsBadScript(t *testing.T) {
	_, err := NewDeriver(map[string]string{"broken": "value = ("})
	assert.Error(t, err)
}
