package common

import (
	"os"
	"path/filepath"
	"testing"

	"buddy-sessions-go/internal/schedule"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeedFile_Valid(t *testing.T) {
	path := writeSeedFile(t, `
accounts:
  - nickname: hana
    role: buddy
    grid:
      mon: [morning, evening]
      fri: [early-morning]
  - nickname: mina
    role: learner
    credits: 5
`)

	accounts, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}

	grid, err := accounts[0].BuildGrid()
	if err != nil {
		t.Fatalf("BuildGrid failed: %v", err)
	}
	if !grid.Has(schedule.Monday, schedule.Morning) {
		t.Error("Expected monday morning on the grid")
	}
	if !grid.Has(schedule.Friday, schedule.EarlyMorning) {
		t.Error("Expected friday early-morning on the grid")
	}

	if accounts[1].Credits == nil || *accounts[1].Credits != 5 {
		t.Error("Expected explicit credits 5 for mina")
	}
}

func TestLoadSeedFile_RejectsBadContent(t *testing.T) {
	cases := map[string]string{
		"missing nickname": `
accounts:
  - role: buddy
`,
		"unknown role": `
accounts:
  - nickname: hana
    role: admin
`,
		"bad weekday": `
accounts:
  - nickname: hana
    role: buddy
    grid:
      monday: [morning]
`,
		"bad bucket": `
accounts:
  - nickname: hana
    role: buddy
    grid:
      mon: [midnight]
`,
		"negative credits": `
accounts:
  - nickname: mina
    role: learner
    credits: -1
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeSeedFile(t, content)
			if _, err := LoadSeedFile(path); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestLoadSeedFile_MissingFile(t *testing.T) {
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
