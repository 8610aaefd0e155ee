package common

import (
	"fmt"
	"os"
	"path/filepath"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/schedule"

	"gopkg.in/yaml.v2"
)

type SeedAccount struct {
	Nickname string              `yaml:"nickname"`
	Role     string              `yaml:"role"`
	Credits  *int64              `yaml:"credits"`
	Grid     map[string][]string `yaml:"grid"`
}

type SeedFile struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

// LoadSeedFile reads and validates a YAML account seed file. Grid keys are
// short weekday labels, values are bucket labels.
func LoadSeedFile(seedFile string) ([]SeedAccount, error) {
	var seedPath string
	if filepath.IsAbs(seedFile) {
		seedPath = seedFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		seedPath = filepath.Join(wd, seedFile)
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", seedFile, err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", seedFile, err)
	}

	for i, account := range file.Accounts {
		if account.Nickname == "" {
			return nil, fmt.Errorf("account at index %d missing nickname", i)
		}
		if _, err := models.ParseRole(account.Role); err != nil {
			return nil, fmt.Errorf("account %q: %w", account.Nickname, err)
		}
		if account.Credits != nil && *account.Credits < 0 {
			return nil, fmt.Errorf("account %q: credits cannot be negative", account.Nickname)
		}
		if _, err := account.BuildGrid(); err != nil {
			return nil, fmt.Errorf("account %q: %w", account.Nickname, err)
		}
	}

	return file.Accounts, nil
}

// BuildGrid converts the seed account's label map into a validated grid.
func (a SeedAccount) BuildGrid() (schedule.Grid, error) {
	grid := schedule.NewGrid()
	for dayLabel, bucketLabels := range a.Grid {
		day, err := schedule.ParseWeekday(dayLabel)
		if err != nil {
			return nil, err
		}
		for _, bucketLabel := range bucketLabels {
			bucket, err := schedule.ParseBucket(bucketLabel)
			if err != nil {
				return nil, err
			}
			if err := grid.Set(day, bucket); err != nil {
				return nil, err
			}
		}
	}
	return grid, nil
}
