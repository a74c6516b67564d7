package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const envFileName = ".env"

// loadEnvFiles reads .env from the working directory and from the directory
// of the config file. Variables already present in the environment win.
func loadEnvFiles(configPath string) error {
	candidates := []string{envFileName}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), envFileName))
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load env file %s: %w", abs, err)
		}
	}
	return nil
}
