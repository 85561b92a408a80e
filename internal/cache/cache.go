package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/daemonp/alula2mqtt/internal/zones"
)

const cacheFileName = "alula2mqtt_cache.json"

// Data is what survives a restart: the rotated refresh token and the zone
// registry, so zones discovered in previous runs are not lost and do not
// have to wait for another deep scan.
type Data struct {
	RefreshToken string                            `json:"refresh_token"`
	Zones        map[string]map[int]zones.Metadata `json:"zones"`
	LastUpdate   time.Time                         `json:"last_update"`
}

func Save(data *Data) error {
	data.LastUpdate = time.Now()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %v", err)
	}

	cacheDir, err := getCacheDir()
	if err != nil {
		return fmt.Errorf("failed to get cache directory: %v", err)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %v", err)
	}

	cacheFilePath := filepath.Join(cacheDir, cacheFileName)
	if err := os.WriteFile(cacheFilePath, payload, 0o600); err != nil {
		return fmt.Errorf("failed to write cache file: %v", err)
	}

	return nil
}

func Load() (*Data, error) {
	cacheDir, err := getCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache directory: %v", err)
	}

	cacheFilePath := filepath.Join(cacheDir, cacheFileName)
	payload, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No cache yet
		}
		return nil, fmt.Errorf("failed to read cache file: %v", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %v", err)
	}

	return &data, nil
}

func Delete() error {
	cacheDir, err := getCacheDir()
	if err != nil {
		return fmt.Errorf("failed to get cache directory: %v", err)
	}

	cacheFilePath := filepath.Join(cacheDir, cacheFileName)
	if err := os.Remove(cacheFilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %v", err)
	}

	return nil
}

func getCacheDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	return filepath.Join(homeDir, ".cache", "alula2mqtt"), nil
}
