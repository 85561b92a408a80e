package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Alula         AlulaConfig         `yaml:"alula"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HomeAssistant HomeAssistantConfig `yaml:"homeassistant"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Log           string              `yaml:"log"`
	Cache         bool                `yaml:"cache"`
}

type AlulaConfig struct {
	APIURL       string `yaml:"api_url"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	RefreshToken string `yaml:"refresh_token"`

	// PollInterval is in seconds. DeepScanEvery selects the cadence of the
	// wide historical event-log read; EventWindow/DeepEventWindow are the
	// narrow and wide page sizes.
	PollInterval    int `yaml:"poll_interval"`
	DeepScanEvery   int `yaml:"deep_scan_every"`
	EventWindow     int `yaml:"event_window"`
	DeepEventWindow int `yaml:"deep_event_window"`
}

type MQTTConfig struct {
	ClientID  string `yaml:"client_id"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Keepalive int    `yaml:"keepalive"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	QOS       int    `yaml:"qos"`
	Retain    bool   `yaml:"retain"`
	RetainLog bool   `yaml:"retain_log"`
	Prefix    string `yaml:"prefix"`
	Clean     bool   `yaml:"clean"`
}

type HomeAssistantConfig struct {
	Discovery bool   `yaml:"discovery"`
	Prefix    string `yaml:"prefix"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Set default values
	if config.Alula.APIURL == "" {
		config.Alula.APIURL = "https://api.alulaconnect.com"
	}
	if config.Alula.PollInterval == 0 {
		config.Alula.PollInterval = 30
	}
	if config.Alula.DeepScanEvery == 0 {
		config.Alula.DeepScanEvery = 10
	}
	if config.Alula.EventWindow == 0 {
		config.Alula.EventWindow = 50
	}
	if config.Alula.DeepEventWindow == 0 {
		config.Alula.DeepEventWindow = 500
	}
	if config.MQTT.ClientID == "" {
		config.MQTT.ClientID = "alula2mqtt"
	}
	if config.MQTT.Host == "" {
		config.MQTT.Host = "localhost"
	}
	if config.MQTT.Port == 0 {
		config.MQTT.Port = 1883
	}
	if config.MQTT.Keepalive == 0 {
		config.MQTT.Keepalive = 60
	}
	if config.MQTT.Prefix == "" {
		config.MQTT.Prefix = "alula2mqtt"
	}
	if config.HomeAssistant.Prefix == "" {
		config.HomeAssistant.Prefix = "homeassistant"
	}
	if config.Metrics.Listen == "" {
		config.Metrics.Listen = ":9852"
	}
	if config.Log == "" {
		config.Log = "info"
	}

	if config.Alula.Username == "" && config.Alula.RefreshToken == "" {
		return nil, fmt.Errorf("alula credentials missing: set username/password or refresh_token")
	}

	return &config, nil
}
