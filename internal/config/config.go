package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		RevealDelay     string `yaml:"revealDelay"`
		Lifetime        string `yaml:"lifetime"`
		MinGap          string `yaml:"minGap"`
		Retention       string `yaml:"retention"`
		LeaderboardSize int    `yaml:"leaderboardSize"`
	} `yaml:"quiz"`
	MLB struct {
		BaseURL string `yaml:"baseUrl"`
		Timeout string `yaml:"timeout"`
		LiveTTL string `yaml:"liveTtl"`
		Season  int    `yaml:"season"`
	} `yaml:"mlb"`
	Chat struct {
		History int `yaml:"history"`
	} `yaml:"chat"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
