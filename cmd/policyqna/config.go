// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/policyqna/services/document"
	"github.com/AleutianAI/policyqna/services/rag"
)

// Config is the full application configuration. Values load from the
// YAML file (--config), then environment variables override.
type Config struct {
	Chunking struct {
		Size    int `yaml:"size"`
		Overlap int `yaml:"overlap"`
	} `yaml:"chunking"`

	Retrieval struct {
		TopK int `yaml:"top_k"`
	} `yaml:"retrieval"`

	Weaviate struct {
		URL string `yaml:"url"`
	} `yaml:"weaviate"`

	OpenAI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	var cfg Config
	cfg.Chunking.Size = document.DefaultChunkSize
	cfg.Chunking.Overlap = document.DefaultChunkOverlap
	cfg.Retrieval.TopK = rag.DefaultTopK
	cfg.Weaviate.URL = "http://localhost:8080"
	cfg.Storage.Path = "~/.policyqna/db"
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig reads the YAML file (if path is non-empty) over the
// defaults, then applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POLICYQNA_WEAVIATE_URL"); v != "" {
		cfg.Weaviate.URL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("POLICYQNA_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("POLICYQNA_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retrieval.TopK = n
		}
	}
	if v := os.Getenv("POLICYQNA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
