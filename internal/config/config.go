// Package config holds the engine's startup configuration: sample rate,
// block size, voice pool capacity, and the sample bank manifest to load.
// Grounded on the teacher's functional-options constructors (e.g.
// apu.NewAPU(sampleRate, masterVolume)-style plain-argument constructors
// generalized to an options slice once the parameter count grows past a
// handful), plus an optional YAML file for the hosting CLI.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the engine's full startup configuration.
type Config struct {
	SampleRate     int
	BlockSize      int
	VoicePoolSize  int
	ManifestPath   string
	DefaultBPM     float64
	BeatsPerCycle  float64
}

// Option mutates a Config during construction.
type Option func(*Config)

// Default returns the engine's baseline configuration.
func Default() Config {
	return Config{
		SampleRate:    44100,
		BlockSize:     512,
		VoicePoolSize: 64,
		DefaultBPM:    120,
		BeatsPerCycle: 4,
	}
}

// New builds a Config from Default() plus any options, in order.
func New(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithSampleRate overrides the sample rate.
func WithSampleRate(hz int) Option {
	return func(c *Config) { c.SampleRate = hz }
}

// WithBlockSize overrides the render block size.
func WithBlockSize(n int) Option {
	return func(c *Config) { c.BlockSize = n }
}

// WithVoicePoolSize overrides the voice pool capacity.
func WithVoicePoolSize(n int) Option {
	return func(c *Config) { c.VoicePoolSize = n }
}

// WithManifest sets the sample bank manifest path to load at startup.
func WithManifest(path string) Option {
	return func(c *Config) { c.ManifestPath = path }
}

// WithTempo sets the default transport tempo.
func WithTempo(bpm, beatsPerCycle float64) Option {
	return func(c *Config) {
		c.DefaultBPM = bpm
		c.BeatsPerCycle = beatsPerCycle
	}
}

// yamlConfig mirrors Config's fields for file-based overrides; fields absent
// from the file are left at their Default() value by LoadYAML.
type yamlConfig struct {
	SampleRate    *int     `yaml:"sample_rate"`
	BlockSize     *int     `yaml:"block_size"`
	VoicePoolSize *int     `yaml:"voice_pool_size"`
	ManifestPath  *string  `yaml:"manifest_path"`
	DefaultBPM    *float64 `yaml:"default_bpm"`
	BeatsPerCycle *float64 `yaml:"beats_per_cycle"`
}

// LoadYAML reads a config file and applies it on top of Default().
func LoadYAML(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return c, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if y.SampleRate != nil {
		c.SampleRate = *y.SampleRate
	}
	if y.BlockSize != nil {
		c.BlockSize = *y.BlockSize
	}
	if y.VoicePoolSize != nil {
		c.VoicePoolSize = *y.VoicePoolSize
	}
	if y.ManifestPath != nil {
		c.ManifestPath = *y.ManifestPath
	}
	if y.DefaultBPM != nil {
		c.DefaultBPM = *y.DefaultBPM
	}
	if y.BeatsPerCycle != nil {
		c.BeatsPerCycle = *y.BeatsPerCycle
	}
	return c, nil
}
