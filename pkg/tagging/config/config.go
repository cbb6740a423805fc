// Package config loads the tagger's YAML configuration and the
// taxonomy instructions artifact.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultModel is the classifier backend used when none is configured.
const DefaultModel = "gemini-3-flash-preview"

// DefaultAllowedTags is the controlled taxonomy of topic labels.
var DefaultAllowedTags = []string{
	"agriculture", "animal nutrition", "asphalt", "automotive", "ceramics", "cleaning",
	"coatings & construction", "composites", "cosmetics", "def", "electronics",
	"flavors & fragrances", "food & nutrition", "hi&i", "industrial sales & services",
	"lubricants", "marine emissions solutions", "metal surface treatment", "minerals",
	"mining", "oil & gas", "personal care", "pharmaceuticals", "polymers", "polyurethanes",
	"pulp & paper", "refrigeration", "rubber", "solvents", "surface technology", "textile",
	"water treatment", "wax", "acquisition", "annual report", "application & development center",
	"awards", "brand", "ceo", "certification", "charity", "customer experience",
	"distribution agreement", "donation", "educational resources", "employer branding",
	"event", "financial reporting", "formulations", "holidays", "interview", "podcast",
	"press release", "products & services", "safety", "service excellence", "sponsoring",
	"sustainability", "trends", "ukraine", "webinar",
}

// DefaultPreamble is the fixed system-instruction template. The first
// %s receives the comma-joined allow-list, the second the verbatim
// instructions artifact.
const DefaultPreamble = `YOU ARE AN EXPERT CONTENT ANALYST.
TASK: You receive several texts, each with an ID. Assign the matching tags to every text.
STRICT RULES:
1. Use ONLY tags from this list: %s
2. At most 2-3 tags per text.
3. FORMAT: Your answer MUST be a JSON object. Key = ID, value = list of tags.
EXAMPLE: {"0": ["automotive", "lubricants"], "1": ["food & nutrition"]}

TAG LOGIC:
%s`

// Config is the tagger's YAML configuration.
type Config struct {
	Input        string `yaml:"input"`
	Instructions string `yaml:"instructions"`
	Ledger       string `yaml:"ledger"`
	OutputDir    string `yaml:"output_dir"`
	OutputPrefix string `yaml:"output_prefix"`

	Model string `yaml:"model"`
	// Temperature left unset selects the near-deterministic default
	// of 0.1; an explicit 0 is honored.
	Temperature        *float64 `yaml:"temperature"`
	BatchSize          int      `yaml:"batch_size"`
	MaxAttempts        int      `yaml:"max_attempts"`
	RetryWaitSec       int      `yaml:"retry_wait_sec"`
	BatchPauseSec      int      `yaml:"batch_pause_sec"`
	MaxTranscriptChars int      `yaml:"max_transcript_chars"`

	TagPrefix   string   `yaml:"tag_prefix"`
	AllowedTags []string `yaml:"allowed_tags"`
	Preamble    string   `yaml:"preamble"`

	// TranscriptCache is an optional SQLite file caching fetched
	// transcripts between runs. Empty disables caching.
	TranscriptCache string `yaml:"transcript_cache"`
}

// Load reads the YAML config at path and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == nil {
		temp := 0.1
		c.Temperature = &temp
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryWaitSec <= 0 {
		c.RetryWaitSec = 30
	}
	if c.BatchPauseSec <= 0 {
		c.BatchPauseSec = 12
	}
	if c.MaxTranscriptChars <= 0 {
		c.MaxTranscriptChars = 500
	}
	if c.TagPrefix == "" {
		c.TagPrefix = "Brenntag"
	}
	if c.OutputPrefix == "" {
		c.OutputPrefix = c.TagPrefix + "_Batch_Result"
	}
	if len(c.AllowedTags) == 0 {
		c.AllowedTags = DefaultAllowedTags
	}
	if c.Preamble == "" {
		c.Preamble = DefaultPreamble
	}
}

func (c *Config) validate() error {
	switch {
	case c.Input == "":
		return fmt.Errorf("config: input required")
	case c.Instructions == "":
		return fmt.Errorf("config: instructions required")
	case c.Ledger == "":
		return fmt.Errorf("config: ledger required")
	case c.OutputDir == "":
		return fmt.Errorf("config: output_dir required")
	}
	return nil
}

// RetryWait returns the inter-retry wait as a duration.
func (c *Config) RetryWait() time.Duration {
	return time.Duration(c.RetryWaitSec) * time.Second
}

// BatchPause returns the inter-batch courtesy pause as a duration.
func (c *Config) BatchPause() time.Duration {
	return time.Duration(c.BatchPauseSec) * time.Second
}

// LoadInstructions reads the instructions artifact and returns its
// verbatim text plus the instruction version (the base filename,
// recorded per ledger entry).
func (c *Config) LoadInstructions() (text, version string, err error) {
	data, err := os.ReadFile(c.Instructions)
	if err != nil {
		return "", "", fmt.Errorf("read instructions: %w", err)
	}
	return string(data), filepath.Base(c.Instructions), nil
}

// SystemInstruction assembles the classifier system prompt from the
// preamble template, the allow-list and the instructions text.
func (c *Config) SystemInstruction(instructions string) string {
	return fmt.Sprintf(c.Preamble, strings.Join(c.AllowedTags, ", "), instructions)
}
