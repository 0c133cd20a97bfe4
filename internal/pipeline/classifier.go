package pipeline

import (
	"embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// MatchMode selects how keywords are matched
type MatchMode string

const (
	MatchWord      MatchMode = "word"
	MatchSubstring MatchMode = "substring"
)

// ClassifierConfig is the YAML shape of a keyword classifier
type ClassifierConfig struct {
	Match         MatchMode `yaml:"match"`
	CaseSensitive bool      `yaml:"case_sensitive"`
	Keywords      []string  `yaml:"keywords"`
}

// Classifier decides whether content is a script by keyword presence
type Classifier struct {
	cfg      ClassifierConfig
	patterns []*regexp.Regexp
}

// LoadDefaultClassifier loads the embedded classifier config. A non-empty
// keywords list replaces the embedded keywords.
func LoadDefaultClassifier(keywords []string) (*Classifier, error) {
	data, err := configFiles.ReadFile("config/classifier.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier config: %w", err)
	}

	var cfg ClassifierConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal classifier config: %w", err)
	}

	if len(keywords) > 0 {
		cfg.Keywords = keywords
	}
	return NewClassifier(cfg)
}

// NewClassifier builds a classifier from config
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if cfg.Match == "" {
		cfg.Match = MatchWord
	}
	if cfg.Match != MatchWord && cfg.Match != MatchSubstring {
		return nil, fmt.Errorf("unknown match mode %q", cfg.Match)
	}

	c := &Classifier{cfg: cfg}
	if cfg.Match == MatchWord {
		for _, kw := range cfg.Keywords {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			expr := `\b` + regexp.QuoteMeta(kw) + `\b`
			if !cfg.CaseSensitive {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("invalid keyword %q: %w", kw, err)
			}
			c.patterns = append(c.patterns, re)
		}
	}
	return c, nil
}

// Keywords returns the configured keywords
func (c *Classifier) Keywords() []string {
	return append([]string(nil), c.cfg.Keywords...)
}

// IsScript reports whether text contains any keyword
func (c *Classifier) IsScript(text string) bool {
	if c.cfg.Match == MatchWord {
		for _, re := range c.patterns {
			if re.MatchString(text) {
				return true
			}
		}
		return false
	}

	haystack := text
	if !c.cfg.CaseSensitive {
		haystack = strings.ToLower(text)
	}
	for _, kw := range c.cfg.Keywords {
		if kw == "" {
			continue
		}
		needle := kw
		if !c.cfg.CaseSensitive {
			needle = strings.ToLower(kw)
		}
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
