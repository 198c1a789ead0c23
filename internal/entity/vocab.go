package entity

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the curated closed lists matched case-sensitively by the
// first tagging tier.
type Vocabulary struct {
	Platforms []string `yaml:"platforms"`
	Companies []string `yaml:"companies"`
	Figures   []string `yaml:"figures"`
}

// DefaultVocabulary returns the built-in curated lists. Deployments extend
// them via a vocabulary file instead of code changes.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Platforms: []string{
			"MySpace", "Vine", "Tumblr", "Friendster", "LiveJournal",
			"Digg", "StumbleUpon", "Google+", "Orkut", "Bebo",
			"Facebook", "Instagram", "Twitter", "TikTok", "YouTube",
			"Reddit", "Snapchat", "Twitch", "Discord", "Clubhouse",
			"Napster", "LimeWire", "Kazaa", "GeoCities", "AIM",
			"ICQ", "Periscope", "Musical.ly", "Google Reader",
		},
		Companies: []string{
			"Google", "Microsoft", "Apple", "Amazon", "Meta",
			"Netflix", "Yahoo", "AOL", "Netscape", "Nokia",
			"BlackBerry", "Blockbuster", "Kodak", "IBM", "Oracle",
			"Uber", "Airbnb", "OpenAI", "SpaceX", "Tesla",
		},
		Figures: []string{
			"Mark Zuckerberg", "Elon Musk", "Jack Dorsey", "Tom Anderson",
			"Steve Jobs", "Bill Gates", "Jeff Bezos", "Larry Page",
			"Sergey Brin", "Sam Altman", "Evan Spiegel", "Kevin Systrom",
		},
	}
}

// All returns the concatenated curated lists.
func (v Vocabulary) All() []string {
	out := make([]string, 0, len(v.Platforms)+len(v.Companies)+len(v.Figures))
	out = append(out, v.Platforms...)
	out = append(out, v.Companies...)
	out = append(out, v.Figures...)
	return out
}

// LoadVocabulary reads a vocabulary YAML file. Empty sections fall back to
// the built-in lists, so a file can override just one tier.
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read vocabulary: %w", err)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary: %w", err)
	}

	def := DefaultVocabulary()
	if len(v.Platforms) == 0 {
		v.Platforms = def.Platforms
	}
	if len(v.Companies) == 0 {
		v.Companies = def.Companies
	}
	if len(v.Figures) == 0 {
		v.Figures = def.Figures
	}
	return v, nil
}
