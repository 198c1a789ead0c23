package entity

import (
	"os"
	"path/filepath"
	"testing"

	"hindsite/internal/model"
)

func newTestTagger(t *testing.T, cfg model.EntityConfig) *Tagger {
	t.Helper()
	tagger, err := NewTagger(cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return tagger
}

func contains(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

func TestTagger_VocabularyMatch(t *testing.T) {
	tagger := newTestTagger(t, model.EntityConfig{})

	tags := tagger.Tag("MySpace lost its crown to Facebook while Tom Anderson moved on.")

	for _, want := range []string{"MySpace", "Facebook", "Tom Anderson"} {
		if !contains(tags, want) {
			t.Errorf("Expected tag %q, got %v", want, tags)
		}
	}
}

func TestTagger_CaseSensitiveVocabulary(t *testing.T) {
	tagger := newTestTagger(t, model.EntityConfig{})

	tags := tagger.Tag("the myspace era was lowercase throughout")

	if contains(tags, "MySpace") {
		t.Errorf("Expected no vocabulary match for lowercased mention, got %v", tags)
	}
}

func TestTagger_ProperNounFallback(t *testing.T) {
	tagger := newTestTagger(t, model.EntityConfig{})

	tags := tagger.Tag("Everyone downloaded Winamp before Spotify existed.")

	if !contains(tags, "Winamp") {
		t.Errorf("Expected proper-noun tag Winamp, got %v", tags)
	}
}

func TestTagger_StopwordFiltering(t *testing.T) {
	tagger := newTestTagger(t, model.EntityConfig{})

	tags := tagger.Tag("The Meanwhile This That nothing here is an entity")

	for _, tag := range tags {
		if stopwords[tag] {
			t.Errorf("Stopword %q leaked into tags %v", tag, tags)
		}
	}
}

func TestTagger_LeadingStopwordTrimmed(t *testing.T) {
	tagger := newTestTagger(t, model.EntityConfig{})

	tags := tagger.Tag("The Friendster crowd migrated quickly.")

	if !contains(tags, "Friendster") {
		t.Errorf("Expected Friendster after leading-stopword trim, got %v", tags)
	}
	if contains(tags, "The Friendster") {
		t.Errorf("Expected leading stopword trimmed, got %v", tags)
	}
}

func TestTagger_SortedAndCapped(t *testing.T) {
	tagger := newTestTagger(t, model.EntityConfig{MaxTags: 3})

	tags := tagger.Tag("Google bought YouTube while Yahoo passed on Facebook and Microsoft watched Apple.")

	if len(tags) != 3 {
		t.Fatalf("Expected tags capped at 3, got %d: %v", len(tags), tags)
	}
	for i := 1; i < len(tags); i++ {
		if tags[i-1] > tags[i] {
			t.Errorf("Expected sorted tags, got %v", tags)
		}
	}
}

func TestTagger_Deterministic(t *testing.T) {
	tagger := newTestTagger(t, model.EntityConfig{})

	text := "Napster, LimeWire, and Kazaa all died; Spotify took the spoils."
	first := tagger.Tag(text)
	for i := 0; i < 5; i++ {
		again := tagger.Tag(text)
		if len(again) != len(first) {
			t.Fatalf("Expected deterministic output, got %v then %v", first, again)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("Expected deterministic output, got %v then %v", first, again)
			}
		}
	}
}

func TestLoadVocabulary_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	data := "platforms:\n  - Ello\n  - Peach\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write vocab file: %v", err)
	}

	v, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(v.Platforms) != 2 || v.Platforms[0] != "Ello" {
		t.Errorf("Expected overridden platforms, got %v", v.Platforms)
	}
	if len(v.Companies) == 0 || len(v.Figures) == 0 {
		t.Error("Expected empty sections to fall back to built-in lists")
	}
}

func TestNewTagger_MissingVocabFileFails(t *testing.T) {
	_, err := NewTagger(model.EntityConfig{VocabFile: filepath.Join(t.TempDir(), "absent.yaml")})
	if err == nil {
		t.Fatal("Expected error for missing vocabulary file")
	}
}
