package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range []string{PresetChatbot, PresetTaskAgent, PresetPersonalAssistant, PresetResearcher} {
		c, err := Preset(name)
		if err != nil {
			t.Fatalf("preset %s: %v", name, err)
		}
		if err := c.Validate(); err != nil {
			t.Fatalf("preset %s should validate, got %v", name, err)
		}
	}
}

func TestUnknownPreset(t *testing.T) {
	if _, err := Preset("nonexistent"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestValidateRejectsDemoteAbovePromote(t *testing.T) {
	c := Default()
	c.DemoteThreshold = c.PromoteThreshold + 1
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error when demote threshold exceeds promote threshold")
	}
}

func TestValidateRejectsMu2AboveMu1(t *testing.T) {
	c := Default()
	c.Mu2 = c.Mu1 + 1
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error when mu2 exceeds mu1")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	v := viper.New()
	c, err := Load(v, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DBPath != "engram.db" {
		t.Fatalf("expected default db path, got %s", c.DBPath)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("loaded config should validate, got %v", err)
	}
}
