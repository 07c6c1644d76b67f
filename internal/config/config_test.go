package config

import "testing"

func TestValidateConfigRequiresDatabaseURL(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: ""},
		Run:      RunConfig{TimeoutDefaultSeconds: 120, TimeoutMaxSeconds: 7200},
	}
	if err := validateConfig(cfg); err == nil {
		t.Fatal("expected an error when Database.URL is empty")
	}
}

func TestValidateConfigRejectsNonPositiveTimeout(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: "postgresql://x"},
		Run:      RunConfig{TimeoutDefaultSeconds: 0, TimeoutMaxSeconds: 7200},
	}
	if err := validateConfig(cfg); err == nil {
		t.Fatal("expected an error when TimeoutDefaultSeconds is zero")
	}
}

func TestValidateConfigRejectsDefaultAboveMax(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: "postgresql://x"},
		Run:      RunConfig{TimeoutDefaultSeconds: 9000, TimeoutMaxSeconds: 7200},
	}
	if err := validateConfig(cfg); err == nil {
		t.Fatal("expected an error when the default timeout exceeds the max")
	}
}

func TestValidateConfigAcceptsWellFormedConfig(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: "postgresql://x"},
		Run:      RunConfig{TimeoutDefaultSeconds: 120, TimeoutMaxSeconds: 7200},
	}
	if err := validateConfig(cfg); err != nil {
		t.Errorf("validateConfig() = %v, want nil", err)
	}
}
