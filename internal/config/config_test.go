package config

import "testing"

func TestParseValid(t *testing.T) {
	doc := []byte(`
RandSeed: 42
IsShowRandSeed: true
WindowSizeX: 1280
WindowSizeY: 720
SceneSizeX: 2000
SceneSizeY: 2000
SceneSizeZ: 1000
`)
	s, err := parse(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.RandSeed != 42 || s.WindowSizeX != 1280 || s.SceneSizeZ != 1000 {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestParseMissingKey(t *testing.T) {
	doc := []byte(`
IsShowRandSeed: true
WindowSizeX: 1280
WindowSizeY: 720
SceneSizeX: 2000
SceneSizeY: 2000
SceneSizeZ: 1000
`)
	_, err := parse(doc)
	if err == nil {
		t.Fatal("expected an error for a missing RandSeed key")
	}
}

func TestDefaultMatchesNormativeConstants(t *testing.T) {
	d := Default()
	if d.WindowSizeX != 1280 || d.WindowSizeY != 720 {
		t.Fatalf("unexpected default window size: %dx%d", d.WindowSizeX, d.WindowSizeY)
	}
}
