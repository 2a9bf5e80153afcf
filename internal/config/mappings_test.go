package config_test

import (
	"testing"

	"drivemover/internal/config"
)

func TestParseMappings(t *testing.T) {
	mappings, dropped := config.ParseMappings(" /src/a -> /dst/a ,movies->/Media/Movies,,nope,/only->, ->/t")
	want := []config.PathMapping{
		{Source: "/src/a", Target: "/dst/a"},
		{Source: "/movies", Target: "/Media/Movies"},
	}
	if len(mappings) != len(want) {
		t.Fatalf("unexpected mappings: %+v", mappings)
	}
	for i := range want {
		if mappings[i] != want[i] {
			t.Fatalf("mapping %d: got %+v want %+v", i, mappings[i], want[i])
		}
	}
	if len(dropped) != 3 {
		t.Fatalf("expected three dropped entries, got %q", dropped)
	}
	if mappings[0].String() != "/src/a->/dst/a" {
		t.Fatalf("unexpected String(): %q", mappings[0].String())
	}
}
