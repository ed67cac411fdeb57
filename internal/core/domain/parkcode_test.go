package domain

import (
	"regexp"
	"testing"
)

func TestURLFriendly(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "Grand Canyon", want: "grand-canyon"},
		{name: "trim and collapse whitespace", in: "  Starved   Rock\tState Park ", want: "starved-rock-state-park"},
		{name: "apostrophe removed", in: "Bryce's Point", want: "bryces-point"},
		{name: "punctuation between words", in: "Lewis & Clark", want: "lewis-clark"},
		{name: "repeated hyphens", in: "Foo -- Bar", want: "foo-bar"},
		{name: "leading and trailing hyphens", in: "-Mesa-", want: "mesa"},
		{name: "underscore kept", in: "camp_ground 7", want: "camp_ground-7"},
		{name: "non ascii dropped", in: "Cañon City", want: "caon-city"},
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \t\n ", want: ""},
		{name: "no-break space", in: "Grand\u00a0Canyon", want: "grand-canyon"},
		{name: "em space", in: "Grand\u2003Canyon", want: "grand-canyon"},
		{name: "vertical tab", in: "Grand\vCanyon", want: "grand-canyon"},
		{name: "mixed unicode whitespace run", in: "\u00a0Grand \u2003\t Canyon\u00a0", want: "grand-canyon"},
		{name: "unicode whitespace only", in: "\u00a0\u2003\v", want: ""},
		{name: "symbols only", in: "!!!", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := URLFriendly(tt.in); got != tt.want {
				t.Errorf("URLFriendly(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDeriveParkCode(t *testing.T) {
	tests := []struct {
		name, park, state string
		want              string
	}{
		{name: "grand canyon", park: "Grand Canyon", state: "AZ", want: "grand-canyon-az"},
		{name: "no-break space matches plain space", park: "Grand\u00a0Canyon", state: "AZ", want: "grand-canyon-az"},
		{name: "state trimmed", park: "Starved Rock State Park", state: " il ", want: "starved-rock-state-park-il"},
		{name: "empty name", park: "  ", state: "IN", want: "-in"},
		{name: "empty state", park: "Yosemite", state: "", want: "yosemite-"},
		{name: "both empty", park: "", state: "", want: "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveParkCode(tt.park, tt.state); got != tt.want {
				t.Errorf("DeriveParkCode(%q, %q) = %q, want %q", tt.park, tt.state, got, tt.want)
			}
		})
	}
}

var parkCodeShape = regexp.MustCompile(`^[a-z0-9_]+(-[a-z0-9_]+)*$`)

func TestDeriveParkCode_Properties(t *testing.T) {
	inputs := [][2]string{
		{"Grand Canyon", "AZ"},
		{"  Indiana  Dunes -- National Park ", "in"},
		{"O'Hare Woods", "IL"},
		{"Mt. Rainier", "WA"},
		{"Lake_Placid 2", "NY"},
		{"---Edge---", "--TX--"},
	}
	for _, in := range inputs {
		code := DeriveParkCode(in[0], in[1])

		if again := DeriveParkCode(in[0], in[1]); again != code {
			t.Errorf("not deterministic for %q: %q vs %q", in, code, again)
		}
		if !parkCodeShape.MatchString(code) {
			t.Errorf("DeriveParkCode(%q) = %q has invalid shape", in, code)
		}

		// Re-deriving from already-normalised components is a no-op.
		name, state := URLFriendly(in[0]), URLFriendly(in[1])
		if again := DeriveParkCode(name, state); again != code {
			t.Errorf("not idempotent for %q: %q vs %q", in, code, again)
		}
		if IsDegenerateParkCode(code) {
			t.Errorf("%q unexpectedly degenerate", code)
		}
	}
}

func TestIsDegenerateParkCode(t *testing.T) {
	for code, want := range map[string]bool{
		"grand-canyon-az": false,
		"-az":             true,
		"grand-canyon-":   true,
		"-":               true,
	} {
		if got := IsDegenerateParkCode(code); got != want {
			t.Errorf("IsDegenerateParkCode(%q) = %v, want %v", code, got, want)
		}
	}
}

func TestParkClone(t *testing.T) {
	url := "https://example.org/grand-canyon"
	p := &Park{
		Name:       "Grand Canyon",
		ParkURL:    &url,
		Activities: []Activity{{Name: "Hiking", Description: "trails"}},
	}
	c := p.Clone()
	c.Activities[0].Name = "Swimming"
	*c.ParkURL = "changed"

	if p.Activities[0].Name != "Hiking" {
		t.Errorf("clone shares activities with original")
	}
	if *p.ParkURL != url {
		t.Errorf("clone shares park url with original")
	}
}
