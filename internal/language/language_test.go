package language

import "testing"

func TestToISO2(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"english", "en"},
		{"tur", "tr"},
		{"fre", "fr"},
		{"pt-BR", "pt"},
		{"zh_CN", "zh"},
		{"xx", "xx"},
		{"xyz", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ToISO2(tc.in); got != tc.want {
			t.Errorf("ToISO2(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestKnown(t *testing.T) {
	if !Known("tr") {
		t.Fatal("expected Turkish to be known")
	}
	if Known("xx") {
		t.Fatal("expected xx to be unknown")
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"tr", "Turkish"},
		{"chinese", "Chinese"},
		{"", "Unknown"},
		{"xx", "Xx"},
	}
	for _, tc := range cases {
		if got := DisplayName(tc.in); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSupportedContainsPipelineDefaults(t *testing.T) {
	supported := Supported()
	found := map[string]bool{}
	for _, code := range supported {
		found[code] = true
	}
	for _, code := range []string{"en", "tr"} {
		if !found[code] {
			t.Fatalf("expected %q in supported set %v", code, supported)
		}
	}
}
