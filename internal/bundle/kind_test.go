package bundle

import "testing"

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"skill", Skill, false},
		{"hook", Hook, false},
		{"", "", true},
		{"Skill", "", true},
		{"plugin", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseKind(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkerAndManifestNames(t *testing.T) {
	if got := Skill.Marker(); got != "SKILL.md" {
		t.Errorf("Skill.Marker() = %q", got)
	}
	if got := Hook.Marker(); got != "HOOK.md" {
		t.Errorf("Hook.Marker() = %q", got)
	}
	names := Skill.ManifestNames()
	if len(names) == 0 || names[0] != "skill.yaml" {
		t.Errorf("Skill.ManifestNames() = %v, want skill.yaml first", names)
	}
	names = Hook.ManifestNames()
	if len(names) == 0 || names[0] != "hook.yaml" {
		t.Errorf("Hook.ManifestNames() = %v, want hook.yaml first", names)
	}
}
