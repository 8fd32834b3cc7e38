package manifest

import "testing"

func TestValidateAcceptsWellFormedManifest(t *testing.T) {
	result, err := Validate([]byte(`name: code-reviewer
description: Reviews pull requests
category: engineering
version: "1.0.0"
tags: [review]
resources: [prompts/system.md]
`))
	if err != nil {
		t.Fatal(err)
	}
	if !result.Valid {
		t.Fatalf("expected valid, got issues: %v", result.Issues)
	}
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
	}{
		{
			name:     "missing name",
			doc:      "description: no name here\n",
			wantPath: "",
		},
		{
			name:     "name not a slug",
			doc:      "name: \"Has Spaces\"\n",
			wantPath: "/name",
		},
		{
			name:     "tags not strings",
			doc:      "name: ok\ntags: [1, 2]\n",
			wantPath: "/tags/0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Validate([]byte(tt.doc))
			if err != nil {
				t.Fatal(err)
			}
			if result.Valid {
				t.Fatal("expected findings")
			}
			found := false
			for _, issue := range result.Issues {
				if issue.Path == tt.wantPath {
					found = true
				}
				if issue.Message == "" {
					t.Errorf("issue without message: %+v", issue)
				}
			}
			if !found {
				t.Errorf("no issue at path %q, got %v", tt.wantPath, result.Issues)
			}
		})
	}
}

func TestValidateRejectsMalformedYAML(t *testing.T) {
	if _, err := Validate([]byte("name: [unclosed")); err == nil {
		t.Fatal("malformed YAML should be an error, not a finding")
	}
}
