package stringsx

import "testing"

func TestFirstChar(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		wantLower string
		wantUpper string
	}{
		{
			name:      "exported name",
			input:     "Substring",
			wantLower: "substring",
			wantUpper: "Substring",
		},
		{
			name:      "unexported name",
			input:     "setName",
			wantLower: "setName",
			wantUpper: "SetName",
		},
		{
			name:      "empty string",
			input:     "",
			wantLower: "",
			wantUpper: "",
		},
		{
			name:      "unicode",
			input:     "Éclair",
			wantLower: "éclair",
			wantUpper: "Éclair",
		},
		{
			name:      "single rune",
			input:     "x",
			wantLower: "x",
			wantUpper: "X",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LowerFirstChar(tc.input); got != tc.wantLower {
				t.Errorf("LowerFirstChar(%q) = %q, want %q", tc.input, got, tc.wantLower)
			}
			if got := UpperFirstChar(tc.input); got != tc.wantUpper {
				t.Errorf("UpperFirstChar(%q) = %q, want %q", tc.input, got, tc.wantUpper)
			}
		})
	}
}

func TestOneOfBasic(t *testing.T) {
	if !OneOf("exported", "permissive", "exported") {
		t.Error("expected match")
	}
	if OneOf("sandbox", "permissive", "exported") {
		t.Error("unexpected match")
	}
	if OneOf("x") {
		t.Error("empty list must not match")
	}
}
