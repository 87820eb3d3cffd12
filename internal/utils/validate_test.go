package utils

import "testing"

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"  Jane.Doe@Example.COM ", "jane.doe@example.com"},
		{"asha@gym.test", "asha@gym.test"},
		{"\tBEN@GYM.TEST\n", "ben@gym.test"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeEmail(tt.in); got != tt.expected {
				t.Errorf("NormalizeEmail(%q) = %q, expected %q", tt.in, got, tt.expected)
			}
		})
	}
}
