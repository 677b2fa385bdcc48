package models

import "testing"

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"john.doe@mail.com", true},
		{"john_doe@mail.in", true},
		{"jd42@example.org", true},
		{"bad-email", false},
		{"john..doe@mail.com", false},
		{"j@mail.com", false},
		{"john@mail.info", false},
		{"john@mail", false},
		{"John@mail.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, expected %v", tt.email, got, tt.want)
		}
	}
}
