package util

import (
	"testing"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"abc", "user_01", "Harish", "a1234567890123456789"}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("ValidateUsername(%q) error = %v, want nil", u, err)
		}
	}

	invalid := []string{"", "ab", "with space", "too_long_username_over_20", "bad-char!"}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("ValidateUsername(%q) error = nil, want error", u)
		}
	}
}

func TestValidateDifficulty(t *testing.T) {
	for _, d := range []string{"easy", "medium", "hard"} {
		if err := ValidateDifficulty(d); err != nil {
			t.Errorf("ValidateDifficulty(%q) error = %v, want nil", d, err)
		}
	}
	for _, d := range []string{"", "Medium", "expert"} {
		if err := ValidateDifficulty(d); err == nil {
			t.Errorf("ValidateDifficulty(%q) error = nil, want error", d)
		}
	}
}

func TestValidateTopic(t *testing.T) {
	if err := ValidateTopic("Goroutines"); err != nil {
		t.Errorf("ValidateTopic error = %v, want nil", err)
	}
	if err := ValidateTopic("   "); err == nil {
		t.Error("blank topic error = nil, want error")
	}

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	if err := ValidateTopic(string(long)); err == nil {
		t.Error("oversized topic error = nil, want error")
	}
}

func TestSanitizeTitlePart(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Learn Go", "Learn_Go"},
		{"C++ basics!", "C_basics"},
		{"  data science  ", "data_science"},
		{"!!!", "Session"},
		{"", "Session"},
	}
	for _, tc := range cases {
		if got := SanitizeTitlePart(tc.in); got != tc.want {
			t.Errorf("SanitizeTitlePart(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsStrongPassword(t *testing.T) {
	strong := []string{"Abcdefg1", "MyPassword123", "Aa1Aa1Aa1"}
	for _, p := range strong {
		if !IsStrongPassword(p) {
			t.Errorf("IsStrongPassword(%q) = false, want true", p)
		}
	}

	weak := []string{"", "short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"}
	for _, p := range weak {
		if IsStrongPassword(p) {
			t.Errorf("IsStrongPassword(%q) = true, want false", p)
		}
	}
}
