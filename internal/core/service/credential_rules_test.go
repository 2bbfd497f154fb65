package service

import (
	"regexp"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"test@example.com", "first.last+tag@sub.domain.io"}
	invalid := []string{"", "invalid-email", "a@b", "a b@example.com", "@example.com", "user@.", "user@@example.com"}

	for _, s := range valid {
		if !ValidateEmail(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if ValidateEmail(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	weak := ValidatePassword("123")
	if weak.Valid || len(weak.Errors) == 0 {
		t.Fatalf("expected weak password to fail, got %+v", weak)
	}
	// "123" violates length, upper, lower and symbol rules.
	if len(weak.Errors) != 4 {
		t.Fatalf("expected every violated rule to be reported, got %v", weak.Errors)
	}

	strong := ValidatePassword("SecurePass123!")
	if !strong.Valid || len(strong.Errors) != 0 {
		t.Fatalf("expected strong password to pass, got %+v", strong)
	}

	empty := ValidatePassword("")
	if len(empty.Errors) != 5 {
		t.Fatalf("expected all five rules to fail for empty password, got %v", empty.Errors)
	}

	noSymbol := ValidatePassword("SecurePass123")
	if noSymbol.Valid || len(noSymbol.Errors) != 1 || !strings.Contains(noSymbol.Errors[0], "special character") {
		t.Fatalf("expected only the symbol rule to fail, got %v", noSymbol.Errors)
	}
}

func TestSanitizeInput(t *testing.T) {
	cases := map[string]string{
		`  hello world  `:                     "hello world",
		`<b>bold</b>`:                         "bbold/b",
		`JavaScript:alert(1)`:                 "alert(1)",
		`<img src=x onerror=alert(1)>`:        "img src=x alert(1)",
		`javajavascript:script:void(0)`:       "void(0)",
		`Casa en <script>evil()</script>Lima`: "Casa en Lima",
	}
	for in, want := range cases {
		if got := SanitizeInput(in); got != want {
			t.Errorf("SanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}

	out := SanitizeInput(`<script>alert("xss")</script>`)
	if strings.Contains(out, "<script>") || strings.Contains(out, "alert(") {
		t.Fatalf("script payload survived sanitising: %q", out)
	}
}

var (
	jsSchemeCheck = regexp.MustCompile(`(?i)javascript:`)
	handlerCheck  = regexp.MustCompile(`(?i)on\w+=`)
)

func TestSanitizeInput_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.OneOf(
			rapid.String(),
			rapid.StringMatching(`[ <>a-z:=]{0,40}`),
			rapid.StringMatching(`(java|script|on|click|=|<|>|:| ){0,12}`),
		).Draw(t, "input")

		out := SanitizeInput(in)
		if strings.ContainsAny(out, "<>") {
			t.Fatalf("angle bracket survived: %q -> %q", in, out)
		}
		if jsSchemeCheck.MatchString(out) || handlerCheck.MatchString(out) {
			t.Fatalf("denylisted pattern survived: %q -> %q", in, out)
		}
		if out != strings.TrimSpace(out) {
			t.Fatalf("output not trimmed: %q", out)
		}
		if SanitizeInput(out) != out {
			t.Fatalf("sanitising is not idempotent for %q", in)
		}
	})
}
