package format

import "testing"

func TestMoney(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{5, "$5.00"},
		{1234.5, "$1,234.50"},
		{1234567.8, "$1,234,567.80"},
		{999, "$999.00"},
		{1000, "$1,000.00"},
		{-42.75, "-$42.75"},
	}
	for _, tc := range cases {
		if got := Money(tc.in); got != tc.want {
			t.Errorf("Money(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuantity(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{0, "0"},
		{2.5, "2.5"},
		{10, "10"},
	}
	for _, tc := range cases {
		if got := Quantity(tc.in); got != tc.want {
			t.Errorf("Quantity(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitle(t *testing.T) {
	cases := []struct{ in, want string }{
		{"iron sword", "Iron Sword"},
		{"  spaced   out ", "Spaced Out"},
		{"x", "X"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Title(tc.in); got != tc.want {
			t.Errorf("Title(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := EscapeMarkdown("a_b*c[d`e"); got != "a\\_b\\*c\\[d\\`e" {
		t.Errorf("EscapeMarkdown = %q", got)
	}
	if got := EscapeMarkdown("plain text"); got != "plain text" {
		t.Errorf("EscapeMarkdown changed plain text: %q", got)
	}
}
