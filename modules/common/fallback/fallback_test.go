package fallback

import "testing"

func TestAspectRatio(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "1:1"},
		{"16:9", "16:9"},
		{"9:16", "9:16"},
		{"4:5", "4:5"},
		{"21:9", "1:1"}, // 허용 목록 밖은 기본값
		{"wide", "1:1"},
	}
	for _, c := range cases {
		if got := AspectRatio(c.in); got != c.want {
			t.Errorf("AspectRatio(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestQuality(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "standard"},
		{"draft", "draft"},
		{"high", "high"},
		{"ultra", "standard"},
	}
	for _, c := range cases {
		if got := Quality(c.in); got != c.want {
			t.Errorf("Quality(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(15, 2, 10); got != 10 {
		t.Errorf("Clamp(15) = %d, want 10", got)
	}
	if got := Clamp(1, 2, 10); got != 2 {
		t.Errorf("Clamp(1) = %d, want 2", got)
	}
	if got := Clamp(5, 2, 10); got != 5 {
		t.Errorf("Clamp(5) = %d, want 5", got)
	}
}

func TestStringOr(t *testing.T) {
	if got := StringOr("", "instagram"); got != "instagram" {
		t.Errorf("StringOr empty = %q", got)
	}
	if got := StringOr("tiktok", "instagram"); got != "tiktok" {
		t.Errorf("StringOr set = %q", got)
	}
}
