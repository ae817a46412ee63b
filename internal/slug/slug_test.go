package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple two words", "Hello World", "hello-world"},
		{"vintage", "Rioja Gran Reserva 2015", "rioja-gran-reserva-2015"},
		{"punctuation marks", "Jack Daniel's Old No. 7", "jack-daniels-old-no-7"},
		{"ampersand", "Berry Bros & Rudd", "berry-bros-rudd"},
		{"parentheses", "Lagavulin (16 Year)", "lagavulin-16-year"},
		{"accents", "Château Margaux", "chateau-margaux"},
		{"polish", "Żubrówka Bison Grass", "zubrowka-bison-grass"},
		{"german sharp s", "Weißbier", "weissbier"},
		{"nordic", "Ølfabrikken Ærø", "olfabrikken-aero"},
		{"umlauts", "Jägermeister Kräuterlikör", "jagermeister-krauterlikor"},
		{"spanish tilde", "Añejo Tequila", "anejo-tequila"},
		{"underscores become hyphens", "single_malt_scotch", "single-malt-scotch"},
		{"collapse separators", "Talisker  --  Storm", "talisker-storm"},
		{"leading and trailing junk", "  --Ardbeg--  ", "ardbeg"},
		{"tabs and newlines", "Port\tCharlotte\nPC10", "port-charlotte-pc10"},
		{"non latin dropped", "Sake 日本酒", "sake"},
		{"only symbols", "!@#$%", ""},
		{"empty", "", ""},
		{"already a slug", "glenfiddich-12", "glenfiddich-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateMaxLength(t *testing.T) {
	long := strings.Repeat("highland ", 20)
	got := Generate(long)
	if len(got) > MaxLength {
		t.Errorf("len = %d, want <= %d", len(got), MaxLength)
	}
	if strings.HasSuffix(got, "-") || strings.HasSuffix(got, "highlan") {
		t.Errorf("slug cut mid-word or with a trailing hyphen: %q", got)
	}

	// A single word longer than the cap is cut hard.
	word := strings.Repeat("a", MaxLength+10)
	if got := Generate(word); len(got) != MaxLength {
		t.Errorf("single long word: len = %d, want %d", len(got), MaxLength)
	}
}

func TestGenerateIdempotent(t *testing.T) {
	for _, in := range []string{"Château Margaux 2015", "Weißbier", "Lagavulin (16 Year)"} {
		once := Generate(in)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate(Generate(%q)) = %q, want %q", in, twice, once)
		}
	}
}
