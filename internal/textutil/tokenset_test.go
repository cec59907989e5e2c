package textutil

import "testing"

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "the matrix", "the matrix", 100},
		{"reordered", "matrix the", "the matrix", 100},
		{"subset", "alien", "alien director s cut", 100},
		{"case and punctuation", "Alien: Covenant", "alien covenant", 100},
		{"empty left", "", "alien", 0},
		{"empty both", "", "", 0},
		{"partial overlap", "star wars", "star trek", 67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenSetRatio(tt.a, tt.b); got != tt.want {
				t.Fatalf("TokenSetRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTokenSetRatioSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"blade runner", "blade runner 2049"},
		{"heat", "the heat"},
		{"amelie", "le fabuleux destin d amelie poulain"},
	}
	for _, p := range pairs {
		if TokenSetRatio(p[0], p[1]) != TokenSetRatio(p[1], p[0]) {
			t.Errorf("TokenSetRatio not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestTokenSetRatioDisjoint(t *testing.T) {
	if got := TokenSetRatio("casablanca", "zootopia"); got >= 50 {
		t.Fatalf("expected low score for unrelated titles, got %d", got)
	}
}

func TestIndelRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abc", "abc", 100},
		{"abc", "", 0},
		{"", "", 0},
		{"kitten", "sitting", 62},
	}
	for _, tt := range tests {
		if got := IndelRatio(tt.a, tt.b); got != tt.want {
			t.Errorf("IndelRatio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFileToken(t *testing.T) {
	tests := map[string]string{
		"aither":       "aither",
		"Upload.CX":    "upload_cx",
		" lst / gg ":   "lst_gg",
		"only-encodes": "only-encodes",
		"???":          "unknown",
		"":             "unknown",
	}
	for input, want := range tests {
		if got := FileToken(input); got != want {
			t.Errorf("FileToken(%q) = %q, want %q", input, got, want)
		}
	}
}
