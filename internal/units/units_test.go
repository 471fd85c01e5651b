package units

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"M²", "m2"},
		{"M^3", "m3"},
		{"Ls", "ls"},
		{"㎡", "m2"},
		{"㎥", "m3"},
		{"m 2", "m2"},
		{"Meter", "m"},
		{"Buah", "bh"},
		{"m1", "m"},
		{"M'", "m"},
		{"m’", "m"},
		{"kg/m2", "kg/m2"},
		{"  BH  ", "bh"},
		{"", ""},
		{"   ", ""},
		{"!!", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestInferFromDescription(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		// Explicit unit mentions.
		{"Pemasangan 1 m2 Dinding Keramik", "m2"},
		{"Beton K300 5 m3", "m3"},
		{"Pemasangan 1 m' Plint Keramik", "m"},
		{"Pembersihan lokasi 1 ls", "ls"},
		{"Pemasangan lampu 5 bh", "bh"},
		{"Besi polos 12 kg", "kg"},
		{"Pengukuran lahan 12 m² persil", "m2"},
		{"Pasang kabel 1 m dari panel", "m"},

		// Keyword fallbacks.
		{"Galian tanah biasa", "m3"},
		{"Urugan pasir dipadatkan", "m3"},
		{"Pengecatan dinding interior", "m2"},
		{"Pemasangan keramik 40x40", "m2"},
		{"Mobilisasi alat berat", "ls"},
		{"Pembuatan papan nama proyek", "ls"},
		{"Pemasangan pipa PVC", "m"},
		{"Pembesian dengan besi beton", "m"},
		{"Pemasangan pintu panel", "bh"},
		{"Pemasangan kran air", "bh"},

		// Plint and lis items are linear despite naming area materials.
		{"Pasang plint keramik", "m"},
		{"Pasang lis gypsum", "m"},

		// Priority: preparation items beat material keywords.
		{"Persiapan lahan dan perataan tanah", "ls"},
		// Volume beats area when both keyword lists hit.
		{"Galian tanah untuk lantai kerja", "m3"},

		{"Pekerjaan tanpa petunjuk satuan", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := InferFromDescription(tt.description); got != tt.want {
			t.Errorf("InferFromDescription(%q) = %q, want %q", tt.description, got, tt.want)
		}
	}
}

func TestInferLinearMeterNotGreedy(t *testing.T) {
	// "1 m 2" style strings denote area, not length.
	if got := InferFromDescription("pasang ubin 1 m 2"); got == "m" {
		t.Errorf("InferFromDescription should not read %q as linear meter", "pasang ubin 1 m 2")
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		inferred string
		user     string
		want     bool
	}{
		{"m2", "m2", true},
		{"m", "m2", false},
		{"m", "m1", true},
		{"bh", "buah", true},
		{"bh", "set", true},
		{"ls", "paket", true},
		{"lumpsum", "ls", true},
		{"kg", "kilogram", true},
		{"m2", "M²", true},
		{"m3", "m2", false},
		{"", "m2", false},
		{"m2", "", true},
		{"", "", true},
		{"m2", "??", false},
	}

	for _, tt := range tests {
		if got := Compatible(tt.inferred, tt.user); got != tt.want {
			t.Errorf("Compatible(%q, %q) = %v, want %v", tt.inferred, tt.user, got, tt.want)
		}
	}
}
