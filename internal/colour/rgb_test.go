package colour

import (
	"image/color"
	"testing"
)

func TestRGBHex(t *testing.T) {
	tests := []struct {
		name string
		rgb  RGB
		want string
	}{
		{name: "black", rgb: RGB{}, want: "#000000"},
		{name: "white", rgb: RGB{R: 255, G: 255, B: 255}, want: "#ffffff"},
		{name: "mixed", rgb: RGB{R: 0x1a, G: 0x2b, B: 0x3c}, want: "#1a2b3c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rgb.Hex(); got != tt.want {
				t.Errorf("Hex() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToRGB(t *testing.T) {
	got := ToRGB(color.RGBA{R: 10, G: 20, B: 30, A: 255})
	if want := (RGB{R: 10, G: 20, B: 30}); got != want {
		t.Errorf("ToRGB() = %v, want %v", got, want)
	}
}

func TestIsValidHex(t *testing.T) {
	tests := map[string]bool{
		"#1a2b3c":  true,
		"#ABCDEF":  true,
		"1a2b3c":   false,
		"#1a2b3":   false,
		"#1a2b3c4": false,
		"#1a2b3g":  false,
		"":         false,
	}
	for in, want := range tests {
		if got := IsValidHex(in); got != want {
			t.Errorf("IsValidHex(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{in: "#ff8000", want: RGB{R: 255, G: 128, B: 0}},
		{in: "00ff00", want: RGB{G: 255}},
		{in: "#zzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHex() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseHex() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLuminanceAndIsDark(t *testing.T) {
	if l := Luminance(RGB{}); l != 0 {
		t.Errorf("Luminance(black) = %v, want 0", l)
	}
	if l := Luminance(RGB{R: 255, G: 255, B: 255}); l < 0.999 || l > 1.001 {
		t.Errorf("Luminance(white) = %v, want 1", l)
	}

	tests := []struct {
		name string
		rgb  RGB
		want bool
	}{
		{name: "black", rgb: RGB{}, want: true},
		{name: "navy", rgb: RGB{B: 128}, want: true},
		{name: "white", rgb: RGB{R: 255, G: 255, B: 255}, want: false},
		{name: "yellow", rgb: RGB{R: 255, G: 255}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDark(tt.rgb); got != tt.want {
				t.Errorf("IsDark(%v) = %v, want %v", tt.rgb, got, tt.want)
			}
		})
	}
}

func TestSwatch(t *testing.T) {
	got := Swatch(RGB{R: 1, G: 2, B: 3}, 2)
	if want := "\033[48;2;1;2;3m  \033[0m"; got != want {
		t.Errorf("Swatch() = %q, want %q", got, want)
	}

	got = SwatchWithText(RGB{R: 255, G: 255, B: 255}, "ab", 4)
	if want := "\033[48;2;255;255;255m\033[38;2;0;0;0m ab \033[0m"; got != want {
		t.Errorf("SwatchWithText() = %q, want %q", got, want)
	}
}
