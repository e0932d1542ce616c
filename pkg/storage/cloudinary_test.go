package storage

import "testing"

func TestExtractPublicID(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1712/ads/bike.webp": "ads/bike",
		"https://res.cloudinary.com/demo/image/upload/ads/nested/bike.jpg": "ads/nested/bike",
		"https://res.cloudinary.com/demo/image/upload/versioned.png":       "versioned",
		"/images/placeholder.jpg":                                          "",
		"https://example.com/image/upload/v1/ads/bike.webp":                "",
		"https://res.cloudinary.com/demo/image/fetch/bike.webp":            "",
	}

	for in, want := range cases {
		if got := extractPublicID(in); got != want {
			t.Errorf("extractPublicID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsImage(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.webp", "e.gif"} {
		if !IsImage(name) {
			t.Errorf("%s should be accepted", name)
		}
	}
	for _, name := range []string{"a.pdf", "b", "c.exe", "d.svg"} {
		if IsImage(name) {
			t.Errorf("%s should be rejected", name)
		}
	}
}
