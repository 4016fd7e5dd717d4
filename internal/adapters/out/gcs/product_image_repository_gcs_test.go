package gcs

import (
	"strings"
	"testing"
)

func TestObjectPath(t *testing.T) {
	cases := []struct {
		prefix, mediaType string
		wantPrefix        string
	}{
		{"products", "image/png", "products/abc"},
		{"/products/", "image/png", "products/abc"},
		{"", "image/png", "abc"},
	}
	for _, tc := range cases {
		got := ObjectPath(tc.prefix, "abc", tc.mediaType)
		if !strings.HasPrefix(got, tc.wantPrefix) || !strings.HasSuffix(got, ".png") {
			t.Errorf("ObjectPath(%q, %q) = %q", tc.prefix, tc.mediaType, got)
		}
	}

	if got := ObjectPath("p", "abc", "image/x-unknown-thing"); got != "p/abc" {
		t.Errorf("unknown type = %q", got)
	}
}

func TestPublicURL(t *testing.T) {
	if got := PublicURL(" shop-img ", "/products/a.png"); got != "https://storage.googleapis.com/shop-img/products/a.png" {
		t.Fatalf("url = %s", got)
	}
}
