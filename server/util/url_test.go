package util

import "testing"

func TestUrlIsSupported(t *testing.T) {
	if !UrlIsSupported("https://example.org", "https://example.org/2020/10/24/testing") {
		t.Fatal("expected url on this site to be supported")
	}

	if UrlIsSupported("https://example.org", "https://other.example/2020/10/24/testing") {
		t.Fatal("expected foreign url to be unsupported")
	}
}

func TestSlugFromPostURL(t *testing.T) {
	t.Run("strips site prefix keeping date path", func(t *testing.T) {
		got, err := SlugFromPostURL("https://example.org", "https://example.org/2020/10/24/testing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "2020/10/24/testing" {
			t.Fatalf("unexpected slug %q", got)
		}
	})

	t.Run("trailing slash on base is tolerated", func(t *testing.T) {
		got, err := SlugFromPostURL("https://example.org/", "https://example.org/2020/10/24/testing/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "2020/10/24/testing" {
			t.Fatalf("unexpected slug %q", got)
		}
	})

	t.Run("foreign url is rejected", func(t *testing.T) {
		if _, err := SlugFromPostURL("https://example.org", "https://other.example/post"); err == nil {
			t.Fatal("expected error for foreign url")
		}
	})

	t.Run("bare site url has no slug", func(t *testing.T) {
		if _, err := SlugFromPostURL("https://example.org", "https://example.org/"); err == nil {
			t.Fatal("expected error for empty slug")
		}
	})
}
