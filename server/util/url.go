package util

import (
	"fmt"
	"strings"

	storageutil "github.com/indieinfra/inkwell/storage/util"
)

func UrlIsSupported(publicUrl string, url string) bool {
	return strings.HasPrefix(url, storageutil.NormalizeBaseURL(publicUrl))
}

// SlugFromPostURL strips the site prefix from a post URL. Slugs carry their
// date path, so everything after the base is the slug, not just the final
// segment.
func SlugFromPostURL(publicUrl string, url string) (string, error) {
	base := storageutil.NormalizeBaseURL(publicUrl)
	if !strings.HasPrefix(url, base) {
		return "", fmt.Errorf("url %q does not belong to this site", url)
	}

	slug := strings.Trim(strings.TrimPrefix(url, base), "/")
	if slug == "" {
		return "", fmt.Errorf("url does not have a valid slug")
	}

	return slug, nil
}
