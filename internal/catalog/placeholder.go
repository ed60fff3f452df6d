package catalog

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
)

// placeholderColors are background/foreground hex pairs.
var placeholderColors = [][2]string{
	{"1a1a2e", "e94560"},
	{"16213e", "f5f5f5"},
	{"0f3460", "e2e2e2"},
	{"2d132c", "ee4540"},
	{"222831", "00adb5"},
	{"393e46", "ffd369"},
	{"3a0ca3", "f1faee"},
	{"264653", "e9c46a"},
}

// Placeholder returns a poster URL rendered from the title. The same title
// always yields the same colours.
func Placeholder(title string) string {
	title = strings.TrimSpace(title)
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(title)))
	c := placeholderColors[h.Sum32()%uint32(len(placeholderColors))]

	text := title
	if text == "" {
		text = "No Poster"
	}
	return fmt.Sprintf("https://placehold.co/300x450/%s/%s?text=%s", c[0], c[1], url.QueryEscape(text))
}
