package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy names, in priority order.
const (
	StrategyPreloadVariable = "preload_variable"
	StrategyAudioElement    = "audio_element"
	StrategyAudioSource     = "audio_source"
	StrategySoundLink       = "sound_link"
	StrategyMp3Link         = "mp3_link"
)

type strategy struct {
	name string
	find func(markup []byte, doc *goquery.Document) (string, bool)
}

// strategies run in order; the first one that finds a value wins.
var strategies = []strategy{
	{StrategyPreloadVariable, findPreloadVariable},
	{StrategyAudioElement, findAudioElement},
	{StrategyAudioSource, findAudioSource},
	{StrategySoundLink, findSoundLink},
	{StrategyMp3Link, findMp3Link},
}

var preloadPattern = regexp.MustCompile(`preloadAudioUrl\s*=\s*['"]([^'"]+)['"]`)

const soundsPathMarker = "media/sounds/"

// preloadAudioUrl = '...' assigned in an inline script
func findPreloadVariable(markup []byte, _ *goquery.Document) (string, bool) {
	m := preloadPattern.FindSubmatch(markup)
	if m == nil {
		return "", false
	}
	return nonEmpty(string(m[1]))
}

func findAudioElement(_ []byte, doc *goquery.Document) (string, bool) {
	return firstAttr(doc.Find("audio[src]"), "src", nil)
}

func findAudioSource(_ []byte, doc *goquery.Document) (string, bool) {
	return firstAttr(doc.Find("source[type^='audio/'][src]"), "src", nil)
}

func findSoundLink(_ []byte, doc *goquery.Document) (string, bool) {
	return firstAttr(doc.Find("[href]"), "href", func(v string) bool {
		return isMp3(v) && strings.Contains(v, soundsPathMarker)
	})
}

func findMp3Link(_ []byte, doc *goquery.Document) (string, bool) {
	return firstAttr(doc.Find("[href]"), "href", isMp3)
}

// firstAttr returns the first non-empty attr value in document order that passes keep.
func firstAttr(sel *goquery.Selection, attr string, keep func(string) bool) (string, bool) {
	var found string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, ok := nonEmpty(s.AttrOr(attr, ""))
		if !ok || (keep != nil && !keep(v)) {
			return true
		}
		found = v
		return false
	})
	return nonEmpty(found)
}

func isMp3(v string) bool {
	return strings.HasSuffix(strings.ToLower(v), ".mp3")
}

func nonEmpty(v string) (string, bool) {
	v = strings.TrimSpace(v)
	return v, v != ""
}
