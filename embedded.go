package instagram

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Rendered Instagram pages inline their data in heterogeneous script bodies,
// and the shape shifts between rollouts. Each known shape gets a named parser;
// the first one to produce a result wins. Keeping them in an ordered list
// keeps the sniffing isolated and testable per shape.

var sharedDataRe = regexp.MustCompile(`window\._sharedData\s*=\s*`)

type profileParser struct {
	name  string
	parse func(script string) (*rawGraphUser, bool)
}

var profileParsers = []profileParser{
	{"shared-data", sharedDataProfile},
	{"inline-user", inlineGraphUser},
}

// findProfilePayload runs the profile parsers over every script body and
// returns the first parsed user plus the name of the parser that matched.
func findProfilePayload(scripts []string) (*rawGraphUser, string, bool) {
	for _, script := range scripts {
		for _, p := range profileParsers {
			if u, ok := p.parse(script); ok {
				return u, p.name, true
			}
		}
	}
	return nil, "", false
}

// sharedDataProfile parses the legacy window._sharedData assignment and pulls
// the user out of entry_data.ProfilePage.
func sharedDataProfile(script string) (*rawGraphUser, bool) {
	data, ok := sharedData(script)
	if !ok {
		return nil, false
	}
	pages := data.EntryData.ProfilePage
	if len(pages) == 0 || pages[0].GraphQL.User == nil {
		return nil, false
	}
	return pages[0].GraphQL.User, true
}

// inlineGraphUser handles scripts that embed a bare "user":{...} object next
// to a profilePage_ marker. The object is cut out with a balanced-brace scan
// because its tail varies between rollouts.
func inlineGraphUser(script string) (*rawGraphUser, bool) {
	if !strings.Contains(script, "profilePage_") {
		return nil, false
	}
	obj, ok := jsonObjectAfter(script, `"user":`)
	if !ok {
		return nil, false
	}
	var u rawGraphUser
	if err := json.Unmarshal([]byte(obj), &u); err != nil || u.Username == "" {
		return nil, false
	}
	return &u, true
}

type reelParser struct {
	name  string
	parse func(script string) (*rawShortcodeMedia, bool)
}

var reelParsers = []reelParser{
	{"shared-data", sharedDataMedia},
	{"inline-media", inlineShortcodeMedia},
}

// findReelPayload runs the reel parsers over every script body and returns
// the first parsed media blob plus the name of the parser that matched.
func findReelPayload(scripts []string) (*rawShortcodeMedia, string, bool) {
	for _, script := range scripts {
		for _, p := range reelParsers {
			if m, ok := p.parse(script); ok {
				return m, p.name, true
			}
		}
	}
	return nil, "", false
}

// sharedDataMedia pulls shortcode_media out of entry_data.PostPage.
func sharedDataMedia(script string) (*rawShortcodeMedia, bool) {
	data, ok := sharedData(script)
	if !ok {
		return nil, false
	}
	pages := data.EntryData.PostPage
	if len(pages) == 0 || pages[0].GraphQL.ShortcodeMedia == nil {
		return nil, false
	}
	return pages[0].GraphQL.ShortcodeMedia, true
}

// inlineShortcodeMedia handles scripts that embed "shortcode_media":{...}
// outside a _sharedData assignment.
func inlineShortcodeMedia(script string) (*rawShortcodeMedia, bool) {
	obj, ok := jsonObjectAfter(script, `"shortcode_media":`)
	if !ok {
		return nil, false
	}
	var m rawShortcodeMedia
	if err := json.Unmarshal([]byte(obj), &m); err != nil || m.Shortcode == "" {
		return nil, false
	}
	return &m, true
}

// sharedData locates and parses the window._sharedData assignment.
func sharedData(script string) (*rawSharedData, bool) {
	loc := sharedDataRe.FindStringIndex(script)
	if loc == nil {
		return nil, false
	}
	obj, ok := balancedJSONObject(script[loc[1]:])
	if !ok {
		return nil, false
	}
	var data rawSharedData
	if err := json.Unmarshal([]byte(obj), &data); err != nil {
		return nil, false
	}
	return &data, true
}

// jsonObjectAfter finds marker in s and cuts out the JSON object that follows.
func jsonObjectAfter(s, marker string) (string, bool) {
	idx := strings.Index(s, marker)
	if idx == -1 {
		return "", false
	}
	return balancedJSONObject(s[idx+len(marker):])
}

// balancedJSONObject returns the leading JSON object of s, found by walking
// braces while skipping string literals and escapes.
func balancedJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

var pathShortcodeRe = regexp.MustCompile(`/(reel|p)/([A-Za-z0-9_-]+)`)

// shortcodeFromPath pulls the shortcode out of a /reel/<code>/ or /p/<code>/
// link path. Used when collecting anchors from a rendered page.
func shortcodeFromPath(path string) (string, bool) {
	m := pathShortcodeRe.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[2], true
}
