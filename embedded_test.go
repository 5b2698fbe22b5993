package instagram

import "testing"

// ---------------------------------------------------------------------------
// Embedded payload sniffing tests
// ---------------------------------------------------------------------------

const sharedDataProfileScript = `window._sharedData = {"entry_data":{"ProfilePage":[{"graphql":{"user":{` +
	`"id":"42","username":"embedded_user","full_name":"Embedded","is_private":false,"is_verified":true,` +
	`"edge_followed_by":{"count":10},"edge_follow":{"count":2},` +
	`"edge_owner_to_timeline_media":{"count":1,"edges":[{"node":{"__typename":"GraphVideo","id":"77","shortcode":"EMB1","is_video":true}}]}` +
	`}}}]}};`

const inlineUserScript = `requireLazy(["profilePage_12345"]); var x = {"user":{"id":"9","username":"inline_user",` +
	`"is_private":true,"is_verified":false,"edge_followed_by":{"count":3}}, "extra": 1};`

const sharedDataPostScript = `window._sharedData = {"entry_data":{"PostPage":[{"graphql":{"shortcode_media":{` +
	`"id":"501","shortcode":"POST1","display_url":"https://cdn.example/t.jpg","video_url":"https://cdn.example/v.mp4",` +
	`"is_video":true,"dimensions":{"width":1080,"height":1920},"taken_at_timestamp":1706000000,` +
	`"video_view_count":12,"video_duration":9.5,"owner":{"username":"poster"}}}}]}};`

const inlineMediaScript = `{"items":{"shortcode_media":{"id":"502","shortcode":"POST2","is_video":true,` +
	`"owner":{"username":"other"}}}}`

func TestFindProfilePayload_SharedData(t *testing.T) {
	t.Parallel()
	scripts := []string{"var unrelated = 1;", sharedDataProfileScript}

	user, parser, ok := findProfilePayload(scripts)
	if !ok {
		t.Fatal("expected shared-data profile to parse")
	}
	if parser != "shared-data" {
		t.Errorf("expected shared-data parser, got %q", parser)
	}
	if user.Username != "embedded_user" || user.ID != "42" {
		t.Errorf("unexpected user %+v", user)
	}
	if len(user.EdgeOwnerToTimelineMedia.Edges) != 1 {
		t.Errorf("expected timeline edge to survive, got %d", len(user.EdgeOwnerToTimelineMedia.Edges))
	}
}

func TestFindProfilePayload_InlineUser(t *testing.T) {
	t.Parallel()
	user, parser, ok := findProfilePayload([]string{inlineUserScript})
	if !ok {
		t.Fatal("expected inline user to parse")
	}
	if parser != "inline-user" {
		t.Errorf("expected inline-user parser, got %q", parser)
	}
	if user.Username != "inline_user" || !user.IsPrivate {
		t.Errorf("unexpected user %+v", user)
	}
}

func TestFindProfilePayload_InlineRequiresMarker(t *testing.T) {
	t.Parallel()
	// Same shape without the profilePage_ marker must not match.
	script := `var x = {"user":{"id":"9","username":"inline_user"}};`
	if _, _, ok := findProfilePayload([]string{script}); ok {
		t.Error("expected no match without profilePage_ marker")
	}
}

func TestFindProfilePayload_FirstParserWins(t *testing.T) {
	t.Parallel()
	script := sharedDataProfileScript + inlineUserScript
	user, parser, ok := findProfilePayload([]string{script})
	if !ok {
		t.Fatal("expected a match")
	}
	if parser != "shared-data" || user.Username != "embedded_user" {
		t.Errorf("expected shared-data to win, got %q / %+v", parser, user)
	}
}

func TestFindProfilePayload_NoMatch(t *testing.T) {
	t.Parallel()
	if _, _, ok := findProfilePayload([]string{"", "var a = {};", "window._sharedData = notjson;"}); ok {
		t.Error("expected no payload in unrelated scripts")
	}
}

func TestFindReelPayload(t *testing.T) {
	t.Parallel()
	media, parser, ok := findReelPayload([]string{"var a = 1;", sharedDataPostScript})
	if !ok {
		t.Fatal("expected shared-data media to parse")
	}
	if parser != "shared-data" {
		t.Errorf("expected shared-data parser, got %q", parser)
	}
	if media.Shortcode != "POST1" || media.Owner.Username != "poster" {
		t.Errorf("unexpected media %+v", media)
	}

	reel := parseShortcodeMedia(media)
	if reel.URL != "https://www.instagram.com/reel/POST1/" {
		t.Errorf("unexpected canonical url %q", reel.URL)
	}
	if reel.Duration != 9.5 || reel.Views != 12 {
		t.Errorf("unexpected reel %+v", reel)
	}
}

func TestFindReelPayload_InlineMedia(t *testing.T) {
	t.Parallel()
	media, parser, ok := findReelPayload([]string{inlineMediaScript})
	if !ok {
		t.Fatal("expected inline media to parse")
	}
	if parser != "inline-media" {
		t.Errorf("expected inline-media parser, got %q", parser)
	}
	if media.Shortcode != "POST2" {
		t.Errorf("unexpected media %+v", media)
	}
}

// ---------------------------------------------------------------------------
// Balanced JSON scanning tests
// ---------------------------------------------------------------------------

func TestBalancedJSONObject(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		in    string
		want  string
		found bool
	}{
		{"simple", `{"a":1}; rest`, `{"a":1}`, true},
		{"nested", `{"a":{"b":{"c":2}}} tail`, `{"a":{"b":{"c":2}}}`, true},
		{"braces in strings", `{"a":"}{","b":1}`, `{"a":"}{","b":1}`, true},
		{"escaped quotes", `{"a":"say \"hi\" {"}`, `{"a":"say \"hi\" {"}`, true},
		{"leading junk", `var x = {"a":1};`, `{"a":1}`, true},
		{"unterminated", `{"a":1`, "", false},
		{"no object", `nothing here`, "", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, found := balancedJSONObject(tt.in)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShortcodeFromPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path  string
		want  string
		found bool
	}{
		{"/reel/ABC123/", "ABC123", true},
		{"/p/Xy-z_9/", "Xy-z_9", true},
		{"/someuser/reels/", "", false},
		{"/explore/", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		tt := tt
		got, found := shortcodeFromPath(tt.path)
		if found != tt.found || got != tt.want {
			t.Errorf("shortcodeFromPath(%q) = %q, %v; want %q, %v", tt.path, got, found, tt.want, tt.found)
		}
	}
}
