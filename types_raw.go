package instagram

import "time"

// Raw structs match Instagram JSON exactly. Two provider shapes exist: the
// GraphQL-edge shape served by web_profile_info (and embedded in rendered
// pages), and the flat "items" shape served by the single-media endpoint.

// web_profile_info response.

type webProfileResponse struct {
	Data struct {
		User *rawGraphUser `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

type rawGraphUser struct {
	ID                       string           `json:"id"`
	Username                 string           `json:"username"`
	FullName                 string           `json:"full_name"`
	Biography                string           `json:"biography"`
	ProfilePicURL            string           `json:"profile_pic_url"`
	ProfilePicURLHD          string           `json:"profile_pic_url_hd"`
	ExternalURL              string           `json:"external_url"`
	BusinessCategoryName     string           `json:"business_category_name"`
	IsPrivate                bool             `json:"is_private"`
	IsVerified               bool             `json:"is_verified"`
	EdgeFollowedBy           rawCount         `json:"edge_followed_by"`
	EdgeFollow               rawCount         `json:"edge_follow"`
	EdgeOwnerToTimelineMedia rawTimelineMedia `json:"edge_owner_to_timeline_media"`
}

type rawCount struct {
	Count int `json:"count"`
}

type rawTimelineMedia struct {
	Count int            `json:"count"`
	Edges []rawMediaEdge `json:"edges"`
}

type rawMediaEdge struct {
	Node rawMediaNode `json:"node"`
}

type rawMediaNode struct {
	Typename             string        `json:"__typename"`
	ID                   string        `json:"id"`
	Shortcode            string        `json:"shortcode"`
	DisplayURL           string        `json:"display_url"`
	VideoURL             string        `json:"video_url"`
	IsVideo              bool          `json:"is_video"`
	ProductType          string        `json:"product_type"`
	TakenAtTimestamp     int64         `json:"taken_at_timestamp"`
	VideoViewCount       int           `json:"video_view_count"`
	VideoDuration        float64       `json:"video_duration"`
	Dimensions           rawDimensions `json:"dimensions"`
	EdgeMediaToCaption   rawCaption    `json:"edge_media_to_caption"`
	EdgeMediaPreviewLike rawCount      `json:"edge_media_preview_like"`
	EdgeMediaToComment   rawCount      `json:"edge_media_to_comment"`
}

type rawDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type rawCaption struct {
	Edges []struct {
		Node struct {
			Text string `json:"text"`
		} `json:"node"`
	} `json:"edges"`
}

// Single-media endpoint response (?__a=1&__d=dis).

type mediaInfoResponse struct {
	Items []rawMediaItem `json:"items"`
}

type rawMediaItem struct {
	ID             string            `json:"id"`
	Code           string            `json:"code"`
	VideoVersions  []rawVideoVersion `json:"video_versions"`
	ImageVersions2 rawImageVersions  `json:"image_versions2"`
	Caption        *rawItemCaption   `json:"caption"`
	User           rawItemUser       `json:"user"`
	LikeCount      int               `json:"like_count"`
	CommentCount   int               `json:"comment_count"`
	ViewCount      int               `json:"view_count"`
	PlayCount      int               `json:"play_count"`
	TakenAt        int64             `json:"taken_at"`
	OriginalWidth  int               `json:"original_width"`
	OriginalHeight int               `json:"original_height"`
	VideoDuration  float64           `json:"video_duration"`
	ProductType    string            `json:"product_type"`
}

type rawVideoVersion struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type rawImageVersions struct {
	Candidates []struct {
		URL string `json:"url"`
	} `json:"candidates"`
}

type rawItemCaption struct {
	Text string `json:"text"`
}

type rawItemUser struct {
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url"`
}

// Embedded window._sharedData shape found in rendered pages.

type rawSharedData struct {
	EntryData struct {
		ProfilePage []struct {
			GraphQL struct {
				User *rawGraphUser `json:"user"`
			} `json:"graphql"`
		} `json:"ProfilePage"`
		PostPage []struct {
			GraphQL struct {
				ShortcodeMedia *rawShortcodeMedia `json:"shortcode_media"`
			} `json:"graphql"`
		} `json:"PostPage"`
	} `json:"entry_data"`
}

type rawShortcodeMedia struct {
	ID                   string        `json:"id"`
	Shortcode            string        `json:"shortcode"`
	DisplayURL           string        `json:"display_url"`
	VideoURL             string        `json:"video_url"`
	IsVideo              bool          `json:"is_video"`
	Dimensions           rawDimensions `json:"dimensions"`
	TakenAtTimestamp     int64         `json:"taken_at_timestamp"`
	VideoViewCount       int           `json:"video_view_count"`
	VideoDuration        float64       `json:"video_duration"`
	EdgeMediaToCaption   rawCaption    `json:"edge_media_to_caption"`
	EdgeMediaPreviewLike rawCount      `json:"edge_media_preview_like"`
	EdgeMediaToComment   rawCount      `json:"edge_media_to_comment"`
	Owner                struct {
		Username string `json:"username"`
	} `json:"owner"`
}

// reelURL builds the canonical URL for a shortcode.
func reelURL(shortcode string) string {
	return "https://www.instagram.com/reel/" + shortcode + "/"
}

// epochToTime converts a platform epoch-seconds value. Zero stays the zero
// time so an unknown publish timestamp is never confused with 1970.
func epochToTime(secs int64) time.Time {
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

// parseProfile converts a raw GraphQL user to the public Profile type.
func parseProfile(u *rawGraphUser) Profile {
	avatar := u.ProfilePicURLHD
	if avatar == "" {
		avatar = u.ProfilePicURL
	}
	return Profile{
		ID:               u.ID,
		Username:         u.Username,
		FullName:         u.FullName,
		Bio:              u.Biography,
		AvatarURL:        avatar,
		Followers:        u.EdgeFollowedBy.Count,
		Following:        u.EdgeFollow.Count,
		Posts:            u.EdgeOwnerToTimelineMedia.Count,
		Verified:         u.IsVerified,
		Private:          u.IsPrivate,
		ExternalURL:      u.ExternalURL,
		BusinessCategory: u.BusinessCategoryName,
	}
}

// isReelNode reports whether a timeline node is a reel. Instagram marks reels
// either by GraphQL typename or by the "clips" product type.
func isReelNode(n rawMediaNode) bool {
	return n.Typename == "GraphVideo" || n.ProductType == "clips"
}

// parseGraphReel converts a raw timeline node to the public Reel type.
func parseGraphReel(n rawMediaNode) Reel {
	caption := ""
	if len(n.EdgeMediaToCaption.Edges) > 0 {
		caption = n.EdgeMediaToCaption.Edges[0].Node.Text
	}
	return Reel{
		ID:           n.ID,
		Shortcode:    n.Shortcode,
		URL:          reelURL(n.Shortcode),
		ThumbnailURL: n.DisplayURL,
		VideoURL:     n.VideoURL,
		Caption:      caption,
		Likes:        n.EdgeMediaPreviewLike.Count,
		Comments:     n.EdgeMediaToComment.Count,
		Views:        n.VideoViewCount,
		TakenAt:      epochToTime(n.TakenAtTimestamp),
		Width:        n.Dimensions.Width,
		Height:       n.Dimensions.Height,
		IsVideo:      n.IsVideo,
		Duration:     n.VideoDuration,
	}
}

// parseMediaItem converts a single-media endpoint item to the public Reel type.
func parseMediaItem(it rawMediaItem) Reel {
	r := Reel{
		ID:        it.ID,
		Shortcode: it.Code,
		URL:       reelURL(it.Code),
		Username:  it.User.Username,
		Likes:     it.LikeCount,
		Comments:  it.CommentCount,
		Views:     it.ViewCount,
		TakenAt:   epochToTime(it.TakenAt),
		Width:     it.OriginalWidth,
		Height:    it.OriginalHeight,
		IsVideo:   len(it.VideoVersions) > 0,
		Duration:  it.VideoDuration,
	}
	if r.Views == 0 {
		r.Views = it.PlayCount
	}
	if len(it.VideoVersions) > 0 {
		r.VideoURL = it.VideoVersions[0].URL
	}
	if len(it.ImageVersions2.Candidates) > 0 {
		r.ThumbnailURL = it.ImageVersions2.Candidates[0].URL
	}
	if it.Caption != nil {
		r.Caption = it.Caption.Text
	}
	return r
}

// parseShortcodeMedia converts an embedded shortcode_media blob to the public
// Reel type.
func parseShortcodeMedia(m *rawShortcodeMedia) Reel {
	caption := ""
	if len(m.EdgeMediaToCaption.Edges) > 0 {
		caption = m.EdgeMediaToCaption.Edges[0].Node.Text
	}
	return Reel{
		ID:           m.ID,
		Shortcode:    m.Shortcode,
		URL:          reelURL(m.Shortcode),
		ThumbnailURL: m.DisplayURL,
		VideoURL:     m.VideoURL,
		Caption:      caption,
		Username:     m.Owner.Username,
		Likes:        m.EdgeMediaPreviewLike.Count,
		Comments:     m.EdgeMediaToComment.Count,
		Views:        m.VideoViewCount,
		TakenAt:      epochToTime(m.TakenAtTimestamp),
		Width:        m.Dimensions.Width,
		Height:       m.Dimensions.Height,
		IsVideo:      m.IsVideo,
		Duration:     m.VideoDuration,
	}
}
