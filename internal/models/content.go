package models

// ContentPiece is one reference script the user feeds into analysis,
// either a viral (what to learn from) or a flop (what to avoid).
type ContentPiece struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Script       string  `json:"script"`
	Comments     *string `json:"comments,omitempty"`
	URL          *string `json:"url,omitempty"`
	UniquePoints *string `json:"uniquePoints,omitempty"`
}

type ValidateYouTubeRequest struct {
	URL string `json:"url"`
}

type YouTubeMetadata struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ChannelName  string `json:"channel_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     int    `json:"duration_seconds"`
}

type FetchCommentsRequest struct {
	URL string `json:"url"`
}

type FetchTranscriptRequest struct {
	URL string `json:"url"`
}
