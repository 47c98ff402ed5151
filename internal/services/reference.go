package services

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytdata "google.golang.org/api/youtube/v3"

	"scriptforge-backend/internal/models"
)

// ReferenceService pulls reference material off YouTube: transcripts
// to use as scripts, top comments for audience-sentiment analysis and
// basic metadata to pre-fill the piece.
type ReferenceService struct {
	httpClient    *http.Client
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
	dataAPIKey    string
}

func NewReferenceService(dataAPIKey string) *ReferenceService {
	return &ReferenceService{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
		dataAPIKey:    dataAPIKey,
	}
}

var videoIDRegex = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|shorts/)|youtu\.be/)([\w-]{11})`)

// VideoID extracts the 11-character video ID from any common YouTube
// URL shape.
func VideoID(url string) (string, error) {
	m := videoIDRegex.FindStringSubmatch(url)
	if len(m) < 2 {
		return "", &ValidationError{Fields: map[string]string{"url": "Not a recognizable YouTube URL"}}
	}
	return m[1], nil
}

// BuildPiece assembles a ContentPiece from a YouTube URL: metadata,
// transcript as the script, and top comments when the Data API is
// configured. Comment failures degrade to a diagnostic note; they
// never fail the ingestion.
func (s *ReferenceService) BuildPiece(ctx context.Context, url string) (*models.ContentPiece, error) {
	videoID, err := VideoID(url)
	if err != nil {
		return nil, err
	}

	transcript, err := s.GetTranscript(videoID)
	if err != nil {
		return nil, fmt.Errorf("transcript unavailable for %s: %w", videoID, err)
	}

	piece := &models.ContentPiece{
		ID:     uuid.NewString(),
		Title:  "YouTube Video: " + videoID,
		Script: transcript,
		URL:    &url,
	}

	if meta, err := s.GetMetadata(ctx, videoID); err == nil {
		piece.Title = meta.Title
	}

	comments, err := s.FetchComments(ctx, videoID)
	if err != nil {
		note := err.Error()
		piece.Comments = &note
	} else if comments != "" {
		piece.Comments = &comments
	}

	return piece, nil
}

// GetMetadata fetches title, channel and duration for a video.
func (s *ReferenceService) GetMetadata(ctx context.Context, videoID string) (*models.YouTubeMetadata, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video metadata: %w", err)
	}
	return &models.YouTubeMetadata{
		VideoID:      videoID,
		Title:        video.Title,
		ChannelName:  video.Author,
		ThumbnailURL: fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID),
		Duration:     int(video.Duration.Seconds()),
	}, nil
}

// FetchComments pulls up to 100 top-level comments ordered by
// relevance and formats them for the analysis prompts.
func (s *ReferenceService) FetchComments(ctx context.Context, videoID string) (string, error) {
	if s.dataAPIKey == "" {
		return "", fmt.Errorf("comment fetching is not configured (missing YouTube Data API key)")
	}

	svc, err := ytdata.NewService(ctx, option.WithAPIKey(s.dataAPIKey))
	if err != nil {
		return "", fmt.Errorf("failed to init YouTube Data API client: %w", err)
	}

	resp, err := svc.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		MaxResults(100).
		Order("relevance").
		TextFormat("plainText").
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			switch apiErr.Code {
			case http.StatusForbidden:
				return "", fmt.Errorf("comments are disabled for this video")
			case http.StatusBadRequest:
				return "", fmt.Errorf("YouTube Data API key is invalid or lacks access")
			}
		}
		return "", fmt.Errorf("failed to fetch comments: %w", err)
	}

	var b strings.Builder
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		c := item.Snippet.TopLevelComment.Snippet
		text := strings.TrimSpace(c.TextDisplay)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%s] (%d likes): %s\n", c.AuthorDisplayName, c.LikeCount, text)
	}
	return strings.TrimSpace(b.String()), nil
}

type timedTextXML struct {
	XMLName xml.Name  `xml:"transcript"`
	Texts   []textXML `xml:"text"`
}

type textXML struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

// GetTranscript fetches the captions for a YouTube video, preferring
// English tracks and falling back to any language, then to the raw
// timedtext endpoint.
func (s *ReferenceService) GetTranscript(videoID string) (string, error) {
	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			legacyTranscript, legacyErr := s.getTranscriptViaTimedText(videoID)
			if legacyErr == nil {
				return legacyTranscript, nil
			}
			return "", fmt.Errorf("no subtitles available via transcript API (%v) and timedtext fallback failed (%v)", err, legacyErr)
		}
	}

	if len(transcript.Entries) == 0 {
		return "", fmt.Errorf("subtitle track is empty")
	}

	var fullText strings.Builder
	for _, entry := range transcript.Entries {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		fullText.WriteString(text)
		fullText.WriteString(" ")
	}

	cleaned := strings.TrimSpace(fullText.String())
	if cleaned == "" {
		return "", fmt.Errorf("subtitle text resolved to empty content")
	}

	return cleaned, nil
}

func (s *ReferenceService) getTranscriptViaTimedText(videoID string) (string, error) {
	pageURL := fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
	req, _ := http.NewRequest("GET", pageURL, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch YouTube page: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read YouTube page: %w", err)
	}

	captionURL, err := extractCaptionURL(string(body))
	if err != nil {
		return "", err
	}

	captionResp, err := s.httpClient.Get(captionURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch captions: %w", err)
	}
	defer captionResp.Body.Close()

	captionBody, err := io.ReadAll(captionResp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read captions: %w", err)
	}

	transcript, err := parseCaptionsXML(captionBody)
	if err != nil {
		return "", fmt.Errorf("failed to parse captions XML: %w", err)
	}

	return transcript, nil
}

func extractCaptionURL(pageHTML string) (string, error) {
	re := regexp.MustCompile(`"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
	matches := re.FindStringSubmatch(pageHTML)
	if len(matches) < 2 {
		re2 := regexp.MustCompile(`"playerCaptionsTracklistRenderer"\s*:\s*\{(?:.*?,)?\s*"captionTracks"\s*:\s*\[(.*?)\],\s*"`)
		matches = re2.FindStringSubmatch(pageHTML)
		if len(matches) < 2 {
			return "", fmt.Errorf("no captions available for this video")
		}
	}

	tracksJSON := matches[1]
	reURL := regexp.MustCompile(`"baseUrl"\s*:\s*"(.*?)"`)
	urlMatches := reURL.FindStringSubmatch(tracksJSON)
	if len(urlMatches) < 2 {
		return "", fmt.Errorf("caption track found but baseUrl missing")
	}

	u := urlMatches[1]
	u = strings.ReplaceAll(u, `\u0026`, "&")
	u = strings.ReplaceAll(u, `\/`, "/")

	return u, nil
}

func parseCaptionsXML(data []byte) (string, error) {
	var tt timedTextXML
	if err := xml.Unmarshal(data, &tt); err != nil {
		return "", err
	}

	var parts []string
	for _, t := range tt.Texts {
		text := html.UnescapeString(t.Text)
		text = strings.TrimSpace(text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("captions XML empty")
	}

	return strings.Join(parts, " "), nil
}
