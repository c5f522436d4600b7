package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/ytget/vdl/internal/model"
	"github.com/ytget/ytdlp/v2"
)

// Timeout constants
const (
	DefaultPlaylistParseTimeout = 60 * time.Second
)

// URL parameters
const (
	PlaylistURLParam       = "list="
	PlaylistParamSeparator = "&"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Default values
const (
	DefaultDuration      = "Unknown"
	DefaultPlaylistTitle = "Untitled Playlist"
	PlaylistSuffix       = " Playlist"
	MinPrefixLength      = 10
	MaxTitleLength       = 50
	TitleTruncateSuffix  = "..."
)

// playlistFetcher lists the videos of a playlist id
type playlistFetcher func(ctx context.Context, playlistID string) ([]*model.PlaylistVideo, error)

// PlaylistParserService resolves YouTube playlists into their videos
type PlaylistParserService struct {
	timeout time.Duration
	fetch   playlistFetcher
	logger  zerolog.Logger
}

// NewPlaylistParserService creates a new playlist parser service backed by the ytdlp library
func NewPlaylistParserService(logger zerolog.Logger) *PlaylistParserService {
	return &PlaylistParserService{
		timeout: DefaultPlaylistParseTimeout,
		fetch:   fetchWithLibrary,
		logger:  logger.With().Str("component", "playlist").Logger(),
	}
}

// SetTimeout sets the timeout for playlist parsing
func (p *PlaylistParserService) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// ParsePlaylist parses a YouTube playlist URL and returns playlist information
func (p *PlaylistParserService) ParsePlaylist(ctx context.Context, url string) (*model.Playlist, error) {
	if !p.isValidPlaylistURL(url) {
		return nil, fmt.Errorf("invalid playlist URL format: %s", url)
	}

	playlist := model.NewPlaylist(url)

	playlistID, err := p.extractPlaylistID(url)
	if err != nil {
		playlist.Error = err.Error()
		playlist.UpdateStatus(model.PlaylistStatusError)
		return playlist, err
	}
	playlist.ID = playlistID

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	p.logger.Debug().Str("playlist_id", playlistID).Msg("fetching playlist items")

	videos, err := p.fetch(ctx, playlistID)
	if err != nil {
		err = fmt.Errorf("failed to get playlist items: %w", err)
		playlist.Error = err.Error()
		playlist.UpdateStatus(model.PlaylistStatusError)
		return playlist, err
	}

	for _, video := range videos {
		playlist.AddVideo(video)
	}

	if len(videos) > 0 {
		playlist.Title = p.extractPlaylistTitle(videos)
	} else {
		playlist.Title = fmt.Sprintf("Playlist %s", playlistID)
	}

	playlist.UpdateStatus(model.PlaylistStatusReady)
	p.logger.Info().Str("playlist_id", playlistID).Int("videos", len(videos)).Msg("playlist resolved")

	return playlist, nil
}

// fetchWithLibrary uses the ytdlp library to list every item of a playlist
func fetchWithLibrary(ctx context.Context, playlistID string) ([]*model.PlaylistVideo, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}

	videos := make([]*model.PlaylistVideo, 0, len(items))
	for _, it := range items {
		videos = append(videos, &model.PlaylistVideo{
			ID:       it.VideoID,
			Title:    it.Title,
			Duration: DefaultDuration,
			URL:      fmt.Sprintf(YouTubeVideoURLTemplate, it.VideoID),
		})
	}
	return videos, nil
}

// isValidPlaylistURL checks if the URL is a valid YouTube playlist URL
func (p *PlaylistParserService) isValidPlaylistURL(url string) bool {
	return strings.Contains(url, PlaylistURLParam)
}

// extractPlaylistID extracts the playlist ID from a YouTube playlist URL
func (p *PlaylistParserService) extractPlaylistID(url string) (string, error) {
	// Supported shapes:
	// - https://www.youtube.com/watch?v=VIDEO_ID&list=PLAYLIST_ID&start_radio=1
	// - https://www.youtube.com/playlist?list=PLAYLIST_ID
	if !strings.Contains(url, PlaylistURLParam) {
		return "", fmt.Errorf("URL does not contain playlist parameter")
	}

	parts := strings.Split(url, PlaylistURLParam)
	if len(parts) < 2 {
		return "", fmt.Errorf("could not extract playlist ID from URL")
	}

	playlistID := parts[1]
	if strings.Contains(playlistID, PlaylistParamSeparator) {
		playlistID = strings.Split(playlistID, PlaylistParamSeparator)[0]
	}

	if playlistID == "" {
		return "", fmt.Errorf("empty playlist ID")
	}

	return playlistID, nil
}

// extractPlaylistTitle generates a title for the playlist based on videos
func (p *PlaylistParserService) extractPlaylistTitle(videos []*model.PlaylistVideo) string {
	if len(videos) == 0 {
		return DefaultPlaylistTitle
	}
	if len(videos) > 1 {
		commonPrefix := p.findCommonPrefix(videos[0].Title, videos[1].Title)
		if len(commonPrefix) > MinPrefixLength {
			return strings.TrimSpace(commonPrefix) + PlaylistSuffix
		}
	}

	firstTitle := videos[0].Title
	if len(firstTitle) > MaxTitleLength {
		firstTitle = firstTitle[:MaxTitleLength] + TitleTruncateSuffix
	}
	return firstTitle + PlaylistSuffix
}

// findCommonPrefix finds the common prefix between two strings
func (p *PlaylistParserService) findCommonPrefix(s1, s2 string) string {
	minLen := min(len(s1), len(s2))
	for i := 0; i < minLen; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:minLen]
}
