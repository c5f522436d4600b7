package model

import (
	"time"
)

// PlaylistStatus represents the current status of a playlist lookup
type PlaylistStatus string

const (
	PlaylistStatusParsing PlaylistStatus = "parsing"
	PlaylistStatusReady   PlaylistStatus = "ready"
	PlaylistStatusError   PlaylistStatus = "error"
)

// PlaylistVideo represents a single video in a playlist
type PlaylistVideo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Duration string `json:"duration"`
	URL      string `json:"url"`
}

// Playlist represents a YouTube playlist with its videos
type Playlist struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	URL         string           `json:"url"`
	Videos      []*PlaylistVideo `json:"videos"`
	Status      PlaylistStatus   `json:"status"`
	TotalVideos int              `json:"total_videos"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewPlaylist creates a new playlist instance
func NewPlaylist(url string) *Playlist {
	now := time.Now()
	return &Playlist{
		URL:       url,
		Status:    PlaylistStatusParsing,
		Videos:    make([]*PlaylistVideo, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddVideo adds a video to the playlist
func (p *Playlist) AddVideo(video *PlaylistVideo) {
	p.Videos = append(p.Videos, video)
	p.TotalVideos = len(p.Videos)
	p.UpdatedAt = time.Now()
}

// UpdateStatus updates the playlist status
func (p *Playlist) UpdateStatus(status PlaylistStatus) {
	p.Status = status
	p.UpdatedAt = time.Now()
}

// VideoURLs returns the watch URL of every video in order
func (p *Playlist) VideoURLs() []string {
	urls := make([]string, 0, len(p.Videos))
	for _, video := range p.Videos {
		urls = append(urls, video.URL)
	}
	return urls
}
