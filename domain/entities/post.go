package entities

import "time"

// PostType is the instagram post classification
type PostType string

const (
	PostReel     PostType = "reel"
	PostCarousel PostType = "carousel"
	PostSingle   PostType = "single"
)

// PostImage is one captured image of a post
type PostImage struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	File  string `json:"file"`
}

// PostRecord describes a visited post
type PostRecord struct {
	ID        string      `json:"id"`
	URL       string      `json:"url"`
	Type      PostType    `json:"type"`
	ScrapedAt time.Time   `json:"scraped_at"`
	Images    []PostImage `json:"images"`
	Skipped   bool        `json:"skipped,omitempty"`
}

// PostsReport is the posts_data.json document
type PostsReport struct {
	RunID      string       `json:"run_id"`
	ScrapedAt  time.Time    `json:"scraped_at"`
	TotalPosts int          `json:"total_posts"`
	Posts      []PostRecord `json:"posts"`
}

// ScrapeStats is a snapshot of the capture counters
type ScrapeStats struct {
	Posts     int `json:"posts"`
	Carousels int `json:"carousels"`
	Singles   int `json:"singles"`
	Reels     int `json:"reels"`
}
