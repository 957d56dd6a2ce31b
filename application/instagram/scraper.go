package instagram

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"browser_scripts/application/pipeline"
	"browser_scripts/application/runner"
	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"
	"browser_scripts/infrastructure/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	carouselsDir = "carousels"
	singlesDir   = "singles"
	reportName   = "posts_data.json"
	errorShot    = "error_grid.png"
)

var postIDPattern = regexp.MustCompile(`/(?:p|reel)/([A-Za-z0-9_-]+)`)

// grid selectors, most specific first
var postSelectors = []string{
	"a[href*='/p/']",
	"a[href*='/reel/']",
	"div._aabd a",
	"div._ac7v a",
	"main article a",
	"a img",
}

const (
	cookieButtons = "xpath=//button[contains(text(), 'Permitir') or contains(text(), 'Allow') or contains(text(), 'Accept') or contains(text(), 'Aceptar')]"
	closeButtons  = "button[aria-label='Cerrar'], button[aria-label='Close'], svg[aria-label='Cerrar']"
)

// Timing holds the fixed waits of a capture
type Timing struct {
	PageLoad     time.Duration
	Popup        time.Duration
	Scroll       time.Duration
	GridLoad     time.Duration
	OpenPost     time.Duration
	Media        time.Duration
	CarouselNext time.Duration
	NextPost     time.Duration
	PostDelay    time.Duration
}

// DefaultTiming - waits tuned for the live site
func DefaultTiming(postDelay time.Duration) Timing {
	return Timing{
		PageLoad:     5 * time.Second,
		Popup:        500 * time.Millisecond,
		Scroll:       2 * time.Second,
		GridLoad:     5 * time.Second,
		OpenPost:     2 * time.Second,
		Media:        300 * time.Millisecond,
		CarouselNext: 1200 * time.Millisecond,
		NextPost:     time.Second,
		PostDelay:    postDelay,
	}
}

// Scraper walks the posts of a profile and captures their images
type Scraper struct {
	browser  interfaces.Browser
	pipeline *pipeline.Pipeline
	guard    interfaces.SessionGuard
	store    interfaces.ReportStore
	cfg      config.InstagramConfig
	logger   *logrus.Logger
	now      func() time.Time

	posts     atomic.Int64
	carousels atomic.Int64
	singles   atomic.Int64
	reels     atomic.Int64

	Timing Timing
}

// NewScraper - creates new scraper instance
func NewScraper(
	browser interfaces.Browser,
	pipe *pipeline.Pipeline,
	guard interfaces.SessionGuard,
	store interfaces.ReportStore,
	cfg config.InstagramConfig,
	logger *logrus.Logger,
) *Scraper {
	return &Scraper{
		browser:  browser,
		pipeline: pipe,
		guard:    guard,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		Timing:   DefaultTiming(cfg.PostDelay),
	}
}

// Stats - snapshot of the counters; safe to call while Run is in progress
func (s *Scraper) Stats() entities.ScrapeStats {
	return entities.ScrapeStats{
		Posts:     int(s.posts.Load()),
		Carousels: int(s.carousels.Load()),
		Singles:   int(s.singles.Load()),
		Reels:     int(s.reels.Load()),
	}
}

// Run - opens the profile, then captures post after post until there is no
// next post or a stop is requested
func (s *Scraper) Run(ctx context.Context, profileURL string, stop runner.StopFlag) (entities.PostsReport, error) {
	report := entities.PostsReport{RunID: uuid.NewString()}

	if !strings.Contains(profileURL, "instagram.com") {
		return report, fmt.Errorf("%w: %s", entities.ErrInvalidProfileURL, profileURL)
	}

	if err := s.openProfile(ctx, profileURL); err != nil {
		return report, err
	}

	first, err := s.findPosts(ctx)
	if err != nil {
		return report, err
	}

	s.logger.Info("Opening the first post")
	if outcome := s.openPost(ctx, first); !outcome.OK() {
		return report, outcome.Err
	}

	for stop == nil || !stop.Stopping() {
		if err := ctx.Err(); err != nil {
			s.logSummary()
			return report, fmt.Errorf("task canceled: %w", err)
		}

		record := s.capturePost(ctx)
		report.Posts = append(report.Posts, record)
		report.TotalPosts = len(report.Posts)
		report.ScrapedAt = s.now()
		if err := s.store.SaveJSON(filepath.Join(s.cfg.OutputDir, reportName), report); err != nil {
			s.logger.WithError(err).Warn("Failed to write the posts report")
		}

		if !s.nextPost(ctx) {
			s.logger.Info("No more posts, reached the end")
			break
		}
		pipeline.Sleep(ctx, s.Timing.PostDelay)
	}

	s.logSummary()
	return report, nil
}

// openProfile - navigates to the profile and stops on login walls and private accounts
func (s *Scraper) openProfile(ctx context.Context, profileURL string) error {
	s.logger.Infof("Navigating to %s", profileURL)
	if err := s.browser.Navigate(ctx, profileURL); err != nil {
		return fmt.Errorf("failed to open profile: %w", err)
	}
	if err := pipeline.Sleep(ctx, s.Timing.PageLoad); err != nil {
		return err
	}

	s.logger.Debug("Closing popups")
	for _, selector := range []string{cookieButtons, closeButtons} {
		if pipeline.ClickVisible(ctx, s.browser, selector) > 0 {
			pipeline.Sleep(ctx, s.Timing.Popup)
		}
	}

	if s.guard.RequiresLogin(s.browser.CurrentURL(ctx)) {
		s.logger.Warn("You need to log in to Instagram. Log in by hand in the browser, go back to the profile and start again")
		return entities.ErrLoginRequired
	}

	s.logger.Debug("Scrolling to load posts")
	s.browser.Evaluate(ctx, scrollDownScript, nil)
	if err := pipeline.Sleep(ctx, s.Timing.Scroll); err != nil {
		return err
	}
	s.browser.Evaluate(ctx, scrollTopScript, nil)
	if err := pipeline.Sleep(ctx, s.Timing.GridLoad); err != nil {
		return err
	}

	return s.guard.CheckProfile(ctx, s.browser)
}

// findPosts - returns the first post link of the grid
func (s *Scraper) findPosts(ctx context.Context) (interfaces.Element, error) {
	s.logger.Info("Looking for posts")

	strategies := make([]pipeline.Strategy, 0, len(postSelectors)+1)
	for _, selector := range postSelectors {
		selector := selector
		strategies = append(strategies, pipeline.Strategy{
			Name: selector,
			Run: func(ctx context.Context) (interface{}, error) {
				elements, err := s.browser.Query(ctx, selector)
				if err != nil {
					return nil, err
				}
				posts := s.postLinks(ctx, elements)
				if len(posts) == 0 {
					return nil, fmt.Errorf("%w: %s", entities.ErrElementNotFound, selector)
				}
				return posts, nil
			},
		})
	}
	strategies = append(strategies, pipeline.Strategy{
		Name: "deep-scan",
		Run: func(ctx context.Context) (interface{}, error) {
			posts, err := s.browser.QueryScript(ctx, deepPostsScript, nil)
			if err != nil {
				return nil, err
			}
			if len(posts) == 0 {
				return nil, fmt.Errorf("%w: no post links", entities.ErrElementNotFound)
			}
			return posts, nil
		},
	})

	outcome := s.pipeline.Run(ctx, pipeline.Action{Name: "find-posts", Strategies: strategies})
	if !outcome.OK() {
		s.diagnose(ctx)
		return nil, fmt.Errorf("%w: %w", entities.ErrNoPosts, outcome.Err)
	}

	posts := outcome.Value.([]interfaces.Element)
	s.logger.WithField("strategy", outcome.Strategy).Infof("Found %d posts", len(posts))
	return posts[0], nil
}

// postLinks - keeps the elements that link to a post, resolving the enclosing link of images
func (s *Scraper) postLinks(ctx context.Context, elements []interfaces.Element) []interfaces.Element {
	var posts []interfaces.Element
	for _, el := range elements {
		link := el
		href, _ := el.Attribute(ctx, "href")
		if href == "" {
			anchor, err := el.Closest(ctx, "a")
			if err != nil {
				continue
			}
			link = anchor
			href, _ = anchor.Attribute(ctx, "href")
		}
		if strings.Contains(href, "/p/") || strings.Contains(href, "/reel/") {
			posts = append(posts, link)
		}
	}
	return posts
}

// diagnose - logs what the page shows when no post could be found
func (s *Scraper) diagnose(ctx context.Context) {
	s.logger.Warn("No posts detected, running diagnostics")

	if links, err := s.browser.Evaluate(ctx, countLinksScript, nil); err == nil {
		s.logger.Infof("%v links on the page", links)
	}
	if articles, err := s.browser.Query(ctx, "article"); err == nil {
		s.logger.Infof("%d <article> elements found", len(articles))
	}

	path := filepath.Join(s.cfg.OutputDir, errorShot)
	if err := s.browser.Screenshot(ctx, path); err != nil {
		s.logger.WithError(err).Warn("Failed to save the diagnostic screenshot")
	} else {
		s.logger.Warnf("Diagnostic screenshot saved: %s", path)
	}

	s.logger.Error("No posts found. Instagram may be asking for a CAPTCHA, the session may have ended, or automated requests are blocked for now")
}

func (s *Scraper) openPost(ctx context.Context, post interfaces.Element) entities.Outcome {
	return s.pipeline.Run(ctx, pipeline.Action{
		Name: "open-post",
		Strategies: []pipeline.Strategy{
			{Name: "script-click", Run: func(ctx context.Context) (interface{}, error) { return nil, post.Click(ctx) }},
			{Name: "native-click", Run: func(ctx context.Context) (interface{}, error) { return nil, post.NativeClick(ctx) }},
		},
		Settle: s.Timing.OpenPost,
	})
}

// postID - the shortcode of a post URL
func (s *Scraper) postID(url string) string {
	if match := postIDPattern.FindStringSubmatch(url); match != nil {
		return match[1]
	}
	return fmt.Sprintf("post_%d", s.now().Unix())
}

func (s *Scraper) logSummary() {
	stats := s.Stats()
	s.logger.WithFields(logrus.Fields{
		"posts":     stats.Posts,
		"carousels": stats.Carousels,
		"singles":   stats.Singles,
		"reels":     stats.Reels,
	}).Infof("Capture finished, saved in %s", s.cfg.OutputDir)
}
