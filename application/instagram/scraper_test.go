package instagram

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"browser_scripts/application/pagefake"
	"browser_scripts/application/pipeline"
	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"
	"browser_scripts/infrastructure/config"
	"browser_scripts/infrastructure/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	profileURL = "https://www.instagram.com/nasa/"
	postA      = "https://www.instagram.com/p/AAA_1/"
	postB      = "https://www.instagram.com/p/BBB-2/?img_index=1"
	reelC      = "https://www.instagram.com/reel/CCC3/"
)

type stubGuard struct {
	err error
}

func (g stubGuard) RequiresLogin(url string) bool {
	return strings.Contains(url, "login")
}

func (g stubGuard) CheckProfile(ctx context.Context, browser interfaces.Browser) error {
	return g.err
}

type stopAfter struct {
	calls int
	limit int
}

func (s *stopAfter) Stopping() bool {
	s.calls++
	return s.calls > s.limit
}

func newTestScraper(t *testing.T, page *pagefake.Browser, guard interfaces.SessionGuard) (*Scraper, config.InstagramConfig) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := config.InstagramConfig{
		OutputDir:         filepath.Join(t.TempDir(), "instagram_posts"),
		MaxCarouselImages: 15,
	}
	s := NewScraper(page, pipeline.New(nil, logger), guard, storage.NewReportStore(), cfg, logger)
	s.Timing = Timing{}
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s, cfg
}

// profilePage builds a profile whose grid opens a carousel, then a single image, then a reel
func profilePage() (page *pagefake.Browser, media, carouselNext *pagefake.Element) {
	page = pagefake.New("about:blank")

	link := pagefake.NewElement("a", "href", postA)
	link.OnClick = func() { page.SetURL(postA) }
	page.Set("a[href*='/p/']", link)

	sources := []string{
		"https://scontent.cdninstagram.com/v/1.jpg",
		"https://scontent.cdninstagram.com/v/2.jpg",
		"https://scontent.cdninstagram.com/v/3.jpg",
	}
	img := pagefake.NewElement("img", "src", sources[0])
	page.Set("article div._aagv img", img)

	media = pagefake.NewElement("img")
	page.Set(mediaSelector, media)

	page.Set(carouselButtons, pagefake.NewElement("button", "aria-label", "Siguiente"))
	shown := 0
	carouselNext = pagefake.NewElement("button", "aria-label", "Next")
	carouselNext.OnClick = func() {
		shown++
		if shown >= len(sources) {
			shown = len(sources) - 1
		}
		img.Attrs["src"] = sources[shown]
	}
	page.Set(carouselNextSelectors[1], carouselNext)

	navigations := 0
	nav := pagefake.NewElement("button", "aria-label", "Siguiente")
	nav.OnClick = func() {
		navigations++
		switch navigations {
		case 1:
			page.SetURL(postB)
			page.Set(carouselButtons)
			page.Set(carouselNextSelectors[1])
		case 2:
			page.SetURL(reelC)
			page.Set(nextPostButtons)
		}
	}
	page.Set(nextPostButtons, nav)

	return page, media, carouselNext
}

func TestRun_CapturesEveryPostType(t *testing.T) {
	page, media, carouselNext := profilePage()
	s, cfg := newTestScraper(t, page, stubGuard{})

	report, err := s.Run(context.Background(), profileURL, nil)
	require.NoError(t, err)

	require.Len(t, report.Posts, 3)
	assert.Equal(t, 3, report.TotalPosts)

	carousel := report.Posts[0]
	assert.Equal(t, "AAA_1", carousel.ID)
	assert.Equal(t, entities.PostCarousel, carousel.Type)
	require.Len(t, carousel.Images, 3)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "carousels", "AAA_1", "3.png"), carousel.Images[2].File)
	assert.FileExists(t, carousel.Images[0].File)
	assert.Equal(t, 4, carouselNext.Clicks())

	single := report.Posts[1]
	assert.Equal(t, "BBB-2", single.ID)
	assert.Equal(t, entities.PostSingle, single.Type)
	require.Len(t, single.Images, 1)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "singles", "BBB-2", "1.png"), single.Images[0].File)

	reel := report.Posts[2]
	assert.Equal(t, entities.PostReel, reel.Type)
	assert.True(t, reel.Skipped)
	assert.Empty(t, reel.Images)

	assert.Len(t, media.Shots(), 4)
	assert.Equal(t, []string{"ArrowRight"}, page.Keys())
	assert.Equal(t, entities.ScrapeStats{Posts: 3, Carousels: 1, Singles: 1, Reels: 1}, s.Stats())

	var saved entities.PostsReport
	require.NoError(t, storage.NewReportStore().LoadJSON(filepath.Join(cfg.OutputDir, "posts_data.json"), &saved))
	assert.Equal(t, 3, saved.TotalPosts)
	assert.Equal(t, report.RunID, saved.RunID)
}

func TestRun_StopRequested(t *testing.T) {
	page, _, _ := profilePage()
	s, _ := newTestScraper(t, page, stubGuard{})

	report, err := s.Run(context.Background(), profileURL, &stopAfter{limit: 1})
	require.NoError(t, err)
	assert.Len(t, report.Posts, 1)
	assert.Equal(t, 1, s.Stats().Posts)
}

func TestRun_InvalidURL(t *testing.T) {
	page := pagefake.New("about:blank")
	s, _ := newTestScraper(t, page, stubGuard{})

	_, err := s.Run(context.Background(), "https://example.com/nasa", nil)
	assert.ErrorIs(t, err, entities.ErrInvalidProfileURL)
	assert.Empty(t, page.Navigations())
}

func TestRun_LoginWall(t *testing.T) {
	page := pagefake.New("about:blank")
	page.OnNavigate = func(url string) { page.SetURL("https://www.instagram.com/accounts/login/") }
	s, _ := newTestScraper(t, page, stubGuard{})

	_, err := s.Run(context.Background(), profileURL, nil)
	assert.ErrorIs(t, err, entities.ErrLoginRequired)
}

func TestRun_PrivateProfile(t *testing.T) {
	page := pagefake.New("about:blank")
	s, _ := newTestScraper(t, page, stubGuard{err: entities.ErrPrivateProfile})

	_, err := s.Run(context.Background(), profileURL, nil)
	assert.ErrorIs(t, err, entities.ErrPrivateProfile)
}

func TestRun_NoPostsWritesDiagnostics(t *testing.T) {
	page := pagefake.New("about:blank")
	s, cfg := newTestScraper(t, page, stubGuard{})

	_, err := s.Run(context.Background(), profileURL, nil)
	assert.ErrorIs(t, err, entities.ErrNoPosts)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "error_grid.png"))
}

func TestFindPosts_ResolvesImageLinks(t *testing.T) {
	page := pagefake.New(profileURL)
	s, _ := newTestScraper(t, page, stubGuard{})

	anchor := pagefake.NewElement("a", "href", "/p/ZZZ/")
	img := pagefake.NewElement("img")
	img.Parent = anchor
	page.Set("a img", img, pagefake.NewElement("img"))

	post, err := s.findPosts(context.Background())
	require.NoError(t, err)
	assert.Same(t, anchor, post)
}

func TestFindPosts_DeepScan(t *testing.T) {
	page := pagefake.New(profileURL)
	s, _ := newTestScraper(t, page, stubGuard{})

	link := pagefake.NewElement("a", "href", "https://www.instagram.com/reel/R1/")
	page.On(&pagefake.Rule{Contains: deepPostsScript, Elements: []*pagefake.Element{link}})

	post, err := s.findPosts(context.Background())
	require.NoError(t, err)
	assert.Same(t, link, post)
}

func TestDetectType(t *testing.T) {
	ctx := context.Background()
	page := pagefake.New(postA)
	s, _ := newTestScraper(t, page, stubGuard{})

	assert.Equal(t, entities.PostReel, s.detectType(ctx, reelC))
	assert.Equal(t, entities.PostSingle, s.detectType(ctx, postA))

	page.Set(carouselDots, pagefake.NewElement("div"))
	assert.Equal(t, entities.PostSingle, s.detectType(ctx, postA))

	page.Set(carouselDots, pagefake.NewElement("div"), pagefake.NewElement("div"))
	assert.Equal(t, entities.PostCarousel, s.detectType(ctx, postA))

	page.Set(reelVideo, pagefake.NewElement("video"))
	assert.Equal(t, entities.PostReel, s.detectType(ctx, postA))
}

func TestDetectType_PostArrowIsNotCarousel(t *testing.T) {
	page := pagefake.New(postA)
	s, _ := newTestScraper(t, page, stubGuard{})

	page.Set(nextPostButtons, pagefake.NewElement("button", "aria-label", "Next"))
	assert.Equal(t, entities.PostSingle, s.detectType(context.Background(), postA))

	// the modal arrow to the next post lives outside the article
	for _, selector := range strings.Split(carouselButtons, ",") {
		assert.True(t, strings.HasPrefix(strings.TrimSpace(selector), "article "), selector)
	}
}

func TestSaveCarousel_Limit(t *testing.T) {
	page := pagefake.New(postA)
	s, cfg := newTestScraper(t, page, stubGuard{})
	s.cfg.MaxCarouselImages = 2

	img := pagefake.NewElement("img", "src", "https://scontent.cdninstagram.com/v/0.jpg")
	page.Set("article div._aagv img", img)
	page.Set(mediaSelector, pagefake.NewElement("img"))

	shown := 0
	next := pagefake.NewElement("button", "aria-label", "Next")
	next.OnClick = func() {
		shown++
		img.Attrs["src"] = fmt.Sprintf("https://scontent.cdninstagram.com/v/%d.jpg", shown)
	}
	page.Set(carouselNextSelectors[1], next)

	images := s.saveCarousel(context.Background(), "LIMIT")
	require.Len(t, images, 2)
	assert.Equal(t, 2, images[1].Index)
	assert.Equal(t, "https://scontent.cdninstagram.com/v/1.jpg", images[1].URL)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "carousels", "LIMIT", "2.png"), images[1].File)
	assert.Equal(t, 2, next.Clicks())
}

func TestSaveCarousel_NoURL(t *testing.T) {
	page := pagefake.New(postA)
	s, cfg := newTestScraper(t, page, stubGuard{})

	media := pagefake.NewElement("img")
	page.Set(mediaSelector, media)

	next := pagefake.NewElement("button", "aria-label", "Next")
	next.OnClick = func() {
		if next.Clicks() == 2 {
			next.Disabled = true
		}
	}
	page.Set(carouselNextSelectors[1], next)

	images := s.saveCarousel(context.Background(), "NOURL")
	require.Len(t, images, 3)
	for i, image := range images {
		assert.Equal(t, i+1, image.Index)
		assert.Empty(t, image.URL)
		assert.FileExists(t, image.File)
	}
	assert.Equal(t, filepath.Join(cfg.OutputDir, "carousels", "NOURL", "3.png"), images[2].File)
	assert.Len(t, media.Shots(), 3)
}

func TestPostID(t *testing.T) {
	s, _ := newTestScraper(t, pagefake.New(profileURL), stubGuard{})

	assert.Equal(t, "Cx1_ab-9", s.postID("https://www.instagram.com/p/Cx1_ab-9/?img_index=1"))
	assert.Equal(t, "R1", s.postID("https://www.instagram.com/reel/R1/"))
	assert.Equal(t, "post_1700000000", s.postID(profileURL))
}
