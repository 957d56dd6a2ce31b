package instagram

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"browser_scripts/application/pipeline"
	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"
)

const (
	reelVideo       = "article video"
	carouselButtons = "article button[aria-label*='Siguiente'], article button[aria-label*='Next'], article div._aamj button"
	carouselDots    = "div._acnb, div._aalg"
	mediaSelector   = "article div._aagv img, article div._aatk img, article img[style*='object-fit']"
	nextPostButtons = "button[aria-label*='Siguiente'], a[aria-label*='Siguiente'], svg[aria-label*='Siguiente'], " +
		"button[aria-label*='Next'], a[aria-label*='Next'], svg[aria-label*='Next']"
)

// scoped to the open post so the arrow to the next post is never used
var carouselNextSelectors = []string{
	"article div._aahi button[aria-label*='Siguiente']",
	"article div._aahi button[aria-label*='Next']",
	"article ul button[aria-label*='Siguiente']",
	"article ul button[aria-label*='Next']",
	"article div[role='presentation'] button[aria-label*='Siguiente']",
	"article div[role='presentation'] button[aria-label*='Next']",
	"article div._aagw button[aria-label*='Siguiente']",
	"article div._aagw button[aria-label*='Next']",
}

var imageSelectors = []string{
	"article div._aagv img",
	"article div._aatk img",
	"article img[style*='object-fit']",
	"article div[role='button'] img",
	"article ul li[style*='translateX'] img",
}

// capturePost - records the open post and saves its images
func (s *Scraper) capturePost(ctx context.Context) entities.PostRecord {
	count := s.posts.Add(1)
	url := s.browser.CurrentURL(ctx)

	record := entities.PostRecord{
		ID:        s.postID(url),
		URL:       url,
		Type:      s.detectType(ctx, url),
		ScrapedAt: s.now(),
		Images:    []entities.PostImage{},
	}
	log := s.logger.WithField("post", record.ID)
	log.Infof("Post #%d: %s", count, record.Type)

	switch record.Type {
	case entities.PostReel:
		s.reels.Add(1)
		record.Skipped = true
		log.Warn("Reel, skipping")
	case entities.PostCarousel:
		s.carousels.Add(1)
		record.Images = s.saveCarousel(ctx, record.ID)
	default:
		s.singles.Add(1)
		record.Images = s.saveSingle(ctx, record.ID)
	}

	return record
}

// detectType - probe failures classify the post as a single image
func (s *Scraper) detectType(ctx context.Context, url string) entities.PostType {
	if strings.Contains(url, "/reel/") {
		return entities.PostReel
	}

	videos, err := s.browser.Query(ctx, reelVideo)
	if err != nil {
		return entities.PostSingle
	}
	if len(videos) > 0 {
		return entities.PostReel
	}

	buttons, err := s.browser.Query(ctx, carouselButtons)
	if err != nil {
		return entities.PostSingle
	}
	dots, err := s.browser.Query(ctx, carouselDots)
	if err != nil {
		return entities.PostSingle
	}
	if len(buttons) > 0 || len(dots) > 1 {
		return entities.PostCarousel
	}
	return entities.PostSingle
}

// saveCarousel - walks the carousel until it ends, repeats itself or reaches the limit
func (s *Scraper) saveCarousel(ctx context.Context, id string) []entities.PostImage {
	folder := filepath.Join(s.cfg.OutputDir, carouselsDir, id)
	if err := os.MkdirAll(folder, 0755); err != nil {
		s.logger.WithError(err).Error("Failed to create carousel folder")
		return nil
	}

	images := []entities.PostImage{}
	seen := make(map[string]bool)
	count, duplicates := 0, 0

	for count < s.cfg.MaxCarouselImages && ctx.Err() == nil {
		url := s.currentImageURL(ctx)
		if url != "" {
			sum := md5.Sum([]byte(url))
			hash := hex.EncodeToString(sum[:])[:16]
			if seen[hash] {
				duplicates++
				s.logger.Debugf("Duplicate image detected (%d)", duplicates)
				if duplicates >= 2 {
					break
				}
			} else {
				seen[hash] = true
				duplicates = 0
				count++
				images = append(images, entities.PostImage{
					Index: count,
					URL:   url,
					File:  s.takeScreenshot(ctx, folder, count),
				})
				s.logger.Debugf("Image %d saved", count)
			}
		} else {
			count++
			images = append(images, entities.PostImage{
				Index: count,
				File:  s.takeScreenshot(ctx, folder, count),
			})
			s.logger.Debugf("Image %d saved without URL", count)
		}

		if outcome := s.carouselNext(ctx); !outcome.OK() {
			break
		}
	}

	s.logger.Infof("Saved %d image(s) in %s", len(images), folder)
	return images
}

func (s *Scraper) carouselNext(ctx context.Context) entities.Outcome {
	strategies := make([]pipeline.Strategy, 0, len(carouselNextSelectors)+1)
	for _, selector := range carouselNextSelectors {
		selector := selector
		strategies = append(strategies, pipeline.Strategy{
			Name: selector,
			Run: func(ctx context.Context) (interface{}, error) {
				buttons, err := s.browser.Query(ctx, selector)
				if err != nil {
					return nil, err
				}
				for _, btn := range buttons {
					if btn.IsVisible(ctx) && btn.IsEnabled(ctx) {
						return pipeline.ClickElement(ctx, btn)
					}
				}
				return nil, fmt.Errorf("%w: %s", entities.ErrElementNotFound, selector)
			},
		})
	}
	strategies = append(strategies, pipeline.Strategy{
		Name: "script-scan",
		Run: func(ctx context.Context) (interface{}, error) {
			buttons, err := s.browser.QueryScript(ctx, carouselNextScript, nil)
			if err != nil {
				return nil, err
			}
			if len(buttons) == 0 {
				return nil, fmt.Errorf("%w: carousel next", entities.ErrElementNotFound)
			}
			return pipeline.ClickElement(ctx, buttons[0])
		},
	})

	return s.pipeline.Run(ctx, pipeline.Action{
		Name:       "carousel-next",
		Strategies: strategies,
		Settle:     s.Timing.CarouselNext,
	})
}

func (s *Scraper) saveSingle(ctx context.Context, id string) []entities.PostImage {
	folder := filepath.Join(s.cfg.OutputDir, singlesDir, id)
	if err := os.MkdirAll(folder, 0755); err != nil {
		s.logger.WithError(err).Error("Failed to create image folder")
		return nil
	}

	url := s.currentImageURL(ctx)
	file := s.takeScreenshot(ctx, folder, 1)
	s.logger.Infof("Image saved in %s", folder)

	return []entities.PostImage{{Index: 1, URL: url, File: file}}
}

// currentImageURL - the CDN URL of the image on screen, empty when none is found
func (s *Scraper) currentImageURL(ctx context.Context) string {
	for _, selector := range imageSelectors {
		images, err := s.browser.Query(ctx, selector)
		if err != nil {
			continue
		}
		for _, img := range images {
			src, _ := img.Attribute(ctx, "src")
			if strings.Contains(src, "instagram") && !strings.Contains(src, "data:") {
				return src
			}
		}
	}

	images, err := s.browser.Query(ctx, "article img")
	if err != nil {
		return ""
	}
	for _, img := range images {
		src, _ := img.Attribute(ctx, "src")
		if strings.Contains(src, "instagram") && strings.Contains(src, "scontent") {
			return src
		}
	}
	return ""
}

// takeScreenshot - captures the media element, or the whole window when it cannot be found
func (s *Scraper) takeScreenshot(ctx context.Context, folder string, index int) string {
	path := filepath.Join(folder, fmt.Sprintf("%d.png", index))

	media, err := pipeline.FirstVisible(ctx, s.browser, mediaSelector)
	if err == nil {
		media.ScrollIntoView(ctx)
		pipeline.Sleep(ctx, s.Timing.Media)
		err = media.Screenshot(ctx, path)
	}
	if err != nil {
		if err := s.browser.Screenshot(ctx, path); err != nil {
			s.logger.WithError(err).Warn("Screenshot failed")
		}
	}
	return path
}

// nextPost - moves to the next post; false at the end of the profile
func (s *Scraper) nextPost(ctx context.Context) bool {
	before := s.browser.CurrentURL(ctx)

	outcome := s.pipeline.Run(ctx, pipeline.Action{
		Name: "next-post",
		Strategies: []pipeline.Strategy{{
			Name: "next-button",
			Run: func(ctx context.Context) (interface{}, error) {
				btn, err := s.nextPostButton(ctx)
				if err != nil {
					return nil, err
				}
				return pipeline.ClickElement(ctx, btn)
			},
		}},
		Input: func(ctx context.Context) (interface{}, error) {
			if err := s.browser.PressKey(ctx, "ArrowRight"); err != nil {
				return nil, err
			}
			if err := pipeline.Sleep(ctx, s.Timing.NextPost); err != nil {
				return nil, err
			}
			after := s.browser.CurrentURL(ctx)
			if after == before || !(strings.Contains(after, "/p/") || strings.Contains(after, "/reel/")) {
				return nil, errors.New("still on the same post")
			}
			return nil, nil
		},
		Settle: s.Timing.NextPost,
	})
	return outcome.OK()
}

// nextPostButton - prefers arrows outside the post itself; an icon resolves to its button or link
func (s *Scraper) nextPostButton(ctx context.Context) (interfaces.Element, error) {
	candidates, err := s.browser.Query(ctx, nextPostButtons)
	if err != nil {
		return nil, err
	}

	var fallback interfaces.Element
	for _, candidate := range candidates {
		target, err := candidate.Closest(ctx, "button, a")
		if err != nil || !target.IsVisible(ctx) {
			continue
		}
		if _, err := target.Closest(ctx, "article"); err != nil {
			return target, nil
		}
		if fallback == nil {
			fallback = target
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("%w: next post", entities.ErrElementNotFound)
}
