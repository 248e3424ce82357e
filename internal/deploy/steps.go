package deploy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/secrets"
	"go.uber.org/zap"
)

// session carries the state shared between the steps of one deployment.
type session struct {
	cs       ContentSystem
	in       Input
	opts     Options
	siteURL  string
	scrubber secrets.Scrubber
	logger   *logging.Logger

	themeActive  bool
	installed    []string
	createdPages int
	health       *HealthChecks
}

// scrub returns the error text with credentials redacted.
func (s *session) scrub(err error) string {
	return s.scrubber.Scrub(err.Error()).Scrubbed
}

func failed(err error) Step {
	return Step{Status: StepFailed, Error: err.Error()}
}

func (s *session) validate(ctx context.Context) Step {
	if !s.cs.TestConnection(ctx) {
		return failed(fmt.Errorf("WordPress REST API not reachable at %s", s.siteURL))
	}
	return Step{Status: StepCompleted, Details: "WordPress installation validated"}
}

func (s *session) installTheme(ctx context.Context) Step {
	theme := s.in.Theme
	if theme.Slug == "" {
		return failed(errors.New("no theme selected"))
	}
	if err := s.cs.InstallTheme(ctx, theme.Slug); err != nil {
		return failed(fmt.Errorf("install theme %s: %w", theme.Slug, err))
	}
	if err := s.cs.ActivateTheme(ctx, theme.Slug); err != nil {
		return failed(fmt.Errorf("activate theme %s: %w", theme.Slug, err))
	}
	s.themeActive = true

	name := theme.Name
	if name == "" {
		name = theme.Slug
	}
	return Step{Status: StepCompleted, Details: "Installed " + name}
}

func (s *session) installPlugins(ctx context.Context) Step {
	step := Step{Status: StepCompleted, Installed: []string{}, Failed: []ItemFailure{}}
	for _, p := range s.in.Plugins {
		err := s.cs.InstallPlugin(ctx, p.Slug)
		if err == nil {
			err = s.cs.ActivatePlugin(ctx, p.Slug)
		}
		if err != nil {
			msg := s.scrub(err)
			step.Failed = append(step.Failed, ItemFailure{Slug: p.Slug, Error: msg})
			s.logger.Warn(ctx, "plugin install failed", zap.String("plugin", p.Slug), zap.String("error", msg))
			continue
		}
		step.Installed = append(step.Installed, p.Slug)
	}
	if len(step.Failed) > 0 {
		step.Status = StepPartial
	}
	s.installed = step.Installed
	step.Details = fmt.Sprintf("Installed %d/%d plugins", len(step.Installed), len(s.in.Plugins))
	return step
}

// importContent attempts every page and post in fixed-size batches. Item
// failures are counted, never fatal, and the step always completes.
func (s *session) importContent(ctx context.Context) Step {
	pages, posts := s.in.Content.Pages, s.in.Content.Posts
	var createdPages, failedPages, createdPosts, failedPosts int

	for start := 0; start < len(pages); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(pages))
		for _, page := range pages[start:end] {
			if _, err := s.cs.CreatePage(ctx, page); err != nil {
				failedPages++
				s.logger.Warn(ctx, "page import failed", zap.String("title", page.Title), zap.String("error", s.scrub(err)))
				continue
			}
			createdPages++
		}
	}
	for start := 0; start < len(posts); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(posts))
		for _, post := range posts[start:end] {
			if _, err := s.cs.CreatePost(ctx, post); err != nil {
				failedPosts++
				s.logger.Warn(ctx, "post import failed", zap.String("title", post.Title), zap.String("error", s.scrub(err)))
				continue
			}
			createdPosts++
		}
	}

	s.createdPages = createdPages
	return Step{
		Status:       StepCompleted,
		Details:      fmt.Sprintf("Created %d pages, %d posts", createdPages, createdPosts),
		CreatedPages: &createdPages,
		CreatedPosts: &createdPosts,
		FailedPages:  &failedPages,
		FailedPosts:  &failedPosts,
	}
}

func (s *session) configureMenus(ctx context.Context) Step {
	for _, m := range s.in.Menus {
		if _, err := s.cs.CreateMenu(ctx, m); err != nil {
			return failed(fmt.Errorf("create menu %s: %w", menuName(m.Name, m.Location), err))
		}
	}
	return Step{Status: StepCompleted, Details: fmt.Sprintf("Configured %d menus", len(s.in.Menus))}
}

func menuName(name, location string) string {
	if name != "" {
		return name
	}
	return location
}

func (s *session) configureSEO(ctx context.Context) Step {
	if err := s.cs.SetOption(ctx, "permalink_structure", s.opts.PermalinkStructure); err != nil {
		return failed(fmt.Errorf("set permalink_structure: %w", err))
	}
	if err := s.cs.SetOption(ctx, "timezone_string", s.opts.Timezone); err != nil {
		return failed(fmt.Errorf("set timezone_string: %w", err))
	}
	return Step{Status: StepCompleted, Details: "SEO settings configured"}
}

func (s *session) healthChecks(ctx context.Context) Step {
	s.health = &HealthChecks{
		SiteAccessible:   s.cs.TestConnection(ctx),
		SSLActive:        strings.HasPrefix(strings.ToLower(s.siteURL), "https://"),
		ThemeActive:      s.themeActive,
		PluginsActive:    append([]string{}, s.installed...),
		PagesCreated:     s.createdPages,
		PerformanceScore: "good",
	}
	return Step{Status: StepCompleted, Details: s.health}
}
