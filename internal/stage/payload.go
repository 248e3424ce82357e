package stage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PageSpec is one planned page.
type PageSpec struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Purpose       string   `json:"purpose"`
	ContentThemes []string `json:"content_themes"`
	Priority      string   `json:"priority"`
	Template      string   `json:"template"`
}

// Menu is a navigation menu and the page titles it links.
type Menu struct {
	Location string   `json:"location"`
	Name     string   `json:"name,omitempty"`
	Items    []string `json:"items"`
}

// SiteStructure is the planned page tree and navigation.
type SiteStructure struct {
	Pages []PageSpec `json:"pages"`
	Menus []Menu     `json:"menus"`
}

// Feature is a planned site capability. Generators emit either a bare
// string or an object; both decode.
type Feature struct {
	Name           string `json:"name"`
	Priority       string `json:"priority,omitempty"`
	Implementation string `json:"implementation,omitempty"`
}

// UnmarshalJSON accepts "Contact Form" as well as {"name": "Contact Form"}.
func (f *Feature) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &f.Name)
	}
	type plain Feature
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = Feature(p)
	return nil
}

// Mentions reports whether any field of the feature contains needle, case-insensitively.
func (f Feature) Mentions(needle string) bool {
	hay := strings.ToLower(f.Name + " " + f.Priority + " " + f.Implementation)
	return strings.Contains(hay, strings.ToLower(needle))
}

// PluginRecommendation is a plugin suggested by planning.
type PluginRecommendation struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Purpose  string `json:"purpose"`
	Required bool   `json:"required"`
}

// SuggestedPost is a blog topic proposed by planning.
type SuggestedPost struct {
	Title string `json:"title"`
	Theme string `json:"theme"`
}

// ContentStrategy is the blog plan.
type ContentStrategy struct {
	PostTypes         []string        `json:"post_types"`
	InitialCategories []string        `json:"initial_categories"`
	SuggestedPosts    []SuggestedPost `json:"suggested_posts"`
}

// SEOFoundation holds site-wide SEO decisions.
type SEOFoundation struct {
	PrimaryKeywords         []string `json:"primary_keywords"`
	SiteTagline             string   `json:"site_tagline"`
	MetaDescriptionTemplate string   `json:"meta_description_template"`
}

// PlanningResult is the payload of the architecture stage.
type PlanningResult struct {
	SiteStructure    SiteStructure          `json:"site_structure"`
	Features         []Feature              `json:"features"`
	Plugins          []PluginRecommendation `json:"plugins"`
	ContentStrategy  ContentStrategy        `json:"content_strategy"`
	SEOFoundation    SEOFoundation          `json:"seo_foundation"`
	ResolvedIndustry string                 `json:"resolved_industry"`
}

// SEO is per-page search metadata.
type SEO struct {
	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	Slug            string `json:"slug"`
	FocusKeyword    string `json:"focus_keyword"`
}

// Page is generated page content.
type Page struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	ContentHTML string `json:"content_html"`
	SEO         SEO    `json:"seo"`
}

// Term is a post category or tag: a numeric remote ID or a plain name.
type Term struct {
	ID   int
	Name string
}

// UnmarshalJSON accepts numbers and strings.
func (t *Term) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if id, err := strconv.Atoi(s); err == nil && id > 0 {
			t.ID = id
			return nil
		}
		t.Name = s
		return nil
	}
	var id int
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("term must be a string or integer: %w", err)
	}
	t.ID = id
	return nil
}

// MarshalJSON writes the ID when known, otherwise the name.
func (t Term) MarshalJSON() ([]byte, error) {
	if t.ID > 0 {
		return json.Marshal(t.ID)
	}
	return json.Marshal(t.Name)
}

// Post is generated blog content.
type Post struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	ContentHTML string `json:"content_html"`
	Excerpt     string `json:"excerpt"`
	Categories  []Term `json:"categories"`
	Tags        []Term `json:"tags"`
}

// ContentResult is the payload of the content stage.
type ContentResult struct {
	Pages []Page `json:"pages"`
	Posts []Post `json:"posts"`
}

// Theme is the selected theme.
type Theme struct {
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Version          string   `json:"version"`
	Type             string   `json:"type"`
	Justification    string   `json:"justification"`
	Features         []string `json:"features"`
	PerformanceScore string   `json:"performance_score"`
}

// Palette is a theme color scheme.
type Palette struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// Typography holds font choices.
type Typography struct {
	HeadingFont string `json:"heading_font"`
	BodyFont    string `json:"body_font"`
	BaseSize    string `json:"base_size"`
}

// Layout holds page layout choices.
type Layout struct {
	ContainerWidth string `json:"container_width"`
	Sidebar        string `json:"sidebar"`
	HeaderStyle    string `json:"header_style"`
}

// DesignConfig is the style configuration.
type DesignConfig struct {
	ColorPalette Palette    `json:"color_palette"`
	Typography   Typography `json:"typography"`
	Layout       Layout     `json:"layout"`
}

// DesignResult is the payload of the design stage.
type DesignResult struct {
	PrimaryTheme Theme        `json:"primary_theme"`
	DesignConfig DesignConfig `json:"design_config"`
}

// Plugin is a selected plugin with its configuration.
type Plugin struct {
	Name          string         `json:"name"`
	Slug          string         `json:"slug"`
	Purpose       string         `json:"purpose"`
	Required      bool           `json:"required"`
	Priority      int            `json:"priority"`
	Configuration map[string]any `json:"configuration"`
}

// PluginResult is the payload of the plugin selection stage.
type PluginResult struct {
	EssentialPlugins   []Plugin `json:"essential_plugins"`
	EstimatedSetupTime string   `json:"estimated_setup_time"`
	PerformanceImpact  string   `json:"performance_impact"`
}
