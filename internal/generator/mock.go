package generator

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// Prompt fingerprints recognized by the mock generator.
const (
	FingerprintPlanning = "site architecture"
	FingerprintContent  = "generate production-ready wordpress content"
	FingerprintPosts    = "blog posts"
)

var businessNamePattern = regexp.MustCompile(`Business name:\s*(.+)`)

// Mock returns deterministic payloads keyed off a fingerprint in the prompt.
type Mock struct{}

// NewMock creates a mock generator.
func NewMock() *Mock {
	return &Mock{}
}

// Generate returns the canned payload for the prompt.
func (m *Mock) Generate(ctx context.Context, prompt string, _ Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lower := strings.ToLower(prompt)
	var doc any
	switch {
	case strings.Contains(lower, FingerprintPlanning):
		doc = planningResponse(extractBusinessName(prompt))
	case strings.Contains(lower, FingerprintContent):
		doc = contentResponse()
	case strings.Contains(lower, FingerprintPosts):
		doc = postsResponse()
	default:
		doc = map[string]any{
			"status":         "ok",
			"action":         "generic_action",
			"result_summary": "Generic result",
			"result":         map[string]any{},
			"assumptions":    []string{},
			"confidence":     0.85,
			"next_steps":     []string{},
		}
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func extractBusinessName(prompt string) string {
	if m := businessNamePattern.FindStringSubmatch(prompt); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	return "Business"
}

type obj = map[string]any

func page(title, slug, purpose, priority, template string, themes ...string) obj {
	return obj{
		"title":          title,
		"slug":           slug,
		"purpose":        purpose,
		"content_themes": themes,
		"priority":       priority,
		"template":       template,
	}
}

func planningResponse(businessName string) obj {
	return obj{
		"status":         "ok",
		"action":         "site_architecture_generated",
		"result_summary": "Generated architecture for " + businessName,
		"result": obj{
			"site_structure": obj{
				"pages": []obj{
					page("Home", "home", "Welcome visitors and showcase key offerings", "high", "front-page",
						"hero_section", "services_overview", "testimonials", "cta"),
					page("About Us", "about", "Tell the business story and build trust", "high", "default",
						"company_history", "team", "values", "mission"),
					page("Services", "services", "Detail all services offered", "high", "default",
						"service_list", "pricing", "process"),
					page("Menu", "menu", "Display food menu and pricing", "high", "default",
						"menu_items", "specials", "pricing"),
					page("Gallery", "gallery", "Showcase photos", "medium", "default", "photo_gallery"),
					page("Contact", "contact", "Provide contact information and form", "high", "default",
						"contact_form", "location_map", "hours"),
					page("Blog", "blog", "Share news and updates", "medium", "default", "blog_posts"),
				},
				"menus": []obj{{
					"location": "primary",
					"name":     "Main Menu",
					"items":    []string{"Home", "About Us", "Services", "Menu", "Gallery", "Contact", "Blog"},
				}},
			},
			"features": []obj{
				{"name": "Contact Form", "priority": "high", "implementation": "plugin"},
				{"name": "Online Ordering", "priority": "medium", "implementation": "plugin"},
				{"name": "Photo Gallery", "priority": "medium", "implementation": "theme"},
			},
			"plugins": []obj{
				{"name": "Contact Form 7", "slug": "contact-form-7", "purpose": "Handle contact inquiries", "required": true},
				{"name": "Yoast SEO", "slug": "wordpress-seo", "purpose": "Search engine optimization", "required": true},
				{"name": "WP Super Cache", "slug": "wp-super-cache", "purpose": "Performance optimization", "required": true},
			},
			"content_strategy": obj{
				"post_types":         []string{"posts"},
				"initial_categories": []string{"News", "Updates", "Recipes"},
				"suggested_posts": []obj{
					{"title": "Welcome to Our Restaurant", "theme": "introduction"},
					{"title": "Our Story: Family Tradition Since 1985", "theme": "history"},
					{"title": "Fresh Ingredients, Authentic Taste", "theme": "quality"},
				},
			},
			"seo_foundation": obj{
				"primary_keywords":          []string{"pizza restaurant", "italian food", "brooklyn pizza"},
				"site_tagline":              "Authentic Italian Pizza Since 1985",
				"meta_description_template": businessName + " - Your trusted local business",
			},
		},
		"assumptions": []string{},
		"confidence":  0.87,
		"next_steps":  []string{"generate_content"},
	}
}

func contentPage(title, slug, html, seoTitle, meta, keyword string) obj {
	return obj{
		"title":        title,
		"slug":         slug,
		"content_html": html,
		"seo": obj{
			"title":            seoTitle,
			"meta_description": meta,
			"slug":             slug,
			"focus_keyword":    keyword,
		},
	}
}

func contentResponse() obj {
	return obj{
		"pages": []obj{
			contentPage("Home", "home",
				"<h1>Welcome to Our Restaurant</h1><p>Experience authentic Italian cuisine...</p>",
				"Home - Authentic Italian Pizza",
				"Family-owned pizza restaurant serving authentic Italian pizza since 1985",
				"italian pizza"),
			contentPage("About Us", "about",
				"<h1>Our Story</h1><p>Since 1985, we've been serving Brooklyn...</p>",
				"About Us - Our Story",
				"Learn about our family tradition of authentic Italian cooking",
				"family restaurant"),
			contentPage("Menu", "menu",
				"<h1>Our Menu</h1><h2>Pizzas</h2><p>Margherita, Pepperoni, Quattro Formaggi...</p>",
				"Menu - Pizza & Italian Dishes",
				"View our full menu of authentic Italian pizzas and dishes",
				"pizza menu"),
			contentPage("Contact", "contact",
				"<h1>Contact Us</h1><p>Visit us or get in touch...</p>",
				"Contact Us - Get In Touch",
				"Contact us for reservations or inquiries",
				"contact"),
		},
	}
}

func postsResponse() obj {
	return obj{
		"posts": []obj{
			{
				"title":        "Welcome to Our Restaurant",
				"slug":         "welcome",
				"content_html": "<p>We're excited to welcome you to our family restaurant...</p>",
				"excerpt":      "Welcome to our authentic Italian restaurant",
				"categories":   []string{"News"},
				"tags":         []string{"welcome", "announcement"},
			},
			{
				"title":        "Our Story: Family Tradition Since 1985",
				"slug":         "our-story",
				"content_html": "<p>Our journey began in 1985 when...</p>",
				"excerpt":      "Learn about our family's journey",
				"categories":   []string{"News"},
				"tags":         []string{"history", "family"},
			},
			{
				"title":        "Fresh Ingredients, Authentic Taste",
				"slug":         "fresh-ingredients",
				"content_html": "<p>We source only the finest ingredients...</p>",
				"excerpt":      "Quality ingredients make the difference",
				"categories":   []string{"Updates"},
				"tags":         []string{"quality", "ingredients"},
			},
		},
	}
}

var _ Generator = (*Mock)(nil)
