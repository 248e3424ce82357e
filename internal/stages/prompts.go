package stages

const planningTemplate = `
Task: Generate WordPress site architecture for business.

Input:
- Business name: {{business_name}}
- Business type: {{business_type}}
- Industry: {{industry}}
- Description: {{description}}
- Target audience: {{target_audience}}
- Key goals: {{goals}}

Decision Rules:
1. If required parameter missing, use specified default or most common WordPress standard
2. Generate 5-8 essential pages (Home, About, Services/Products, Contact mandatory)
3. Max 5 plugin recommendations
4. All suggestions must work with free WordPress.org plugins
5. Assume mobile-first design priority

Output valid JSON only with this exact structure:
{
  "status": "ok|failed|needs_input",
  "action": "site_architecture_generated",
  "result_summary": "Generated architecture for [business_name]",
  "result": {
    "site_structure": {
      "pages": [
        {"title": "Home", "slug": "home", "purpose": "...", "content_themes": [], "priority": "high", "template": "default"}
      ],
      "menus": [{"location": "primary", "items": ["Home", "About"]}]
    },
    "features": [{"name": "Contact Form", "priority": "high", "implementation": "plugin"}],
    "plugins": [{"name": "Contact Form 7", "slug": "contact-form-7", "purpose": "Handle contact", "required": true}],
    "content_strategy": {
      "post_types": ["posts"],
      "initial_categories": ["News"],
      "suggested_posts": [{"title": "Welcome", "theme": "introduction"}]
    },
    "seo_foundation": {
      "primary_keywords": ["kw1", "kw2"],
      "site_tagline": "Professional tagline",
      "meta_description_template": "template"
    }
  },
  "assumptions": [],
  "confidence": 0.85,
  "next_steps": ["generate_content"]
}

Generate complete, valid JSON now.
`

const contentBatchTemplate = `
Generate production-ready WordPress content for these pages:
{{pages}}

Business context: {{business_context}}
Tone: {{tone}}

For each page, provide:
1. Full HTML content (WordPress Gutenberg compatible)
2. SEO title (max 60 chars)
3. Meta description (max 160 chars)
4. Focus keyword

Output valid JSON: {"pages": [{"title": "", "slug": "", "content_html": "", "seo": {"title": "", "meta_description": "", "slug": "", "focus_keyword": ""}}]}
`

const postsTemplate = `
Generate {{count}} blog posts for:
Business: {{business_name}}
Topics: {{topics}}

Each post: 500-800 words, SEO optimized.
Output valid JSON: {"posts": [{"title": "", "slug": "", "content_html": "", "excerpt": "", "categories": [], "tags": []}]}
`
