package rules

// Selectors lists CSS queries in priority order. The high-precision lists come
// first, the Fallback lists are generic class/attribute patterns.
type Selectors struct {
	Cards []string `yaml:"cards"`

	Title         []string `yaml:"title"`
	TitleFallback []string `yaml:"title_fallback"`

	Company         []string `yaml:"company"`
	CompanyFallback []string `yaml:"company_fallback"`

	JobTypeBadge []string `yaml:"job_type_badge"`

	Location         []string `yaml:"location"`
	LocationFallback []string `yaml:"location_fallback"`

	Experience         []string `yaml:"experience"`
	ExperienceFallback []string `yaml:"experience_fallback"`

	Description         []string `yaml:"description"`
	DescriptionFallback []string `yaml:"description_fallback"`

	Compensation []string `yaml:"compensation"`
	CardSkills   []string `yaml:"card_skills"`

	// class fragments marking a "view details" style anchor
	DetailLinkClasses []string `yaml:"detail_link_classes"`
	DetailHrefPattern string   `yaml:"detail_href_pattern"`

	Detail     DetailSelectors     `yaml:"detail"`
	Pagination PaginationSelectors `yaml:"pagination"`
}

type DetailSelectors struct {
	Title                []string `yaml:"title"`
	Company              []string `yaml:"company"`
	DescriptionHeadings  []string `yaml:"description_headings"`
	DescriptionBody      []string `yaml:"description_body"`
	DescriptionFallback  []string `yaml:"description_fallback"`
	SkillHeadings        []string `yaml:"skill_headings"`
	SkillTags            []string `yaml:"skill_tags"`
	SkillFallback        []string `yaml:"skill_fallback"`
	LocationLabels       []string `yaml:"location_labels"`
	JobTypeLabels        []string `yaml:"job_type_labels"`
	CompensationLabels   []string `yaml:"compensation_labels"`
	ReadyPredicateScript string   `yaml:"ready_predicate"`
}

type PaginationSelectors struct {
	// plain CSS only, these run through document.querySelectorAll
	Next        []string `yaml:"next"`
	PageButtons []string `yaml:"page_buttons"`
	EndMarkers  []string `yaml:"end_markers"`
}

// DefaultSelectors returns a new copy of the built-in selector lists.
func DefaultSelectors() Selectors {
	return Selectors{
		Cards: []string{
			`div.group.relative.w-full`,
			`div[class*="group"][class*="relative"][class*="w-full"]`,
			`div[class*="rounded-lg"][class*="text-card-foreground"]:has(a[href*="/jobs/"])`,
			`div[class*="border"][class*="border-neutral-800"][class*="bg-black"]`,
			`div:has(a:contains("View Details")):has(a:contains("Apply"))`,
			`article:has(a[href*="/jobs/"])`,
			`li:has(a[href*="/jobs/"])`,
		},

		Title: []string{
			`div[class*="tracking-tight"][class*="font-semibold"][class*="text-white"]`,
			`div[class*="font-semibold"][class*="leading-tight"]`,
			`div[class*="text-base"][class*="sm:text-lg"]`,
		},
		TitleFallback: []string{`h1`, `h2`, `h3`, `h4`, `[class*="job-title"]`, `[class*="title"]`},

		Company: []string{
			`p[class*="text-xs"][class*="font-medium"][class*="text-neutral-500"][class*="uppercase"]`,
			`p[class*="uppercase"][class*="tracking-wide"]`,
			`p[class*="text-neutral-500"][class*="mb-1"]`,
		},
		CompanyFallback: []string{`[class*="company"]`, `[class*="employer"]`, `p:first-of-type`, `span:first-of-type`},

		JobTypeBadge: []string{
			`div[class*="inline-flex"][class*="rounded-full"][class*="px-2.5"][class*="py-0.5"]`,
			`div[class*="border-neutral-700"][class*="bg-neutral-800"][class*="text-xs"]`,
			`span[class*="rounded-full"][class*="px-2"]`,
			`div[class*="badge"]`,
		},

		Location: []string{
			`svg[class*="lucide-map-pin"] + span`,
			`svg[class*="map-pin"] ~ span`,
			`div:has(svg[class*="map-pin"]) span[class*="font-medium"]`,
		},
		LocationFallback: []string{`span[class*="truncate"]`, `[class*="location"]`, `[class*="place"]`, `[class*="city"]`},

		Experience: []string{
			`svg[class*="lucide-clock"] + span`,
			`svg[class*="clock"] ~ span`,
			`div:has(svg[class*="clock"]) span[class*="font-medium"]`,
		},
		ExperienceFallback: []string{`[class*="experience"]`, `span:contains("years")`, `span:contains("Years")`},

		Description: []string{
			`p[class*="text-sm"][class*="text-neutral-300"][class*="leading-relaxed"]`,
			`p[class*="line-clamp-3"]`,
			`p[class*="text-neutral-300"]:not([class*="text-xs"])`,
		},
		DescriptionFallback: []string{`[class*="description"]`, `[class*="summary"]`, `p`},

		Compensation: []string{
			`span[class*="text-sm"][class*="font-semibold"][class*="text-neutral-200"]`,
			`div[class*="border-t"] span[class*="font-semibold"]`,
			`div[class*="py-3"] span[class*="font-semibold"]`,
		},
		CardSkills: []string{
			`[class*="skill"]`,
			`[class*="tag"]:not([class*="rounded-full"])`,
			`[class*="badge"]:not([class*="rounded-full"])`,
			`[class*="tech"]`,
			`.bg-blue-100`,
			`.bg-gray-100`,
		},

		DetailLinkClasses: []string{"border-neutral-700", "bg-neutral-900"},
		DetailHrefPattern: "/jobs/",

		Detail: DetailSelectors{
			Title:               []string{`h1.text-3xl`, `h1`, `[class*="job-title"]`},
			Company:             []string{`div.flex.items-center.gap-3 img[alt]`, `header img[alt]`, `img[alt][class*="logo"]`},
			DescriptionHeadings: []string{"job description", "description", "about the role"},
			DescriptionBody:     []string{`div.prose`, `[class*="prose"]`},
			DescriptionFallback: []string{
				`div.prose.prose-invert`, `div.prose`, `[class*="description"]`, `[class*="job-details"]`,
				`[class*="content"]`, `article`,
			},
			SkillHeadings: []string{"required skills", "skills required", "skills", "tech stack"},
			SkillTags: []string{
				`div.flex.flex-wrap span`,
				`span[class*="rounded"]`,
				`span`,
				`li`,
			},
			SkillFallback: []string{
				`div.flex.flex-wrap span[class*="2CEE91"]`,
				`span[class*="skill"]`,
				`[class*="tag"]`,
			},
			LocationLabels:       []string{"location"},
			JobTypeLabels:        []string{"job type", "employment type"},
			CompensationLabels:   []string{"compensation", "salary"},
			ReadyPredicateScript: `() => !!document.querySelector('main')`,
		},

		Pagination: PaginationSelectors{
			Next: []string{
				`button[aria-label*="next" i]`,
				`a[aria-label*="next" i]`,
				`[class*="next"]`,
				`[class*="pagination"] button:last-child`,
				`nav[aria-label*="pagination" i] a:last-child`,
			},
			PageButtons: []string{
				`[class*="pagination"] button`,
				`[class*="pagination"] a`,
				`nav[aria-label*="pagination" i] button`,
				`nav[aria-label*="pagination" i] a`,
			},
			EndMarkers: []string{"no more jobs", "end of results", "no jobs found", "you've reached the end"},
		},
	}
}

// Rules bundles everything the extraction components are built from.
type Rules struct {
	Vocabulary Vocabulary `yaml:"vocabulary"`
	Selectors  Selectors  `yaml:"selectors"`
}

func Default() Rules {
	return Rules{Vocabulary: DefaultVocabulary(), Selectors: DefaultSelectors()}
}
