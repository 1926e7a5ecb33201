package config

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/122.0 Safari/537.36 signals-digest/1.0"

const defaultSystemPrompt = `You are a careful analyst summarizing energy transition and ESG news.
Use ONLY the provided excerpt. Do not use outside knowledge and do not add URLs.
If the excerpt lacks details, say so instead of guessing.`

func defaultConfig() Config {
	return Config{
		Timezone: defaultTimezone,
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Output:   OutputConfig{Directory: "out"},
		State: StateConfig{
			Backend:  BackendFile,
			Path:     "state/seen_urls.json",
			RedisKey: "signals-digest:seen",
		},
		HTTP: HTTPConfig{
			UserAgent:         defaultUserAgent,
			TimeoutSeconds:    25,
			MaxBytes:          6 << 20,
			MaxRetries:        3,
			RequestsPerSecond: 2,
			DateResolveBudget: 75,
			MaxEntriesPerFeed: 500,
		},
		Summarizer: SummarizerConfig{
			Provider:       ProviderOpenAI,
			Endpoint:       "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			Temperature:    0.2,
			MaxTokens:      1400,
			TimeoutSeconds: 60,
			MaxRetries:     5,
			ExcerptChars:   2200,
			SystemPrompt:   defaultSystemPrompt,
		},
		Selection: SelectionConfig{
			ItemsPerSection:  7,
			PerDomainCap:     3,
			MinTextChars:     300,
			PriorityMinChars: 200,
			LookbackDays:     1,
		},
		Sections: []SectionConfig{
			{
				Name: "Energy Transition",
				Sources: []SourceConfig{
					{Name: "RenewEconomy", Scanner: ScannerRSS, URL: "https://reneweconomy.com.au/feed/"},
					{Name: "ARENA news", Scanner: ScannerHTML, URL: "https://arena.gov.au/news/"},
				},
			},
			{
				Name: "ESG Reporting",
				Sources: []SourceConfig{
					{Name: "IFRS news", Scanner: ScannerHTML, URL: "https://www.ifrs.org/news-and-events/updates/"},
				},
			},
			{
				Name: "Sustainable Finance & Investment",
				Sources: []SourceConfig{
					{Name: "CEFC media releases", Scanner: ScannerHTML, URL: "https://www.cefc.com.au/media/media-release/"},
				},
			},
		},
		Digests: []DigestConfig{
			{
				Kind:     "strategic-signals",
				Title:    "Strategic Signals",
				Cadence:  "daily",
				Sections: []string{"Energy Transition", "ESG Reporting"},
			},
			{
				Kind:     "investor-radar",
				Title:    "Investor Radar",
				Cadence:  "daily",
				Sections: []string{"Sustainable Finance & Investment"},
			},
			{
				Kind:     "monthly-digest",
				Title:    "Signals Digest",
				Cadence:  "monthly",
				Sections: []string{"Energy Transition", "ESG Reporting", "Sustainable Finance & Investment"},
			},
		},
	}
}
