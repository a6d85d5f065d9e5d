package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "/usr/local/var/animerec/data/anime.csv"
	}
	if cfg.Catalog.Franchises == nil {
		cfg.Catalog.Franchises = []string{"Gintama"}
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.FilterSort == "" {
		cfg.Search.FilterSort = "rating"
	}
	if cfg.Search.ExcludedGenres == nil {
		cfg.Search.ExcludedGenres = []string{"Hentai", "Ecchi", "Horror", "Yaoi"}
	}
	if cfg.Lookup.BaseURL == "" {
		cfg.Lookup.BaseURL = "https://api.jikan.moe/v4"
	}
	if cfg.Lookup.Timeout == 0 {
		cfg.Lookup.Timeout = 5 * time.Second
	}
	if cfg.Lookup.RatePerSecond == 0 {
		cfg.Lookup.RatePerSecond = 3
	}
	if cfg.Lookup.PlaceholderURL == "" {
		cfg.Lookup.PlaceholderURL = "https://via.placeholder.com/150"
	}
	if cfg.Lookup.CacheSize == 0 {
		cfg.Lookup.CacheSize = 2000
	}
	if cfg.Lookup.CacheTTL == 0 {
		cfg.Lookup.CacheTTL = 7 * 24 * time.Hour
	}
	if cfg.Lookup.EnrichConcurrency == 0 {
		cfg.Lookup.EnrichConcurrency = 4
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/animerec/data/db/lookups.db"
	}
}
