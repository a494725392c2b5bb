// Package store persists company profiles, ranked themes, social messages and
// cached provider payloads behind one interface with SQLite and Postgres
// implementations.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/stock-themes/internal/config"
	"github.com/sells-group/stock-themes/internal/model"
)

// Stock is a stored company row.
type Stock struct {
	Ticker      string    `json:"ticker"`
	Name        string    `json:"name"`
	Sector      string    `json:"sector,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	SICCode     string    `json:"sic_code,omitempty"`
	MarketCap   float64   `json:"market_cap,omitempty"`
	Exchange    string    `json:"exchange,omitempty"`
	PatentCount int       `json:"patent_count,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockTheme is one theme attached to a stock, as returned by lookups.
type StockTheme struct {
	Name       string  `json:"name"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Evidence   string  `json:"evidence,omitempty"`
}

// ThemeStock is one stock carrying a theme, as returned by reverse lookups.
type ThemeStock struct {
	Ticker     string  `json:"ticker"`
	Name       string  `json:"name"`
	MarketCap  float64 `json:"market_cap,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// ThemeStat is one row of the theme distribution report.
type ThemeStat struct {
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	StockCount    int     `json:"stock_count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for the theme engine.
type Store interface {
	// Results. SaveThemeResult replaces a ticker's themes atomically: a crash
	// mid-save leaves no partial data.
	SaveThemeResult(ctx context.Context, result *model.ThemeResult) error
	GetStock(ctx context.Context, ticker string) (*Stock, error)
	GetThemesForStock(ctx context.Context, ticker string, minConfidence float64) ([]StockTheme, error)
	GetStocksForTheme(ctx context.Context, theme string, minConfidence float64) ([]ThemeStock, error)
	ThemeDistribution(ctx context.Context) ([]ThemeStat, error)
	AllTickers(ctx context.Context) ([]string, error)
	TickersUpdatedSince(ctx context.Context, since time.Time) ([]string, error)

	// Social messages. StoreSocialMessages skips duplicates and returns the
	// number inserted. SocialText aggregates non-bearish message bodies
	// collected in the trailing window.
	StoreSocialMessages(ctx context.Context, messages []model.SocialMessage) (int, error)
	SocialText(ctx context.Context, ticker string, days int) (string, error)

	// Provider cache
	GetCachedProfile(ctx context.Context, provider, ticker string) (*model.CompanyProfile, error)
	SetCachedProfile(ctx context.Context, provider, ticker string, profile *model.CompanyProfile, ttl time.Duration) error
	DeleteExpiredProfiles(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New builds a Store from configuration.
func New(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(context.Background(), cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
