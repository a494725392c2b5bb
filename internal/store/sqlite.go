package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/stock-themes/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS stocks (
	ticker       TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	sector       TEXT,
	industry     TEXT,
	sic_code     TEXT,
	market_cap   REAL,
	exchange     TEXT,
	patent_count INTEGER DEFAULT 0,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS themes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT UNIQUE NOT NULL,
	category    TEXT,
	description TEXT
);

CREATE TABLE IF NOT EXISTS stock_themes (
	ticker     TEXT NOT NULL REFERENCES stocks(ticker),
	theme_id   INTEGER NOT NULL REFERENCES themes(id),
	confidence REAL NOT NULL,
	source     TEXT NOT NULL,
	evidence   TEXT,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (ticker, theme_id)
);

CREATE TABLE IF NOT EXISTS social_messages (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	ticker       TEXT NOT NULL,
	source       TEXT NOT NULL DEFAULT 'stocktwits',
	message_id   TEXT,
	body         TEXT NOT NULL,
	sentiment    TEXT,
	created_at   DATETIME,
	collected_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(source, message_id)
);

CREATE TABLE IF NOT EXISTS provider_cache (
	provider   TEXT NOT NULL,
	ticker     TEXT NOT NULL,
	profile    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL,
	PRIMARY KEY (provider, ticker)
);

CREATE INDEX IF NOT EXISTS idx_stock_themes_theme ON stock_themes(theme_id);
CREATE INDEX IF NOT EXISTS idx_stock_themes_confidence ON stock_themes(confidence DESC);
CREATE INDEX IF NOT EXISTS idx_stocks_market_cap ON stocks(market_cap DESC);
CREATE INDEX IF NOT EXISTS idx_social_ticker_date ON social_messages(ticker, collected_at);
CREATE INDEX IF NOT EXISTS idx_provider_cache_expires ON provider_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveThemeResult(ctx context.Context, result *model.ThemeResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO stocks (ticker, name, sector, industry, sic_code, market_cap, exchange, patent_count, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(ticker) DO UPDATE SET
		   name=excluded.name, sector=excluded.sector, industry=excluded.industry,
		   sic_code=excluded.sic_code, market_cap=excluded.market_cap,
		   exchange=excluded.exchange, patent_count=excluded.patent_count,
		   updated_at=excluded.updated_at`,
		result.Ticker, result.Profile.Name, result.Profile.Sector,
		result.Profile.Industry, result.Profile.SICCode, result.Profile.MarketCap,
		result.Profile.Exchange, result.Profile.PatentCount, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert stock %s", result.Ticker)
	}

	// Replace the ticker's themes wholesale so stale rows never linger.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM stock_themes WHERE ticker = ?`, result.Ticker); err != nil {
		return eris.Wrapf(err, "sqlite: clear themes for %s", result.Ticker)
	}

	for _, theme := range result.Themes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO themes (name, category) VALUES (?, ?)
			 ON CONFLICT(name) DO UPDATE SET category=excluded.category`,
			theme.Name, theme.CanonicalCategory); err != nil {
			return eris.Wrapf(err, "sqlite: upsert theme %s", theme.Name)
		}

		var themeID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM themes WHERE name = ?`, theme.Name).Scan(&themeID); err != nil {
			return eris.Wrapf(err, "sqlite: theme id for %s", theme.Name)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stock_themes (ticker, theme_id, confidence, source, evidence, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			result.Ticker, themeID, theme.Confidence, string(theme.Source), theme.Evidence, now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert stock theme %s/%s", result.Ticker, theme.Name)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save")
}

func (s *SQLiteStore) GetStock(ctx context.Context, ticker string) (*Stock, error) {
	var stock Stock
	var sector, industry, sic, exchange sql.NullString
	var marketCap sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT ticker, name, sector, industry, sic_code, market_cap, exchange, patent_count, updated_at
		 FROM stocks WHERE ticker = ?`, strings.ToUpper(ticker),
	).Scan(&stock.Ticker, &stock.Name, &sector, &industry, &sic,
		&marketCap, &exchange, &stock.PatentCount, &stock.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get stock %s", ticker)
	}
	stock.Sector = sector.String
	stock.Industry = industry.String
	stock.SICCode = sic.String
	stock.MarketCap = marketCap.Float64
	stock.Exchange = exchange.String
	return &stock, nil
}

func (s *SQLiteStore) GetThemesForStock(ctx context.Context, ticker string, minConfidence float64) ([]StockTheme, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.name, COALESCE(t.category, ''), st.confidence, st.source, COALESCE(st.evidence, '')
		 FROM stock_themes st
		 JOIN themes t ON t.id = st.theme_id
		 WHERE st.ticker = ? AND st.confidence >= ?
		 ORDER BY st.confidence DESC, t.name`,
		strings.ToUpper(ticker), minConfidence)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: themes for %s", ticker)
	}
	defer rows.Close()

	var themes []StockTheme
	for rows.Next() {
		var t StockTheme
		if err := rows.Scan(&t.Name, &t.Category, &t.Confidence, &t.Source, &t.Evidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stock theme")
		}
		themes = append(themes, t)
	}
	return themes, eris.Wrap(rows.Err(), "sqlite: iterate stock themes")
}

func (s *SQLiteStore) GetStocksForTheme(ctx context.Context, theme string, minConfidence float64) ([]ThemeStock, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.ticker, s.name, COALESCE(s.market_cap, 0), st.confidence, st.source
		 FROM stock_themes st
		 JOIN stocks s ON s.ticker = st.ticker
		 JOIN themes t ON t.id = st.theme_id
		 WHERE t.name = ? AND st.confidence >= ?
		 ORDER BY st.confidence DESC, s.ticker`,
		theme, minConfidence)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: stocks for theme %s", theme)
	}
	defer rows.Close()

	var stocks []ThemeStock
	for rows.Next() {
		var t ThemeStock
		if err := rows.Scan(&t.Ticker, &t.Name, &t.MarketCap, &t.Confidence, &t.Source); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan theme stock")
		}
		stocks = append(stocks, t)
	}
	return stocks, eris.Wrap(rows.Err(), "sqlite: iterate theme stocks")
}

func (s *SQLiteStore) ThemeDistribution(ctx context.Context) ([]ThemeStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.name, COALESCE(t.category, ''), COUNT(*) AS stock_count, AVG(st.confidence)
		 FROM stock_themes st
		 JOIN themes t ON t.id = st.theme_id
		 GROUP BY t.name
		 ORDER BY stock_count DESC, t.name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: theme distribution")
	}
	defer rows.Close()

	var stats []ThemeStat
	for rows.Next() {
		var st ThemeStat
		if err := rows.Scan(&st.Name, &st.Category, &st.StockCount, &st.AvgConfidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan theme stat")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: iterate theme stats")
}

func (s *SQLiteStore) AllTickers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker FROM stocks ORDER BY ticker`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: all tickers")
	}
	defer rows.Close()
	return scanTickers(rows)
}

func (s *SQLiteStore) TickersUpdatedSince(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ticker FROM stocks WHERE updated_at >= ? ORDER BY ticker`, since.UTC())
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: tickers updated since")
	}
	defer rows.Close()
	return scanTickers(rows)
}

func scanTickers(rows *sql.Rows) ([]string, error) {
	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "store: scan ticker")
		}
		tickers = append(tickers, t)
	}
	return tickers, eris.Wrap(rows.Err(), "store: iterate tickers")
}

func (s *SQLiteStore) StoreSocialMessages(ctx context.Context, messages []model.SocialMessage) (int, error) {
	inserted := 0
	for _, msg := range messages {
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO social_messages (ticker, source, message_id, body, sentiment, created_at, collected_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			strings.ToUpper(msg.Ticker), msg.Source, msg.MessageID, msg.Body,
			nullString(msg.Sentiment), msg.CreatedAt, time.Now().UTC())
		if err != nil {
			return inserted, eris.Wrapf(err, "sqlite: insert social message %s", msg.MessageID)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, nil
}

func (s *SQLiteStore) SocialText(ctx context.Context, ticker string, days int) (string, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	// Bullish and neutral only; bearish chatter is excluded from theme text.
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM social_messages
		 WHERE ticker = ? AND collected_at >= ?
		   AND (sentiment = 'Bullish' OR sentiment IS NULL)
		 ORDER BY collected_at`,
		strings.ToUpper(ticker), cutoff)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: social text for %s", ticker)
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return "", eris.Wrap(err, "sqlite: scan social body")
		}
		bodies = append(bodies, body)
	}
	return strings.Join(bodies, " "), eris.Wrap(rows.Err(), "sqlite: iterate social bodies")
}

func (s *SQLiteStore) GetCachedProfile(ctx context.Context, provider, ticker string) (*model.CompanyProfile, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM provider_cache
		 WHERE provider = ? AND ticker = ? AND expires_at > ?`,
		provider, strings.ToUpper(ticker), time.Now().UTC(),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: cached profile %s/%s", provider, ticker)
	}

	var profile model.CompanyProfile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached profile")
	}
	return &profile, nil
}

func (s *SQLiteStore) SetCachedProfile(ctx context.Context, provider, ticker string, profile *model.CompanyProfile, ttl time.Duration) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal cached profile")
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO provider_cache (provider, ticker, profile, cached_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(provider, ticker) DO UPDATE SET
		   profile=excluded.profile, cached_at=excluded.cached_at, expires_at=excluded.expires_at`,
		provider, strings.ToUpper(ticker), string(payload), now, now.Add(ttl))
	return eris.Wrapf(err, "sqlite: cache profile %s/%s", provider, ticker)
}

func (s *SQLiteStore) DeleteExpiredProfiles(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM provider_cache WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired profiles")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
