package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/stock-themes/internal/model"
)

// pgQuerier is the subset of pgxpool.Pool used by PostgresStore. Tests swap in
// a mock.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool pgQuerier
}

// NewPostgres connects to Postgres using the given URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS stocks (
	ticker       TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	sector       TEXT,
	industry     TEXT,
	sic_code     TEXT,
	market_cap   DOUBLE PRECISION,
	exchange     TEXT,
	patent_count INTEGER DEFAULT 0,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS themes (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT UNIQUE NOT NULL,
	category    TEXT,
	description TEXT
);

CREATE TABLE IF NOT EXISTS stock_themes (
	ticker     TEXT NOT NULL REFERENCES stocks(ticker),
	theme_id   BIGINT NOT NULL REFERENCES themes(id),
	confidence DOUBLE PRECISION NOT NULL,
	source     TEXT NOT NULL,
	evidence   TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (ticker, theme_id)
);

CREATE TABLE IF NOT EXISTS social_messages (
	id           BIGSERIAL PRIMARY KEY,
	ticker       TEXT NOT NULL,
	source       TEXT NOT NULL DEFAULT 'stocktwits',
	message_id   TEXT,
	body         TEXT NOT NULL,
	sentiment    TEXT,
	created_at   TIMESTAMPTZ,
	collected_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(source, message_id)
);

CREATE TABLE IF NOT EXISTS provider_cache (
	provider   TEXT NOT NULL,
	ticker     TEXT NOT NULL,
	profile    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (provider, ticker)
);

CREATE INDEX IF NOT EXISTS idx_stock_themes_theme ON stock_themes(theme_id);
CREATE INDEX IF NOT EXISTS idx_stock_themes_confidence ON stock_themes(confidence DESC);
CREATE INDEX IF NOT EXISTS idx_stocks_market_cap ON stocks(market_cap DESC);
CREATE INDEX IF NOT EXISTS idx_social_ticker_date ON social_messages(ticker, collected_at);
CREATE INDEX IF NOT EXISTS idx_provider_cache_expires ON provider_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveThemeResult(ctx context.Context, result *model.ThemeResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save")
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO stocks (ticker, name, sector, industry, sic_code, market_cap, exchange, patent_count, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (ticker) DO UPDATE SET
		   name=excluded.name, sector=excluded.sector, industry=excluded.industry,
		   sic_code=excluded.sic_code, market_cap=excluded.market_cap,
		   exchange=excluded.exchange, patent_count=excluded.patent_count,
		   updated_at=excluded.updated_at`,
		result.Ticker, result.Profile.Name, result.Profile.Sector,
		result.Profile.Industry, result.Profile.SICCode, result.Profile.MarketCap,
		result.Profile.Exchange, result.Profile.PatentCount, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert stock %s", result.Ticker)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM stock_themes WHERE ticker = $1`, result.Ticker); err != nil {
		return eris.Wrapf(err, "postgres: clear themes for %s", result.Ticker)
	}

	for _, theme := range result.Themes {
		var themeID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO themes (name, category) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET category=excluded.category
			 RETURNING id`,
			theme.Name, theme.CanonicalCategory).Scan(&themeID)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert theme %s", theme.Name)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO stock_themes (ticker, theme_id, confidence, source, evidence, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			result.Ticker, themeID, theme.Confidence, string(theme.Source), theme.Evidence, now,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert stock theme %s/%s", result.Ticker, theme.Name)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit save")
}

func (s *PostgresStore) GetStock(ctx context.Context, ticker string) (*Stock, error) {
	var stock Stock
	var sector, industry, sic, exchange *string
	var marketCap *float64
	err := s.pool.QueryRow(ctx,
		`SELECT ticker, name, sector, industry, sic_code, market_cap, exchange, patent_count, updated_at
		 FROM stocks WHERE ticker = $1`, strings.ToUpper(ticker),
	).Scan(&stock.Ticker, &stock.Name, &sector, &industry, &sic,
		&marketCap, &exchange, &stock.PatentCount, &stock.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get stock %s", ticker)
	}
	stock.Sector = deref(sector)
	stock.Industry = deref(industry)
	stock.SICCode = deref(sic)
	stock.Exchange = deref(exchange)
	if marketCap != nil {
		stock.MarketCap = *marketCap
	}
	return &stock, nil
}

func (s *PostgresStore) GetThemesForStock(ctx context.Context, ticker string, minConfidence float64) ([]StockTheme, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.name, COALESCE(t.category, ''), st.confidence, st.source, COALESCE(st.evidence, '')
		 FROM stock_themes st
		 JOIN themes t ON t.id = st.theme_id
		 WHERE st.ticker = $1 AND st.confidence >= $2
		 ORDER BY st.confidence DESC, t.name`,
		strings.ToUpper(ticker), minConfidence)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: themes for %s", ticker)
	}
	defer rows.Close()

	var themes []StockTheme
	for rows.Next() {
		var t StockTheme
		if err := rows.Scan(&t.Name, &t.Category, &t.Confidence, &t.Source, &t.Evidence); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stock theme")
		}
		themes = append(themes, t)
	}
	return themes, eris.Wrap(rows.Err(), "postgres: iterate stock themes")
}

func (s *PostgresStore) GetStocksForTheme(ctx context.Context, theme string, minConfidence float64) ([]ThemeStock, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.ticker, s.name, COALESCE(s.market_cap, 0), st.confidence, st.source
		 FROM stock_themes st
		 JOIN stocks s ON s.ticker = st.ticker
		 JOIN themes t ON t.id = st.theme_id
		 WHERE t.name = $1 AND st.confidence >= $2
		 ORDER BY st.confidence DESC, s.ticker`,
		theme, minConfidence)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: stocks for theme %s", theme)
	}
	defer rows.Close()

	var stocks []ThemeStock
	for rows.Next() {
		var t ThemeStock
		if err := rows.Scan(&t.Ticker, &t.Name, &t.MarketCap, &t.Confidence, &t.Source); err != nil {
			return nil, eris.Wrap(err, "postgres: scan theme stock")
		}
		stocks = append(stocks, t)
	}
	return stocks, eris.Wrap(rows.Err(), "postgres: iterate theme stocks")
}

func (s *PostgresStore) ThemeDistribution(ctx context.Context) ([]ThemeStat, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.name, COALESCE(t.category, ''), COUNT(*) AS stock_count, AVG(st.confidence)
		 FROM stock_themes st
		 JOIN themes t ON t.id = st.theme_id
		 GROUP BY t.name, t.category
		 ORDER BY stock_count DESC, t.name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: theme distribution")
	}
	defer rows.Close()

	var stats []ThemeStat
	for rows.Next() {
		var st ThemeStat
		if err := rows.Scan(&st.Name, &st.Category, &st.StockCount, &st.AvgConfidence); err != nil {
			return nil, eris.Wrap(err, "postgres: scan theme stat")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: iterate theme stats")
}

func (s *PostgresStore) AllTickers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT ticker FROM stocks ORDER BY ticker`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: all tickers")
	}
	defer rows.Close()
	return scanPgTickers(rows)
}

func (s *PostgresStore) TickersUpdatedSince(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ticker FROM stocks WHERE updated_at >= $1 ORDER BY ticker`, since.UTC())
	if err != nil {
		return nil, eris.Wrap(err, "postgres: tickers updated since")
	}
	defer rows.Close()
	return scanPgTickers(rows)
}

func scanPgTickers(rows pgx.Rows) ([]string, error) {
	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ticker")
		}
		tickers = append(tickers, t)
	}
	return tickers, eris.Wrap(rows.Err(), "postgres: iterate tickers")
}

func (s *PostgresStore) StoreSocialMessages(ctx context.Context, messages []model.SocialMessage) (int, error) {
	inserted := 0
	for _, msg := range messages {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO social_messages (ticker, source, message_id, body, sentiment, created_at, collected_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (source, message_id) DO NOTHING`,
			strings.ToUpper(msg.Ticker), msg.Source, msg.MessageID, msg.Body,
			nullString(msg.Sentiment), msg.CreatedAt, time.Now().UTC())
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: insert social message %s", msg.MessageID)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *PostgresStore) SocialText(ctx context.Context, ticker string, days int) (string, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := s.pool.Query(ctx,
		`SELECT body FROM social_messages
		 WHERE ticker = $1 AND collected_at >= $2
		   AND (sentiment = 'Bullish' OR sentiment IS NULL)
		 ORDER BY collected_at`,
		strings.ToUpper(ticker), cutoff)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: social text for %s", ticker)
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return "", eris.Wrap(err, "postgres: scan social body")
		}
		bodies = append(bodies, body)
	}
	return strings.Join(bodies, " "), eris.Wrap(rows.Err(), "postgres: iterate social bodies")
}

func (s *PostgresStore) GetCachedProfile(ctx context.Context, provider, ticker string) (*model.CompanyProfile, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT profile FROM provider_cache
		 WHERE provider = $1 AND ticker = $2 AND expires_at > $3`,
		provider, strings.ToUpper(ticker), time.Now().UTC(),
	).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: cached profile %s/%s", provider, ticker)
	}

	var profile model.CompanyProfile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached profile")
	}
	return &profile, nil
}

func (s *PostgresStore) SetCachedProfile(ctx context.Context, provider, ticker string, profile *model.CompanyProfile, ttl time.Duration) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal cached profile")
	}
	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO provider_cache (provider, ticker, profile, cached_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (provider, ticker) DO UPDATE SET
		   profile=excluded.profile, cached_at=excluded.cached_at, expires_at=excluded.expires_at`,
		provider, strings.ToUpper(ticker), payload, now, now.Add(ttl))
	return eris.Wrapf(err, "postgres: cache profile %s/%s", provider, ticker)
}

func (s *PostgresStore) DeleteExpiredProfiles(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM provider_cache WHERE expires_at <= $1`, time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired profiles")
	}
	return int(tag.RowsAffected()), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
