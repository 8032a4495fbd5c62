package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mselser95/updown-arb/internal/arbitrage"
	"github.com/mselser95/updown-arb/internal/execution"
)

// PostgresStorage implements Storage using PostgreSQL. Decimal values are
// stored as their exact string form in NUMERIC columns.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage opens and pings the database.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{db: db, logger: cfg.Logger}, nil
}

// newPostgresStorageWithDB wires an existing handle, used by sqlmock tests.
func newPostgresStorageWithDB(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

// StoreOpportunity inserts one accepted opportunity.
func (p *PostgresStorage) StoreOpportunity(ctx context.Context, opp *arbitrage.Opportunity) error {
	query := `
		INSERT INTO opportunities (
			id, market_id, market_slug, detected_at,
			up_price, down_price, total_cost, profit_per_share,
			order_size, total_investment, expected_profit
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		opp.ID,
		opp.Market.ID,
		opp.Market.Slug,
		opp.DetectedAt,
		opp.UpPrice.String(),
		opp.DownPrice.String(),
		opp.TotalCost.String(),
		opp.ProfitPerShare.String(),
		opp.OrderSize.String(),
		opp.TotalInvestment.String(),
		opp.ExpectedProfit.String(),
	)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	p.logger.Debug("opportunity-stored",
		zap.String("opportunity-id", opp.ID),
		zap.String("market-slug", opp.Market.Slug))
	return nil
}

// StoreResult inserts one execution result.
func (p *PostgresStorage) StoreResult(ctx context.Context, result *execution.Result) error {
	var unwindAttempted, unwindSucceeded bool
	var unwindPrice sql.NullString
	if result.Unwind != nil {
		unwindAttempted = result.Unwind.Attempted
		unwindSucceeded = result.Unwind.Succeeded
		if !result.Unwind.Price.IsZero() {
			unwindPrice = sql.NullString{String: result.Unwind.Price.String(), Valid: true}
		}
	}

	query := `
		INSERT INTO execution_results (
			opportunity_id, market_slug, outcome, dry_run, executed_at, duration_ms,
			up_order_id, up_status, up_filled_size,
			down_order_id, down_status, down_filled_size,
			unwind_attempted, unwind_succeeded, unwind_price
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		result.OpportunityID,
		result.MarketSlug,
		string(result.Outcome),
		result.DryRun,
		result.ExecutedAt,
		result.Duration.Milliseconds(),
		result.UpLeg.OrderID,
		string(result.UpLeg.Status),
		result.UpLeg.FilledSize.String(),
		result.DownLeg.OrderID,
		string(result.DownLeg.Status),
		result.DownLeg.FilledSize.String(),
		unwindAttempted,
		unwindSucceeded,
		unwindPrice,
	)
	if err != nil {
		return fmt.Errorf("insert execution result: %w", err)
	}

	p.logger.Debug("result-stored",
		zap.String("opportunity-id", result.OpportunityID),
		zap.String("outcome", string(result.Outcome)))
	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
