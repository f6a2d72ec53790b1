package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/kalshigym/internal/database"
)

// Store persists the dashboard state. Writes are incremental so their cost
// does not grow with the stored trade log or value history.
type Store interface {
	Load(ctx context.Context) (*State, error)
	Append(ctx context.Context, u Update) error
	Prune(ctx context.Context, keep int) error
}

// SQLiteStore keeps the state in the dashboard sqlite database
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore creates a store; the database must already be migrated
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load reads the stored state, returning a fresh state when nothing is stored yet
func (s *SQLiteStore) Load(ctx context.Context) (*State, error) {
	conn := s.db.Conn()
	state := NewState()

	err := conn.QueryRowContext(ctx,
		`SELECT balance, pnl, total_trades, win_rate FROM portfolio WHERE id = 1`).
		Scan(&state.Portfolio.Balance, &state.Portfolio.PnL, &state.Portfolio.TotalTrades, &state.Portfolio.WinRate)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	if state.Trades, err = loadTrades(ctx, conn); err != nil {
		return nil, err
	}
	if state.PortfolioHistory, err = loadHistory(ctx, conn); err != nil {
		return nil, err
	}
	if state.Markets, err = loadMarkets(ctx, conn); err != nil {
		return nil, err
	}

	var d Decision
	var ts string
	err = conn.QueryRowContext(ctx, `SELECT action, size, timestamp FROM latest_decision WHERE id = 1`).
		Scan(&d.Action, &d.Size, &ts)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to load latest decision: %w", err)
	default:
		d.Timestamp = parseTime(ts)
		state.LatestDecision = &d
	}

	return state, nil
}

func loadTrades(ctx context.Context, conn *sql.DB) ([]Trade, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT id, timestamp, ticker, side, action, size, price, cost FROM trades ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []Trade{}
	for rows.Next() {
		var t Trade
		var ts string
		if err := rows.Scan(&t.ID, &ts, &t.Ticker, &t.Side, &t.Action, &t.Size, &t.Price, &t.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Timestamp = parseTime(ts)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func loadHistory(ctx context.Context, conn *sql.DB) ([]PortfolioPoint, error) {
	rows, err := conn.QueryContext(ctx, `SELECT step, value FROM portfolio_history ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio history: %w", err)
	}
	defer rows.Close()

	history := []PortfolioPoint{}
	for rows.Next() {
		var p PortfolioPoint
		if err := rows.Scan(&p.Step, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio point: %w", err)
		}
		history = append(history, p)
	}
	return history, rows.Err()
}

func loadMarkets(ctx context.Context, conn *sql.DB) ([]Market, error) {
	rows, err := conn.QueryContext(ctx,
		`SELECT ticker, strike, yes_bid, yes_ask, close_time FROM markets ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query markets: %w", err)
	}
	defer rows.Close()

	markets := []Market{}
	for rows.Next() {
		var m Market
		var closeTime string
		if err := rows.Scan(&m.Ticker, &m.Strike, &m.YesBid, &m.YesAsk, &closeTime); err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		m.CloseTime = parseTime(closeTime)
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

// Append persists one resolved update. New trades and history points are
// inserted; portfolio, latest decision and markets are overwritten in place.
func (s *SQLiteStore) Append(ctx context.Context, u Update) error {
	return database.WithTransaction(ctx, s.db.Conn(), func(tx *sql.Tx) error {
		if p := u.Portfolio; p != nil {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO portfolio (id, balance, pnl, total_trades, win_rate, updated_at)
				VALUES (1, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					balance = excluded.balance,
					pnl = excluded.pnl,
					total_trades = excluded.total_trades,
					win_rate = excluded.win_rate,
					updated_at = excluded.updated_at`,
				p.Balance, p.PnL, p.TotalTrades, p.WinRate, time.Now().Unix())
			if err != nil {
				return fmt.Errorf("failed to save portfolio: %w", err)
			}
		}

		if t := u.Trade; t != nil {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO trades (id, timestamp, ticker, side, action, size, price, cost)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, formatTime(t.Timestamp), t.Ticker, t.Side, t.Action, t.Size, t.Price, t.Cost)
			if err != nil {
				return fmt.Errorf("failed to save trade %s: %w", t.ID, err)
			}
		}

		if pt := u.PortfolioValue; pt != nil {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO portfolio_history (step, value) VALUES (?, ?)`, pt.Step, pt.Value); err != nil {
				return fmt.Errorf("failed to save portfolio point: %w", err)
			}
		}

		if d := u.Decision; d != nil {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO latest_decision (id, action, size, timestamp)
				VALUES (1, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					action = excluded.action,
					size = excluded.size,
					timestamp = excluded.timestamp`,
				d.Action, d.Size, formatTime(d.Timestamp))
			if err != nil {
				return fmt.Errorf("failed to save latest decision: %w", err)
			}
		}

		if u.Markets != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM markets`); err != nil {
				return fmt.Errorf("failed to clear markets: %w", err)
			}
			for i, m := range u.Markets {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO markets (position, ticker, strike, yes_bid, yes_ask, close_time)
					VALUES (?, ?, ?, ?, ?, ?)`,
					i, m.Ticker, m.Strike, m.YesBid, m.YesAsk, formatTime(m.CloseTime))
				if err != nil {
					return fmt.Errorf("failed to save market %s: %w", m.Ticker, err)
				}
			}
		}

		return nil
	})
}

// Prune deletes all but the newest keep value-history points and trades
func (s *SQLiteStore) Prune(ctx context.Context, keep int) error {
	return database.WithTransaction(ctx, s.db.Conn(), func(tx *sql.Tx) error {
		for _, table := range []string{"portfolio_history", "trades"} {
			_, err := tx.ExecContext(ctx,
				"DELETE FROM "+table+" WHERE seq NOT IN (SELECT seq FROM "+table+" ORDER BY seq DESC LIMIT ?)", keep)
			if err != nil {
				return fmt.Errorf("failed to prune %s: %w", table, err)
			}
		}
		return nil
	})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
