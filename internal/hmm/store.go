package hmm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/optioneer/internal/database"
	"github.com/aristath/optioneer/internal/domain"
)

// ModelStore persists trained model versions. Exactly one version per
// symbol is active at a time; Activate swaps atomically.
type ModelStore interface {
	Save(ctx context.Context, m *Model) error
	Activate(ctx context.Context, id string) error
	Active(ctx context.Context, symbol string) (*Model, error)
	Get(ctx context.Context, id string) (*Model, error)
}

// SQLiteStore stores models as msgpack parameter blobs with the training
// diagnostics broken out into queryable columns.
type SQLiteStore struct {
	db  *database.DB
	log zerolog.Logger
}

// NewSQLiteStore creates a store over an already-migrated models database.
func NewSQLiteStore(db *database.DB, log zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:  db,
		log: log.With().Str("component", "model_store").Logger(),
	}
}

// Save assigns the model an ID and the next version number for its
// symbol, then inserts it inactive. Call Activate to make it live.
func (s *SQLiteStore) Save(ctx context.Context, m *Model) error {
	if m.Symbol == "" {
		return fmt.Errorf("model symbol is required")
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	return database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		var maxVersion sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT MAX(version) FROM hmm_models WHERE symbol = ?`, m.Symbol,
		).Scan(&maxVersion)
		if err != nil {
			return fmt.Errorf("failed to read latest version: %w", err)
		}
		m.Version = int(maxVersion.Int64) + 1

		blob, err := msgpack.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to encode model parameters: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO hmm_models
				(id, symbol, version, active, params, log_likelihood, aic, bic, training_rows, trained_at)
			VALUES (?, ?, ?, 0, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Symbol, m.Version, blob,
			m.Diagnostics.LogLikelihood, m.Diagnostics.AIC, m.Diagnostics.BIC,
			m.Diagnostics.TrainingRows, m.Diagnostics.TrainedAt.Format("2006-01-02T15:04:05Z"),
		)
		if err != nil {
			return fmt.Errorf("failed to insert model: %w", err)
		}

		s.log.Info().
			Str("symbol", m.Symbol).
			Int("version", m.Version).
			Int("rows", m.Diagnostics.TrainingRows).
			Msg("Model version saved")
		return nil
	})
}

// Activate makes the given version the single active model for its symbol.
func (s *SQLiteStore) Activate(ctx context.Context, id string) error {
	return database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		var symbol string
		err := tx.QueryRowContext(ctx,
			`SELECT symbol FROM hmm_models WHERE id = ?`, id,
		).Scan(&symbol)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("model %s not found", id)
		}
		if err != nil {
			return fmt.Errorf("failed to look up model: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE hmm_models SET active = 0 WHERE symbol = ?`, symbol,
		); err != nil {
			return fmt.Errorf("failed to deactivate previous versions: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE hmm_models SET active = 1 WHERE id = ?`, id,
		); err != nil {
			return fmt.Errorf("failed to activate model: %w", err)
		}

		s.log.Info().Str("model_id", id).Str("symbol", symbol).Msg("Model activated")
		return nil
	})
}

// Active loads the active model for a symbol. Returns ErrModelUnavailable
// when no version is active.
func (s *SQLiteStore) Active(ctx context.Context, symbol string) (*Model, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT params FROM hmm_models WHERE symbol = ? AND active = 1`, symbol)
	return scanModel(row)
}

// Get loads a model version by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Model, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT params FROM hmm_models WHERE id = ?`, id)
	return scanModel(row)
}

func scanModel(row *sql.Row) (*Model, error) {
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrModelUnavailable
		}
		return nil, fmt.Errorf("failed to scan model row: %w", err)
	}

	var m Model
	if err := msgpack.Unmarshal(blob, &m); err != nil {
		return nil, fmt.Errorf("failed to decode model parameters: %w", err)
	}
	return &m, nil
}
