package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/tokensale"
	"github.com/xraph/tokensale/account"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/group"
	"github.com/xraph/tokensale/sale"
	salestore "github.com/xraph/tokensale/store"
)

// compile-time interface check
var _ salestore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("tokensale/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tokensale/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Commit writes the batch component tables first and the state row last.
func (s *Store) Commit(ctx context.Context, b *salestore.Batch) error {
	return salestore.CommitSequential(ctx, s, b)
}

// ==================== Sale state ====================

func (s *Store) GetState(ctx context.Context) (*sale.State, error) {
	m := new(stateModel)
	err := s.sdb.NewSelect(m).
		OrderExpr("created_at ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tokensale.ErrNotFound
		}
		return nil, fmt.Errorf("tokensale/sqlite: get state: %w", err)
	}
	return fromStateModel(m)
}

func (s *Store) SaveState(ctx context.Context, st *sale.State) error {
	m := toStateModel(st)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("output_asset = EXCLUDED.output_asset").
		Set("input_asset = EXCLUDED.input_asset").
		Set("sale_start = EXCLUDED.sale_start").
		Set("sale_duration_ns = EXCLUDED.sale_duration_ns").
		Set("token_out_price = EXCLUDED.token_out_price").
		Set("sale_recipient = EXCLUDED.sale_recipient").
		Set("input_limit = EXCLUDED.input_limit").
		Set("whitelist = EXCLUDED.whitelist").
		Set("total_in = EXCLUDED.total_in").
		Set("total_out_bought = EXCLUDED.total_out_bought").
		Set("total_out_claimed = EXCLUDED.total_out_claimed").
		Set("initialized = EXCLUDED.initialized").
		Set("finalized = EXCLUDED.finalized").
		Set("event_seq = EXCLUDED.event_seq").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tokensale/sqlite: save state: %w", err)
	}
	return nil
}

// ==================== Entitlements ====================

func (s *Store) GetEntitlement(ctx context.Context, acct common.Address) (*account.Entitlement, error) {
	m := new(entitlementModel)
	err := s.sdb.NewSelect(m).Where("account = ?", addrKey(acct)).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tokensale.ErrNotFound
		}
		return nil, fmt.Errorf("tokensale/sqlite: get entitlement: %w", err)
	}
	return fromEntitlementModel(m)
}

func (s *Store) PutEntitlement(ctx context.Context, e *account.Entitlement) error {
	m := toEntitlementModel(e)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(account) DO UPDATE").
		Set("bought_amount = EXCLUDED.bought_amount").
		Set("has_claimed = EXCLUDED.has_claimed").
		Set("voted_group = EXCLUDED.voted_group").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tokensale/sqlite: put entitlement: %w", err)
	}
	return nil
}

func (s *Store) ListEntitlements(ctx context.Context, opts account.ListOpts) ([]*account.Entitlement, error) {
	var models []entitlementModel
	q := s.sdb.NewSelect(&models)

	switch {
	case opts.ClaimedOnly:
		q = q.Where("has_claimed = ?", true)
	case opts.UnclaimedOnly:
		q = q.Where("has_claimed = ?", false)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("account ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tokensale/sqlite: list entitlements: %w", err)
	}

	result := make([]*account.Entitlement, 0, len(models))
	for i := range models {
		e, err := fromEntitlementModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

// ==================== Group commitments ====================

func (s *Store) GetCommitment(ctx context.Context, groupID uint8) (*group.Commitment, error) {
	m := new(commitmentModel)
	err := s.sdb.NewSelect(m).Where("group_id = ?", int(groupID)).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tokensale.ErrNotFound
		}
		return nil, fmt.Errorf("tokensale/sqlite: get commitment: %w", err)
	}
	return fromCommitmentModel(m)
}

func (s *Store) PutCommitment(ctx context.Context, c *group.Commitment) error {
	_, err := s.sdb.NewInsert(toCommitmentModel(c)).
		OnConflict("(group_id) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tokensale/sqlite: put commitment: %w", err)
	}
	return nil
}

func (s *Store) ListCommitments(ctx context.Context) ([]*group.Commitment, error) {
	var models []commitmentModel
	if err := s.sdb.NewSelect(&models).OrderExpr("group_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("tokensale/sqlite: list commitments: %w", err)
	}

	result := make([]*group.Commitment, 0, len(models))
	for i := range models {
		c, err := fromCommitmentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

// ==================== Event journal ====================

func (s *Store) AppendEvents(ctx context.Context, records []*event.Record) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]eventModel, len(records))
	for i, r := range records {
		models[i] = *toEventModel(r)
	}
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tokensale/sqlite: append events: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Record, error) {
	var models []eventModel
	q := s.sdb.NewSelect(&models).Where("sequence > ?", int64(opts.AfterSeq)) //nolint:gosec // sequence never reaches 2^63

	if opts.Type != "" {
		q = q.Where("type = ?", string(opts.Type))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("sequence ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tokensale/sqlite: list events: %w", err)
	}

	result := make([]*event.Record, 0, len(models))
	for i := range models {
		r, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
