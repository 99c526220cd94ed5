package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/tokensale"
	"github.com/xraph/tokensale/account"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/group"
	"github.com/xraph/tokensale/sale"
	salestore "github.com/xraph/tokensale/store"
)

// Collection name constants.
const (
	colState        = "tokensale_state"
	colEntitlements = "tokensale_entitlements"
	colCommitments  = "tokensale_group_commitments"
	colEvents       = "tokensale_events"
)

// compile-time interface check
var _ salestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all sale collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("tokensale/mongo: migrate %s indexes: %w", col, err)
		}
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

// Commit writes the batch component documents first and the state document last.
func (s *Store) Commit(ctx context.Context, b *salestore.Batch) error {
	return salestore.CommitSequential(ctx, s, b)
}

// ==================== Sale state ====================

func (s *Store) GetState(ctx context.Context) (*sale.State, error) {
	var m stateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tokensale.ErrNotFound
		}
		return nil, fmt.Errorf("tokensale/mongo: get state: %w", err)
	}
	return fromStateModel(&m)
}

func (s *Store) SaveState(ctx context.Context, st *sale.State) error {
	m := toStateModel(st)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"output_asset":      m.OutputAsset,
				"input_asset":       m.InputAsset,
				"sale_start":        m.SaleStart,
				"sale_duration_ns":  m.SaleDurationNS,
				"token_out_price":   m.TokenOutPrice,
				"sale_recipient":    m.SaleRecipient,
				"input_limit":       m.InputLimit,
				"whitelist":         m.Whitelist,
				"total_in":          m.TotalIn,
				"total_out_bought":  m.TotalOutBought,
				"total_out_claimed": m.TotalOutClaimed,
				"initialized":       m.Initialized,
				"finalized":         m.Finalized,
				"event_seq":         m.EventSeq,
				"updated_at":        m.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": m.CreatedAt},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tokensale/mongo: save state: %w", err)
	}
	return nil
}

// ==================== Entitlements ====================

func (s *Store) GetEntitlement(ctx context.Context, acct common.Address) (*account.Entitlement, error) {
	var m entitlementModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addrKey(acct)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tokensale.ErrNotFound
		}
		return nil, fmt.Errorf("tokensale/mongo: get entitlement: %w", err)
	}
	return fromEntitlementModel(&m)
}

func (s *Store) PutEntitlement(ctx context.Context, e *account.Entitlement) error {
	m := toEntitlementModel(e)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Account}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"bought_amount": m.BoughtAmount,
				"has_claimed":   m.HasClaimed,
				"voted_group":   m.VotedGroup,
				"updated_at":    m.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": m.CreatedAt},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tokensale/mongo: put entitlement: %w", err)
	}
	return nil
}

func (s *Store) ListEntitlements(ctx context.Context, opts account.ListOpts) ([]*account.Entitlement, error) {
	var models []entitlementModel

	filter := bson.M{}
	switch {
	case opts.ClaimedOnly:
		filter["has_claimed"] = true
	case opts.UnclaimedOnly:
		filter["has_claimed"] = false
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tokensale/mongo: list entitlements: %w", err)
	}

	result := make([]*account.Entitlement, len(models))
	for i := range models {
		e, err := fromEntitlementModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// ==================== Group commitments ====================

func (s *Store) GetCommitment(ctx context.Context, groupID uint8) (*group.Commitment, error) {
	var m commitmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int(groupID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tokensale.ErrNotFound
		}
		return nil, fmt.Errorf("tokensale/mongo: get commitment: %w", err)
	}
	return fromCommitmentModel(&m)
}

func (s *Store) PutCommitment(ctx context.Context, c *group.Commitment) error {
	m := toCommitmentModel(c)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.GroupID}).
		SetUpdate(bson.M{"$set": bson.M{"amount": m.Amount}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("tokensale/mongo: put commitment: %w", err)
	}
	return nil
}

func (s *Store) ListCommitments(ctx context.Context) ([]*group.Commitment, error) {
	var models []commitmentModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("tokensale/mongo: list commitments: %w", err)
	}

	result := make([]*group.Commitment, len(models))
	for i := range models {
		c, err := fromCommitmentModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Event journal ====================

func (s *Store) AppendEvents(ctx context.Context, records []*event.Record) error {
	for _, r := range records {
		_, err := s.mdb.NewInsert(toEventModel(r)).Exec(ctx)
		if err != nil {
			// Already journaled by an earlier attempt.
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("tokensale/mongo: append event: %w", err)
		}
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, opts event.QueryOpts) ([]*event.Record, error) {
	var models []eventModel

	filter := bson.M{"sequence": bson.M{"$gt": int64(opts.AfterSeq)}} //nolint:gosec // sequence never reaches 2^63
	if opts.Type != "" {
		filter["type"] = string(opts.Type)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "sequence", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("tokensale/mongo: list events: %w", err)
	}

	result := make([]*event.Record, len(models))
	for i := range models {
		r, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all sale collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colState: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colEntitlements: {
			{Keys: bson.D{{Key: "has_claimed", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colCommitments: nil,
		colEvents: {
			{
				Keys:    bson.D{{Key: "sequence", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "sequence", Value: 1}}},
		},
	}
}
