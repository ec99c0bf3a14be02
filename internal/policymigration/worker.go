// Package policymigration backfills version history for policies created
// before versioning existed.
package policymigration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/metrics"
)

const (
	DefaultPolicyBatchSize = 50
	DefaultTxTimeout       = 30 * time.Second

	initialVersion   = 1
	initialChangelog = "Initial version"
)

// TxStore is the query surface used inside a migration transaction.
type TxStore interface {
	ListPoliciesWithoutVersion(ctx context.Context, arg gen.ListPoliciesWithoutVersionParams) ([]gen.Policy, error)
	CreatePolicyVersion(ctx context.Context, arg gen.CreatePolicyVersionParams) (gen.PolicyVersion, error)
	SetPolicyCurrentVersion(ctx context.Context, arg gen.SetPolicyCurrentVersionParams) (int64, error)
}

// Transactor runs fn inside a transaction, committing when fn returns nil.
type Transactor interface {
	InTx(ctx context.Context, fn func(TxStore) error) error
}

// PoolTransactor opens transactions on a pgx pool.
type PoolTransactor struct {
	Pool *pgxpool.Pool
	Q    *gen.Queries
}

func (t PoolTransactor) InTx(ctx context.Context, fn func(TxStore) error) error {
	tx, err := t.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(t.Q.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type Worker struct {
	tx        Transactor
	batchSize int
	txTimeout time.Duration
	logger    *slog.Logger
	newID     func() string
}

func NewWorker(tx Transactor, batchSize int, txTimeout time.Duration, logger *slog.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = DefaultPolicyBatchSize
	}
	if txTimeout <= 0 {
		txTimeout = DefaultTxTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		tx:        tx,
		batchSize: batchSize,
		txTimeout: txTimeout,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// MigrateOrganization creates version 1 for every policy in the
// organization that has no current version and returns how many it created.
func (w *Worker) MigrateOrganization(ctx context.Context, organizationID string) (int, error) {
	total := 0
	for {
		n, err := w.migrateBatch(ctx, organizationID)
		total += n
		if err != nil {
			return total, err
		}
		if n < w.batchSize {
			break
		}
	}
	if total > 0 {
		w.logger.Info("policy versions backfilled", "organization_id", organizationID, "count", total)
	}
	return total, nil
}

func (w *Worker) migrateBatch(ctx context.Context, organizationID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, w.txTimeout)
	defer cancel()

	migrated := 0
	err := w.tx.InTx(ctx, func(q TxStore) error {
		policies, err := q.ListPoliciesWithoutVersion(ctx, gen.ListPoliciesWithoutVersionParams{
			OrganizationID: organizationID,
			BatchSize:      int32(w.batchSize),
		})
		if err != nil {
			return fmt.Errorf("list policies without version: %w", err)
		}

		for _, p := range policies {
			content := p.Content
			if len(content) == 0 {
				content = []byte("[]")
			}
			version, err := q.CreatePolicyVersion(ctx, gen.CreatePolicyVersionParams{
				ID:             w.newID(),
				PolicyID:       p.ID,
				OrganizationID: p.OrganizationID,
				Version:        initialVersion,
				Content:        content,
				Changelog:      initialChangelog,
			})
			if err != nil {
				return fmt.Errorf("create version for policy %s: %w", p.ID, err)
			}
			if _, err := q.SetPolicyCurrentVersion(ctx, gen.SetPolicyCurrentVersionParams{
				CurrentVersionID: version.ID,
				ID:               p.ID,
			}); err != nil {
				return fmt.Errorf("set current version for policy %s: %w", p.ID, err)
			}
		}
		migrated = len(policies)
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.PolicyVersionsCreatedTotal.Add(float64(migrated))
	return migrated, nil
}
