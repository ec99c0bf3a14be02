package policymigration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/metrics"
)

const DefaultOrgBatchSize = 20

type OrganizationStore interface {
	ListOrganizationIDsAfter(ctx context.Context, arg gen.ListOrganizationIDsAfterParams) ([]string, error)
}

// OrganizationMigrator migrates a single organization.
type OrganizationMigrator interface {
	MigrateOrganization(ctx context.Context, organizationID string) (int, error)
}

type Summary struct {
	Organizations       int
	PoliciesMigrated    int
	FailedOrganizations []string
}

type Driver struct {
	store     OrganizationStore
	worker    OrganizationMigrator
	batchSize int
	logger    *slog.Logger
}

func NewDriver(store OrganizationStore, worker OrganizationMigrator, batchSize int, logger *slog.Logger) *Driver {
	if batchSize <= 0 {
		batchSize = DefaultOrgBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{store: store, worker: worker, batchSize: batchSize, logger: logger}
}

// Run pages through every organization by id and migrates each one in turn.
// Failed organizations are recorded in the summary and joined into the
// returned error; listing failures abort the run.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	var (
		summary Summary
		errs    []error
		after   string
	)
	for {
		ids, err := d.store.ListOrganizationIDsAfter(ctx, gen.ListOrganizationIDsAfterParams{
			AfterID:   after,
			BatchSize: int32(d.batchSize),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("list organizations after %q: %w", after, err))
			return summary, errors.Join(errs...)
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				errs = append(errs, err)
				return summary, errors.Join(errs...)
			}
			summary.Organizations++
			n, err := d.worker.MigrateOrganization(ctx, id)
			summary.PoliciesMigrated += n
			if err != nil {
				d.logger.Error("policy migration failed", "organization_id", id, "err", err)
				metrics.PolicyMigrationFailuresTotal.Inc()
				summary.FailedOrganizations = append(summary.FailedOrganizations, id)
				errs = append(errs, fmt.Errorf("organization %s: %w", id, err))
			}
		}

		if len(ids) < d.batchSize {
			break
		}
		after = ids[len(ids)-1]
	}

	d.logger.Info("policy migration finished",
		"organizations", summary.Organizations,
		"policies_migrated", summary.PoliciesMigrated,
		"failed", len(summary.FailedOrganizations),
	)
	return summary, errors.Join(errs...)
}
