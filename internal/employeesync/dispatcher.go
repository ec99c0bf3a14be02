// Package employeesync fans out the daily employee sync to every
// organization with a configured sync provider.
package employeesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/manifest"
	"github.com/open-sspm/open-grc/internal/metrics"
)

type Store interface {
	ListOrganizationsWithEmployeeSync(ctx context.Context) ([]gen.ListOrganizationsWithEmployeeSyncRow, error)
	GetActiveConnectionByProviderSlug(ctx context.Context, arg gen.GetActiveConnectionByProviderSlugParams) (gen.GetActiveConnectionByProviderSlugRow, error)
}

// Syncer triggers one organization's employee sync.
type Syncer interface {
	SyncEmployees(ctx context.Context, provider, organizationID, connectionID string) (SyncResult, error)
}

type Summary struct {
	Organizations int
	Synced        int
	Skipped       int
	Failed        int
	Imported      int
	Reactivated   int
	Deactivated   int
}

type Dispatcher struct {
	store     Store
	manifests manifest.Lookup
	syncer    Syncer
	logger    *slog.Logger
}

func NewDispatcher(store Store, manifests manifest.Lookup, syncer Syncer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: store, manifests: manifests, syncer: syncer, logger: logger}
}

// Dispatch syncs every organization sequentially. A failed organization is
// recorded and the rest still run; the returned error joins all failures.
func (d *Dispatcher) Dispatch(ctx context.Context) (Summary, error) {
	orgs, err := d.store.ListOrganizationsWithEmployeeSync(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list organizations with employee sync: %w", err)
	}

	summary := Summary{Organizations: len(orgs)}
	var errs []error
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		provider := org.EmployeeSyncProvider
		logger := d.logger.With("organization_id", org.ID, "provider", provider)

		m, ok := d.manifests.Lookup(provider)
		if !ok || !m.HasCapability(manifest.CapabilityEmployeeSync) {
			logger.Warn("employee sync provider not supported")
			summary.Skipped++
			metrics.EmployeeSyncDispatchesTotal.WithLabelValues(provider, "unsupported").Inc()
			continue
		}

		conn, err := d.store.GetActiveConnectionByProviderSlug(ctx, gen.GetActiveConnectionByProviderSlugParams{
			OrganizationID: org.ID,
			ProviderSlug:   m.Slug,
		})
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("no active connection for employee sync provider")
			summary.Skipped++
			metrics.EmployeeSyncDispatchesTotal.WithLabelValues(provider, "no_connection").Inc()
			continue
		}
		if err != nil {
			logger.Error("load employee sync connection failed", "err", err)
			summary.Failed++
			errs = append(errs, fmt.Errorf("organization %s: load connection: %w", org.ID, err))
			metrics.EmployeeSyncDispatchesTotal.WithLabelValues(provider, "error").Inc()
			continue
		}

		res, err := d.syncer.SyncEmployees(ctx, m.Slug, org.ID, conn.ID)
		if err != nil {
			logger.Error("employee sync failed", "connection_id", conn.ID, "err", err)
			summary.Failed++
			errs = append(errs, fmt.Errorf("organization %s: %w", org.ID, err))
			metrics.EmployeeSyncDispatchesTotal.WithLabelValues(provider, "error").Inc()
			continue
		}

		summary.Synced++
		summary.Imported += res.Imported
		summary.Reactivated += res.Reactivated
		summary.Deactivated += res.Deactivated
		metrics.EmployeeSyncDispatchesTotal.WithLabelValues(provider, "success").Inc()
		logger.Info("employee sync completed",
			"connection_id", conn.ID,
			"success", res.Success,
			"imported", res.Imported,
			"reactivated", res.Reactivated,
			"deactivated", res.Deactivated,
			"skipped", res.Skipped,
			"errors", int(res.Errors),
		)
	}

	d.logger.Info("employee sync dispatch finished",
		"organizations", summary.Organizations,
		"synced", summary.Synced,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, errors.Join(errs...)
}
