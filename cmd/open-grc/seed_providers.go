package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/open-sspm/open-grc/internal/config"
	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/manifest"
	"github.com/spf13/cobra"
)

var seedProvidersCmd = &cobra.Command{
	Use:   "seed-providers",
	Short: "Sync integration providers from the built-in manifests.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeedProviders(cmd.Context())
	},
}

type providerSeeder interface {
	UpsertIntegrationProvider(ctx context.Context, arg gen.UpsertIntegrationProviderParams) (gen.IntegrationProvider, error)
	DeactivateIntegrationProvidersNotIn(ctx context.Context, slugs []string) (int64, error)
}

func runSeedProviders(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return usageError(err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	upserted, deactivated, err := seedProviders(ctx, a.q.WithTx(tx), a.manifests.All())
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	slog.Info("seeded integration providers", "upserted", upserted, "deactivated", deactivated)
	return nil
}

// seedProviders upserts one provider row per manifest and deactivates rows
// whose slug no longer has a manifest.
func seedProviders(ctx context.Context, q providerSeeder, manifests []manifest.Manifest) (int, int64, error) {
	slugs := make([]string, 0, len(manifests))
	for _, m := range manifests {
		capabilities := m.Capabilities
		if capabilities == nil {
			capabilities = []string{}
		}
		if _, err := q.UpsertIntegrationProvider(ctx, gen.UpsertIntegrationProviderParams{
			ID:           uuid.NewString(),
			Slug:         m.Slug,
			Name:         m.Name,
			Category:     m.Category,
			AuthType:     string(m.Auth.Type),
			Capabilities: capabilities,
		}); err != nil {
			return 0, 0, fmt.Errorf("upsert provider %s: %w", m.Slug, err)
		}
		slugs = append(slugs, m.Slug)
	}

	deactivated, err := q.DeactivateIntegrationProvidersNotIn(ctx, slugs)
	if err != nil {
		return 0, 0, fmt.Errorf("deactivate removed providers: %w", err)
	}
	return len(slugs), deactivated, nil
}
