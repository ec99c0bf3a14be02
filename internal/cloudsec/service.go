package cloudsec

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/manifest"
	"golang.org/x/sync/errgroup"
)

// Store is the subset of queries the service reads from.
type Store interface {
	ListActiveConnectionsByCategory(ctx context.Context, arg gen.ListActiveConnectionsByCategoryParams) ([]gen.ListActiveConnectionsByCategoryRow, error)
	ListIntegrationsByOrganization(ctx context.Context, organizationID string) ([]gen.Integration, error)
	ListLatestCheckRunsByOrganization(ctx context.Context, organizationID string) ([]gen.ListLatestCheckRunsByOrganizationRow, error)
	ListCheckResultsByRunIDs(ctx context.Context, checkRunIds []string) ([]gen.IntegrationCheckResult, error)
	ListConnectionProviderSlugs(ctx context.Context, connectionIds []string) ([]gen.ListConnectionProviderSlugsRow, error)
	ListIntegrationResultsByIntegrationIDs(ctx context.Context, integrationIds []string) ([]gen.IntegrationResult, error)
}

type Service struct {
	store     Store
	manifests manifest.Lookup
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(store Store, manifests manifest.Lookup) *Service {
	return &Service{
		store:     store,
		manifests: manifests,
		now:       time.Now,
		logger:    slog.Default(),
	}
}

// WithLogger returns a copy of the service that logs to logger.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger == nil {
		return s
	}
	clone := *s
	clone.logger = logger
	return &clone
}

// GetProviders lists active platform connections followed by legacy
// integrations whose manifest category is Cloud. The same provider configured
// under both schemas is returned twice.
func (s *Service) GetProviders(ctx context.Context, organizationID string) ([]CloudProvider, error) {
	var (
		connections  []gen.ListActiveConnectionsByCategoryRow
		integrations []gen.Integration
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.store.ListActiveConnectionsByCategory(gctx, gen.ListActiveConnectionsByCategoryParams{
			OrganizationID: organizationID,
			Category:       manifest.CategoryCloud,
		})
		if err != nil {
			return fmt.Errorf("list cloud connections: %w", err)
		}
		connections = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.store.ListIntegrationsByOrganization(gctx, organizationID)
		if err != nil {
			return fmt.Errorf("list legacy integrations: %w", err)
		}
		integrations = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sources := make([]providerSource, 0, len(connections)+len(integrations))
	for _, row := range connections {
		sources = append(sources, platformSource{row: row})
	}
	for _, row := range s.cloudIntegrations(integrations) {
		sources = append(sources, legacySource{row: row})
	}

	now := s.now().UTC()
	out := make([]CloudProvider, 0, len(sources))
	for _, src := range sources {
		m, _ := s.manifests.Lookup(sourceSlug(src))
		out = append(out, src.provider(m, now))
	}
	return out, nil
}

// GetFindings returns the latest findings from both schemas sorted by
// completion time, newest first. Findings without a completion time sort last.
func (s *Service) GetFindings(ctx context.Context, organizationID string) ([]CloudFinding, error) {
	platform, err := s.platformFindings(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	legacy, err := s.legacyFindings(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	out := make([]CloudFinding, 0, len(platform)+len(legacy))
	for _, src := range platform {
		out = append(out, src.finding())
	}
	for _, src := range legacy {
		out = append(out, src.finding())
	}
	sortFindings(out)
	return out, nil
}

func (s *Service) platformFindings(ctx context.Context, organizationID string) ([]findingSource, error) {
	runs, err := s.store.ListLatestCheckRunsByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list latest check runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}

	runIDs := make([]string, 0, len(runs))
	connectionIDs := make([]string, 0, len(runs))
	runsByID := make(map[string]gen.ListLatestCheckRunsByOrganizationRow, len(runs))
	for _, run := range runs {
		runIDs = append(runIDs, run.ID)
		connectionIDs = append(connectionIDs, run.ConnectionID)
		runsByID[run.ID] = run
	}

	results, err := s.store.ListCheckResultsByRunIDs(ctx, runIDs)
	if err != nil {
		return nil, fmt.Errorf("list check results: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	slugRows, err := s.store.ListConnectionProviderSlugs(ctx, connectionIDs)
	if err != nil {
		return nil, fmt.Errorf("list connection provider slugs: %w", err)
	}
	slugByConnection := make(map[string]string, len(slugRows))
	for _, row := range slugRows {
		slugByConnection[row.ID] = row.ProviderSlug
	}

	out := make([]findingSource, 0, len(results))
	for _, row := range results {
		run, ok := runsByID[row.CheckRunID]
		slug := ""
		if ok {
			slug = slugByConnection[run.ConnectionID]
		}
		if slug == "" {
			s.logger.Warn("check result has no resolvable provider", "check_run_id", row.CheckRunID, "result_id", row.ID)
		}
		out = append(out, platformFinding{row: row, run: run, providerSlug: slug})
	}
	return out, nil
}

func (s *Service) legacyFindings(ctx context.Context, organizationID string) ([]findingSource, error) {
	integrations, err := s.store.ListIntegrationsByOrganization(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list legacy integrations: %w", err)
	}
	integrations = s.cloudIntegrations(integrations)
	if len(integrations) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(integrations))
	byID := make(map[string]gen.Integration, len(integrations))
	for _, integration := range integrations {
		ids = append(ids, integration.ID)
		byID[integration.ID] = integration
	}

	results, err := s.store.ListIntegrationResultsByIntegrationIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list legacy results: %w", err)
	}

	out := make([]findingSource, 0, len(results))
	for _, row := range results {
		integration, ok := byID[row.IntegrationID]
		if !ok {
			continue
		}
		if !inLegacyWindow(timePtr(row.CompletedAt), timePtr(integration.LastRunAt)) {
			continue
		}
		out = append(out, legacyFinding{row: row, integration: integration})
	}
	return out, nil
}

func (s *Service) cloudIntegrations(rows []gen.Integration) []gen.Integration {
	out := make([]gen.Integration, 0, len(rows))
	for _, row := range rows {
		m, ok := s.manifests.Lookup(row.IntegrationID)
		if !ok || m.Category != manifest.CategoryCloud {
			continue
		}
		out = append(out, row)
	}
	return out
}

// inLegacyWindow reports whether a legacy result completed within
// [lastRunAt-LegacyFindingWindow, lastRunAt]. Without a lastRunAt any
// completed result qualifies.
func inLegacyWindow(completedAt, lastRunAt *time.Time) bool {
	if completedAt == nil {
		return false
	}
	if lastRunAt == nil {
		return true
	}
	start := lastRunAt.Add(-LegacyFindingWindow)
	return !completedAt.Before(start) && !completedAt.After(*lastRunAt)
}

func sortFindings(findings []CloudFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return sortKey(findings[i].CompletedAt) > sortKey(findings[j].CompletedAt)
	})
}

func sortKey(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

func sourceSlug(src providerSource) string {
	switch v := src.(type) {
	case platformSource:
		return v.row.ProviderSlug
	case legacySource:
		return v.row.IntegrationID
	default:
		return ""
	}
}
