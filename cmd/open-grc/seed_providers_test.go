package main

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/open-sspm/open-grc/internal/db/gen"
	"github.com/open-sspm/open-grc/internal/manifest"
)

type fakeSeeder struct {
	upserts     []gen.UpsertIntegrationProviderParams
	keptSlugs   []string
	upsertErr   error
	deactivated int64
}

func (f *fakeSeeder) UpsertIntegrationProvider(_ context.Context, arg gen.UpsertIntegrationProviderParams) (gen.IntegrationProvider, error) {
	if f.upsertErr != nil {
		return gen.IntegrationProvider{}, f.upsertErr
	}
	f.upserts = append(f.upserts, arg)
	return gen.IntegrationProvider{ID: arg.ID, Slug: arg.Slug}, nil
}

func (f *fakeSeeder) DeactivateIntegrationProvidersNotIn(_ context.Context, slugs []string) (int64, error) {
	f.keptSlugs = slugs
	return f.deactivated, nil
}

func TestSeedProvidersUpsertsEveryManifest(t *testing.T) {
	t.Parallel()

	manifests := manifest.Builtin()
	q := &fakeSeeder{deactivated: 2}

	upserted, deactivated, err := seedProviders(context.Background(), q, manifests)
	if err != nil {
		t.Fatalf("seedProviders() error = %v", err)
	}
	if upserted != len(manifests) || deactivated != 2 {
		t.Fatalf("upserted=%d deactivated=%d", upserted, deactivated)
	}

	var wantSlugs []string
	for _, m := range manifests {
		wantSlugs = append(wantSlugs, m.Slug)
	}
	if !reflect.DeepEqual(q.keptSlugs, wantSlugs) {
		t.Fatalf("kept slugs = %v, want %v", q.keptSlugs, wantSlugs)
	}

	for _, p := range q.upserts {
		if p.ID == "" || p.Capabilities == nil {
			t.Fatalf("upsert params incomplete: %+v", p)
		}
		if p.Slug == "aws" && (p.Category != manifest.CategoryCloud || p.AuthType != string(manifest.AuthTypeCustom)) {
			t.Fatalf("aws provider = %+v", p)
		}
	}
}

func TestSeedProvidersStopsOnUpsertError(t *testing.T) {
	t.Parallel()

	q := &fakeSeeder{upsertErr: errors.New("constraint")}
	if _, _, err := seedProviders(context.Background(), q, manifest.Builtin()); err == nil {
		t.Fatal("seedProviders() error = nil, want error")
	}
	if q.keptSlugs != nil {
		t.Fatal("providers deactivated after failed upsert")
	}
}
