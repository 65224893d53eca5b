// Package pipeline enriches workbook station rows into geo features: resolve
// the settlement code, fetch the station boundary, pair boundary and results.
package pipeline

import (
	"context"

	"github.com/votemap/precinct-cli/internal/model"
	"github.com/votemap/precinct-cli/internal/settlement"
	"github.com/votemap/precinct-cli/internal/workbook"
	"github.com/votemap/precinct-cli/pkg/valasztas"
)

// Station is one parsed station row tagged with the county code its sheet
// position derives. Settlement resolution has not happened yet at this point;
// that belongs to the enrichment stage, which owns all remote calls.
type Station struct {
	CountyCode string
	Record     *model.StationRecord
}

// Pipeline wires the enrichment stages. One portlet client spans the whole
// run, and every remote call is issued from a single loop, so the portlet
// never sees more than one request in flight.
type Pipeline struct {
	client   valasztas.Client
	resolver *settlement.Resolver

	// OnFeature, when set, observes every assembled feature as the run
	// drains. Used for progress display; must not block.
	OnFeature func(*model.Feature)
}

// New creates a pipeline around a portlet client and a settlement resolver.
func New(client valasztas.Client, resolver *settlement.Resolver) *Pipeline {
	return &Pipeline{client: client, resolver: resolver}
}

// Run executes the full pass: parsed station rows stream into the enrichment
// loop, features drain into the final document. A settlement resolution
// failure aborts the run with no document; boundary failures only null the
// affected features.
func (p *Pipeline) Run(ctx context.Context, sheets []workbook.Sheet) (*model.FeatureCollection, error) {
	// Releases the row producer if enrichment stops before draining it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	features, errCh := p.Features(ctx, p.Stations(ctx, sheets))

	collected := make([]*model.Feature, 0)
	for feature := range features {
		collected = append(collected, feature)
		if p.OnFeature != nil {
			p.OnFeature(feature)
		}
	}

	if err := <-errCh; err != nil {
		return nil, err
	}

	return model.NewFeatureCollection(collected), nil
}
