package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/votemap/precinct-cli/internal/model"
	"github.com/votemap/precinct-cli/pkg/valasztas"
)

// Features enriches each incoming station row into a feature: resolve the
// settlement code, fetch the boundary from the map portlet, pair boundary and
// results. Both remote lookups happen here, back to back in a single loop,
// one station at a time; at most one portlet request is ever in flight.
//
// A settlement that cannot be resolved is fatal: the error lands on the error
// channel and the stream stops, because every station of that settlement is
// unaddressable. Boundary fetch and decode failures are isolated per station:
// the failure is logged with the station descriptor and the feature is
// emitted with a null geometry, so one broken station never costs the rest of
// the batch. Both channels close when the stream ends.
func (p *Pipeline) Features(ctx context.Context, stations <-chan Station) (<-chan *model.Feature, <-chan error) {
	out := make(chan *model.Feature)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		for station := range stations {
			code, err := p.resolver.Resolve(ctx, station.Record.Settlement)
			if err != nil {
				errCh <- err
				return
			}

			key := valasztas.StationKey{
				CountyCode:     station.CountyCode,
				SettlementCode: code,
				StationNumber:  station.Record.StationNumberString(),
			}

			feature := model.NewFeature(p.fetchBoundary(ctx, key, station.Record), station.Record)

			select {
			case out <- feature:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "pipeline: enrichment cancelled")
				return
			}
		}

		// The row producer closes its stream on cancellation; surface that
		// as an error so a cancelled run never yields a partial document.
		if err := ctx.Err(); err != nil {
			errCh <- eris.Wrap(err, "pipeline: enrichment cancelled")
		}
	}()

	return out, errCh
}

// fetchBoundary returns the station's boundary polygon, or nil when the
// lookup or decoding failed.
func (p *Pipeline) fetchBoundary(ctx context.Context, key valasztas.StationKey, record *model.StationRecord) *geojson.Geometry {
	zap.L().Debug("fetching station boundary", zap.String("station", record.String()))

	points, err := p.client.StationPolygon(ctx, key)
	if err != nil {
		zap.L().Error("station boundary fetch failed",
			zap.String("station", record.String()),
			zap.Error(err),
		)
		return nil
	}

	geometry, err := boundaryGeometry(points)
	if err != nil {
		zap.L().Error("station boundary unusable",
			zap.String("station", record.String()),
			zap.Error(err),
		)
		return nil
	}

	return geometry
}

// boundaryGeometry builds a closed polygon from the fetched path. The portlet
// sends vertices latitude-first; GeoJSON coordinates are longitude-first. An
// open ring is closed by repeating the first vertex, a closed one is kept as
// is, and anything with fewer than three distinct vertices is rejected.
func boundaryGeometry(points []valasztas.Point) (*geojson.Geometry, error) {
	n := len(points)
	if n > 1 && points[0] == points[n-1] {
		n--
	}
	if n < 3 {
		return nil, eris.Errorf("pipeline: boundary has %d usable points, need at least 3", n)
	}

	flat := make([]float64, 0, (n+1)*2)
	for _, pt := range points[:n] {
		flat = append(flat, pt.Lng, pt.Lat)
	}
	flat = append(flat, points[0].Lng, points[0].Lat)

	geometry, err := geojson.Encode(geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: encode boundary")
	}
	return geometry, nil
}
