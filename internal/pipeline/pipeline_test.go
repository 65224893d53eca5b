package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/votemap/precinct-cli/internal/model"
	"github.com/votemap/precinct-cli/internal/settlement"
	"github.com/votemap/precinct-cli/internal/workbook"
	"github.com/votemap/precinct-cli/pkg/valasztas"
)

// fullStationRow is a complete data row: marker, identity columns, and every
// counter set to 5.
func fullStationRow(county, settlementName, stationNo string) []string {
	row := []string{"x", county, settlementName, stationNo}
	for i := 0; i < 16; i++ {
		row = append(row, "5")
	}
	return row
}

func TestRun_EndToEnd(t *testing.T) {
	client := new(mockClient)
	client.On("SearchSettlements", mock.Anything, "Szeged").Return([]valasztas.Settlement{
		{Name: "Szeged", Code: "123"},
	}, nil).Once()
	client.On("StationPolygon", mock.Anything, valasztas.StationKey{
		CountyCode:     "01",
		SettlementCode: "123",
		StationNumber:  "1",
	}).Return([]valasztas.Point{
		{Lat: 46.0, Lng: 20.0},
		{Lat: 46.1, Lng: 20.1},
		{Lat: 46.0, Lng: 20.2},
	}, nil).Once()

	sheets := []workbook.Sheet{
		{Name: "Pest", Rows: [][]string{
			headerRow(),
			fullStationRow("Pest", "Szeged", "1"),
		}},
	}

	p := New(client, settlement.NewResolver(client, settlement.NewCache()))
	fc, err := p.Run(context.Background(), sheets)

	require.NoError(t, err)
	require.NotNil(t, fc)
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)

	feature := fc.Features[0]
	assert.Equal(t, "Pest", feature.Properties.County)
	assert.Equal(t, "Szeged", feature.Properties.Settlement)
	assert.Equal(t, 1, feature.Properties.StationNumber)
	require.NotNil(t, feature.Properties.NominalVoterCount)
	assert.Equal(t, 5, *feature.Properties.NominalVoterCount)
	require.NotNil(t, feature.Properties.BallotCountLMP)
	assert.Equal(t, 5, *feature.Properties.BallotCountLMP)

	data, err := json.Marshal(feature.Geometry)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"Polygon","coordinates":[[[20,46],[20.1,46.1],[20.2,46],[20,46]]]}`,
		string(data),
	)
	client.AssertExpectations(t)
}

func TestRun_ResolutionFailureAbortsWithNoDocument(t *testing.T) {
	client := new(mockClient)
	client.On("SearchSettlements", mock.Anything, "Atlantis").Return([]valasztas.Settlement{}, nil)

	sheets := []workbook.Sheet{
		{Name: "Pest", Rows: [][]string{
			headerRow(),
			fullStationRow("Pest", "Atlantis", "1"),
		}},
	}

	p := New(client, settlement.NewResolver(client, settlement.NewCache()))
	fc, err := p.Run(context.Background(), sheets)

	require.Error(t, err)
	var resErr *settlement.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Nil(t, fc)
	client.AssertNotCalled(t, "StationPolygon", mock.Anything, mock.Anything)
}

func TestRun_BoundaryFailureIsIsolated(t *testing.T) {
	client := new(mockClient)
	client.On("SearchSettlements", mock.Anything, "Abony").Return([]valasztas.Settlement{
		{Name: "Abony", Code: "100"},
	}, nil)

	goodPoints := []valasztas.Point{
		{Lat: 46.0, Lng: 20.0},
		{Lat: 46.1, Lng: 20.1},
		{Lat: 46.0, Lng: 20.2},
	}
	keyFor := func(n string) valasztas.StationKey {
		return valasztas.StationKey{CountyCode: "01", SettlementCode: "100", StationNumber: n}
	}
	client.On("StationPolygon", mock.Anything, keyFor("1")).Return(goodPoints, nil).Once()
	client.On("StationPolygon", mock.Anything, keyFor("2")).Return(nil, errors.New("portlet error")).Once()
	client.On("StationPolygon", mock.Anything, keyFor("3")).Return(goodPoints, nil).Once()

	sheets := []workbook.Sheet{
		{Name: "Pest", Rows: [][]string{
			headerRow(),
			fullStationRow("Pest", "Abony", "1"),
			fullStationRow("Pest", "Abony", "2"),
			fullStationRow("Pest", "Abony", "3"),
		}},
	}

	p := New(client, settlement.NewResolver(client, settlement.NewCache()))
	fc, err := p.Run(context.Background(), sheets)

	require.NoError(t, err)
	require.Len(t, fc.Features, 3)
	assert.NotNil(t, fc.Features[0].Geometry)
	assert.Nil(t, fc.Features[1].Geometry)
	assert.NotNil(t, fc.Features[2].Geometry)
	assert.Equal(t, 2, fc.Features[1].Properties.StationNumber)
	client.AssertExpectations(t)
}

func TestRun_OnFeatureHook(t *testing.T) {
	client := new(mockClient)
	client.On("SearchSettlements", mock.Anything, "Abony").Return([]valasztas.Settlement{
		{Name: "Abony", Code: "100"},
	}, nil)
	client.On("StationPolygon", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	sheets := []workbook.Sheet{
		{Name: "Pest", Rows: [][]string{
			headerRow(),
			fullStationRow("Pest", "Abony", "1"),
			fullStationRow("Pest", "Abony", "2"),
		}},
	}

	p := New(client, settlement.NewResolver(client, settlement.NewCache()))

	var seen int
	p.OnFeature = func(f *model.Feature) {
		seen++
		assert.NotNil(t, f.Properties)
	}

	fc, err := p.Run(context.Background(), sheets)
	require.NoError(t, err)
	assert.Equal(t, len(fc.Features), seen)
	assert.Equal(t, 2, seen)
}

func TestRun_EmptyWorkbook(t *testing.T) {
	client := new(mockClient)

	p := New(client, settlement.NewResolver(client, settlement.NewCache()))
	fc, err := p.Run(context.Background(), nil)

	require.NoError(t, err)
	require.NotNil(t, fc)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}

// trackingClient answers both portlet resources and records how many calls
// are in flight at once, across the two of them.
type trackingClient struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int
}

func (c *trackingClient) enter() {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.maxSeen {
		c.maxSeen = c.inFlight
	}
	c.mu.Unlock()

	// Holds the call in flight long enough for an overlapping one to register.
	time.Sleep(2 * time.Millisecond)
}

func (c *trackingClient) exit() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
}

func (c *trackingClient) SearchSettlements(ctx context.Context, keyword string) ([]valasztas.Settlement, error) {
	c.enter()
	defer c.exit()
	return []valasztas.Settlement{{Name: keyword, Code: "1"}}, nil
}

func (c *trackingClient) StationPolygon(ctx context.Context, key valasztas.StationKey) ([]valasztas.Point, error) {
	c.enter()
	defer c.exit()
	return []valasztas.Point{
		{Lat: 46.0, Lng: 20.0},
		{Lat: 46.1, Lng: 20.1},
		{Lat: 46.0, Lng: 20.2},
	}, nil
}

func TestRun_PortletCallsAreSequential(t *testing.T) {
	// Fresh settlements interleave searches with boundary fetches across
	// sheet boundaries, covering every adjacency of the two call kinds.
	sheets := []workbook.Sheet{
		{Name: "Pest", Rows: [][]string{
			headerRow(),
			fullStationRow("Pest", "Abony", "1"),
			fullStationRow("Pest", "Cegléd", "1"),
			fullStationRow("Pest", "Abony", "2"),
		}},
		{Name: "Csongrád", Rows: [][]string{
			headerRow(),
			fullStationRow("Csongrád", "Szeged", "1"),
		}},
	}

	client := new(trackingClient)
	p := New(client, settlement.NewResolver(client, settlement.NewCache()))
	fc, err := p.Run(context.Background(), sheets)

	require.NoError(t, err)
	require.Len(t, fc.Features, 4)
	assert.Equal(t, 1, client.maxSeen, "portlet must never see more than one request in flight")
}

func TestRun_CancelledContext(t *testing.T) {
	client := new(mockClient)
	client.On("SearchSettlements", mock.Anything, mock.Anything).Return([]valasztas.Settlement{
		{Name: "Abony", Code: "100"},
	}, nil)
	client.On("StationPolygon", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	sheets := []workbook.Sheet{
		{Name: "Pest", Rows: [][]string{
			headerRow(),
			fullStationRow("Pest", "Abony", "1"),
		}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(client, settlement.NewResolver(client, settlement.NewCache()))
	fc, err := p.Run(ctx, sheets)

	// A cancelled run never hands back a partial document.
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, fc)
}
