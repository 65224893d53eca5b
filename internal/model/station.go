package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Column positions of one station row. Position 0 holds a presence marker
// that blank and filler rows leave empty; the data cells follow it.
const (
	colMarker = iota
	colCounty
	colSettlement
	colStationNumber
	colNominalVoterCount
	colActualVoterCount
	colBallotsWithoutStamp
	colBallotsStamped
	colBallotToActualVotersDiff
	colInvalidBallots
	colValidBallots
	colBallotCountMSZPParbeszed
	colBallotCountMKKP
	colBallotCountJobbik
	colBallotCountFidesz
	colBallotCountMomentum
	colBallotCountDK
	colBallotCountMiHazank
	colBallotCountMunkaspart
	colBallotCountLMP
)

// StationRecord holds the results of one polling station as read from a
// county worksheet. Field order is the property order of exported features.
// Counter cells that cannot be read stay nil and export as null.
type StationRecord struct {
	County                   string `json:"county"`
	Settlement               string `json:"settlement"`
	StationNumber            int    `json:"stationNumber"`
	NominalVoterCount        *int   `json:"nominalVoterCount"`
	ActualVoterCount         *int   `json:"actualVoterCount"`
	BallotsWithoutStamp      *int   `json:"ballotsWithoutStamp"`
	BallotsStamped           *int   `json:"ballotsStamped"`
	BallotToActualVotersDiff *int   `json:"ballotToActualVotersDiff"`
	InvalidBallots           *int   `json:"invalidBallots"`
	ValidBallots             *int   `json:"validBallots"`
	BallotCountMSZPParbeszed *int   `json:"ballotCountMszpParbeszed"`
	BallotCountMKKP          *int   `json:"ballotCountMkkp"`
	BallotCountJobbik        *int   `json:"ballotCountJobbik"`
	BallotCountFidesz        *int   `json:"ballotCountFidesz"`
	BallotCountMomentum      *int   `json:"ballotCountMomentum"`
	BallotCountDK            *int   `json:"ballotCountDk"`
	BallotCountMiHazank      *int   `json:"ballotCountMiHazank"`
	BallotCountMunkaspart    *int   `json:"ballotCountMunkaspart"`
	BallotCountLMP           *int   `json:"ballotCountLmp"`
}

// ParseStationRow builds a record from one worksheet row. The second return
// is false for rows carrying no station: filler rows flagged by an empty
// marker cell, and rows missing a settlement name or a readable station
// number.
func ParseStationRow(cells []string) (*StationRecord, bool) {
	if cell(cells, colMarker) == "" {
		return nil, false
	}

	settlement := cell(cells, colSettlement)
	if settlement == "" {
		return nil, false
	}

	stationNumber, err := parseInt(cell(cells, colStationNumber))
	if err != nil {
		return nil, false
	}

	return &StationRecord{
		County:                   cell(cells, colCounty),
		Settlement:               settlement,
		StationNumber:            stationNumber,
		NominalVoterCount:        parseCount(cell(cells, colNominalVoterCount)),
		ActualVoterCount:         parseCount(cell(cells, colActualVoterCount)),
		BallotsWithoutStamp:      parseCount(cell(cells, colBallotsWithoutStamp)),
		BallotsStamped:           parseCount(cell(cells, colBallotsStamped)),
		BallotToActualVotersDiff: parseCount(cell(cells, colBallotToActualVotersDiff)),
		InvalidBallots:           parseCount(cell(cells, colInvalidBallots)),
		ValidBallots:             parseCount(cell(cells, colValidBallots)),
		BallotCountMSZPParbeszed: parseCount(cell(cells, colBallotCountMSZPParbeszed)),
		BallotCountMKKP:          parseCount(cell(cells, colBallotCountMKKP)),
		BallotCountJobbik:        parseCount(cell(cells, colBallotCountJobbik)),
		BallotCountFidesz:        parseCount(cell(cells, colBallotCountFidesz)),
		BallotCountMomentum:      parseCount(cell(cells, colBallotCountMomentum)),
		BallotCountDK:            parseCount(cell(cells, colBallotCountDK)),
		BallotCountMiHazank:      parseCount(cell(cells, colBallotCountMiHazank)),
		BallotCountMunkaspart:    parseCount(cell(cells, colBallotCountMunkaspart)),
		BallotCountLMP:           parseCount(cell(cells, colBallotCountLMP)),
	}, true
}

// StationNumberString renders the station number the way the lookup key
// wants it: decimal, no leading zeros.
func (r *StationRecord) StationNumberString() string {
	return strconv.Itoa(r.StationNumber)
}

// String renders the descriptor stations go by in lookup logs.
func (r *StationRecord) String() string {
	return fmt.Sprintf("County: %s, Settlement: %s, Station: %d", r.County, r.Settlement, r.StationNumber)
}

// cell reads position i of a row, treating short rows as trailing empties.
func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return cells[i]
}

// parseInt reads a whole number from a cell, tolerating the float rendering
// spreadsheet libraries give numeric cells ("7" and "7.0" both read as 7).
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func parseCount(s string) *int {
	n, err := parseInt(s)
	if err != nil {
		return nil
	}
	return &n
}
