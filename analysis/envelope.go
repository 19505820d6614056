package analysis

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// decayRangeDB is how far below the peak the decay fit follows the envelope.
const decayRangeDB = 60

// minDecayPoints is the fewest envelope points a decay slope is fitted to.
const minDecayPoints = 6

// levelDB converts a linear level to dB, floored at floorDB.
func levelDB(x float64) float64 {
	db := core.LinearToDB(x)
	if math.IsNaN(db) || db < floorDB {
		return floorDB
	}
	return db
}

// decayFit is a running least-squares line through the envelope in dB,
// starting one hop after the loudest point seen so far and ending where the
// envelope first drops decayRangeDB below it. A louder point restarts it.
type decayFit struct {
	hopSec float64

	peakDB float64
	seen   bool
	ended  bool

	n                int
	sx, sy, sxx, sxy float64
}

func newDecayFit(hopSec float64) *decayFit {
	return &decayFit{hopSec: hopSec}
}

// add takes the next envelope level.
func (f *decayFit) add(level float64) {
	db := levelDB(level)
	if !f.seen || db > f.peakDB {
		*f = decayFit{hopSec: f.hopSec, peakDB: db, seen: true}
		return
	}
	if f.ended {
		return
	}
	if db < f.peakDB-decayRangeDB {
		f.ended = true
		return
	}
	x := float64(f.n) * f.hopSec
	f.n++
	f.sx += x
	f.sy += db
	f.sxx += x * x
	f.sxy += x * db
}

// slope returns the fitted decay in dB per second, or NaN with fewer than
// minDecayPoints points.
func (f *decayFit) slope() float64 {
	if f.n < minDecayPoints || f.hopSec <= 0 {
		return math.NaN()
	}
	n := float64(f.n)
	den := n*f.sxx - f.sx*f.sx
	if math.Abs(den) < 1e-12 {
		return math.NaN()
	}
	return (n*f.sxy - f.sx*f.sy) / den
}
