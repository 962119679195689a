// Package reconcile compares declared legacy measurements against
// geometrically computed ones and classifies the discrepancy. All functions
// are pure and side-effect free.
package reconcile

import (
	"math"

	"github.com/plansketch/plansketch/internal/errors"
	"github.com/plansketch/plansketch/internal/legacy"
	"github.com/plansketch/plansketch/internal/precision"
	"github.com/plansketch/plansketch/internal/types"
)

// DefaultTolerance is the relative difference considered a match.
const DefaultTolerance = 0.05

// Recommendation texts by relative-difference bracket.
const (
	RecommendationMatches  = "measurements match"
	RecommendationMinor    = "minor discrepancy, likely fine"
	RecommendationModerate = "moderate discrepancy, review suggested"
	RecommendationMajor    = "major discrepancy, needs revision"
)

// Reconcile compares a declared measurement against a computed one. A zero or
// negative declared value is trivially valid with zero differences: the store
// uses 0 for "no declared figure" and dividing by it would poison the
// relative difference.
func Reconcile(declared, computed, tolerance float64) types.ReconciliationResult {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	if declared <= 0 {
		return types.ReconciliationResult{
			Declared:       declared,
			Computed:       computed,
			Pass:           true,
			Recommendation: RecommendationMatches,
		}
	}

	diff := computed - declared
	relative := math.Abs(diff) / declared

	return types.ReconciliationResult{
		Declared:       declared,
		Computed:       computed,
		AbsoluteDiff:   diff,
		RelativeDiff:   relative,
		Pass:           relative <= tolerance,
		Recommendation: recommend(relative, tolerance),
	}
}

func recommend(relative, tolerance float64) string {
	switch {
	case relative <= tolerance:
		return RecommendationMatches
	case relative < 0.10:
		return RecommendationMinor
	case relative < 0.20:
		return RecommendationModerate
	default:
		return RecommendationMajor
	}
}

// ShapeResult pairs a reconciliation outcome with the shape it covers.
type ShapeResult struct {
	ShapeID string
	Result  types.ReconciliationResult
}

// ReconcileShapes checks each shape's declared legacy area against its
// computed area. Shapes without a legacy record are skipped and noted in the
// collector; one bad record never aborts the batch.
func ReconcileShapes(shapes []types.Shape, tolerance float64, collector *errors.RecordCollector) []ShapeResult {
	if collector == nil {
		collector = errors.NewRecordCollector()
	}

	results := make([]ShapeResult, 0, len(shapes))
	for i, shape := range shapes {
		if shape.Legacy == nil {
			collector.Add(errors.RecordError{
				RecordID: shape.ID,
				Index:    i,
				Message:  "no legacy record to reconcile against",
				Severity: errors.SeverityInfo,
			})
			continue
		}
		declared := precision.ParseFeet(shape.Legacy.DeclaredArea)
		results = append(results, ShapeResult{
			ShapeID: shape.ID,
			Result:  Reconcile(declared, shape.Props.Area, tolerance),
		})
	}
	return results
}

// ReconcileContext checks a building group's declared total area against the
// computed total.
func ReconcileContext(shapes []types.Shape, tolerance float64) types.ReconciliationResult {
	ctx := legacy.BuildContext(shapes)
	return Reconcile(ctx.DeclaredArea, ctx.ComputedArea, tolerance)
}
