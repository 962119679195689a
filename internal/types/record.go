package types

// LegacyRecord mirrors the flat schema of the external sketch store. Position
// and size fields carry the store's decimal-or-fractional feet text (e.g.
// "12.5" or "12 1/2") and round-trip through the precision package.
//
// The json/xml tags define the hierarchical and tagged-markup wire forms; the
// tabular form uses the same field order (see codec).
type LegacyRecord struct {
	// Identity and placement
	RecordID  string `json:"recordId" xml:"recordId,attr"`
	ShapeType string `json:"shapeType" xml:"shapeType,attr"`
	PosX      string `json:"posX" xml:"posX,attr"`
	PosY      string `json:"posY" xml:"posY,attr"`
	Width     string `json:"width,omitempty" xml:"width,attr,omitempty"`
	Height    string `json:"height,omitempty" xml:"height,attr,omitempty"`

	// Line endpoints
	LineStartX string `json:"lineStartX,omitempty" xml:"lineStartX,attr,omitempty"`
	LineStartY string `json:"lineStartY,omitempty" xml:"lineStartY,attr,omitempty"`
	LineEndX   string `json:"lineEndX,omitempty" xml:"lineEndX,attr,omitempty"`
	LineEndY   string `json:"lineEndY,omitempty" xml:"lineEndY,attr,omitempty"`

	// Arc and curve control points
	ArcStartX   string `json:"arcStartX,omitempty" xml:"arcStartX,attr,omitempty"`
	ArcStartY   string `json:"arcStartY,omitempty" xml:"arcStartY,attr,omitempty"`
	ArcEndX     string `json:"arcEndX,omitempty" xml:"arcEndX,attr,omitempty"`
	ArcEndY     string `json:"arcEndY,omitempty" xml:"arcEndY,attr,omitempty"`
	ArcControlX string `json:"arcControlX,omitempty" xml:"arcControlX,attr,omitempty"`
	ArcControlY string `json:"arcControlY,omitempty" xml:"arcControlY,attr,omitempty"`
	// SweepDirection is free text in the store; import normalizes it
	SweepDirection string `json:"sweepDirection,omitempty" xml:"sweepDirection,attr,omitempty"`

	// Two independently named closure flags exist in the store. Import
	// OR-reduces them; export replicates the internal flag to both.
	Closed   bool `json:"closed,omitempty" xml:"closed,attr,omitempty"`
	IsClosed bool `json:"isClosed,omitempty" xml:"isClosed,attr,omitempty"`

	// Styling
	LineColor   string `json:"lineColor,omitempty" xml:"lineColor,attr,omitempty"`
	LineWeight  string `json:"lineWeight,omitempty" xml:"lineWeight,attr,omitempty"`
	FillPattern string `json:"fillPattern,omitempty" xml:"fillPattern,attr,omitempty"`

	// Building context
	BuildingClass string  `json:"buildingClass,omitempty" xml:"buildingClass,attr,omitempty"`
	ConditionPct  float64 `json:"conditionPct,omitempty" xml:"conditionPct,attr,omitempty"`
	DeclaredArea  string  `json:"declaredArea,omitempty" xml:"declaredArea,attr,omitempty"`
	DeclaredPerim string  `json:"declaredPerimeter,omitempty" xml:"declaredPerimeter,attr,omitempty"`
	Notes         string  `json:"notes,omitempty" xml:"notes,attr,omitempty"`
	Page          string  `json:"page,omitempty" xml:"page,attr,omitempty"`
	// Adjustment is appraisal adjustment text; the tagged-markup form carries
	// it as the element body rather than an attribute
	Adjustment string `json:"adjustment,omitempty" xml:",chardata"`

	// Audit
	ModifiedBy string `json:"modifiedBy,omitempty" xml:"modifiedBy,attr,omitempty"`
	ModifiedAt string `json:"modifiedAt,omitempty" xml:"modifiedAt,attr,omitempty"`
	Version    int    `json:"version,omitempty" xml:"version,attr,omitempty"`
	// Active is a pointer so export can distinguish "explicitly false" from
	// absent (absent defaults to true)
	Active *bool `json:"active,omitempty" xml:"active,attr,omitempty"`
}

// BuildingContext aggregates the shapes belonging to one structure: declared
// figures from the legacy records against geometrically computed ones.
type BuildingContext struct {
	Class        string  `json:"class,omitempty"`
	ConditionPct float64 `json:"conditionPct,omitempty"`
	DeclaredArea float64 `json:"declaredArea"`
	ComputedArea float64 `json:"computedArea"`
	Perimeter    float64 `json:"perimeter"`
	ShapeCount   int     `json:"shapeCount"`
}

// ReconciliationResult reports a declared-vs-computed measurement comparison.
type ReconciliationResult struct {
	Declared       float64 `json:"declared"`
	Computed       float64 `json:"computed"`
	AbsoluteDiff   float64 `json:"absoluteDiff"`
	RelativeDiff   float64 `json:"relativeDiff"`
	Pass           bool    `json:"pass"`
	Recommendation string  `json:"recommendation"`
}
