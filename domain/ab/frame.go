package ab

import (
	"sort"

	"abx/domain/core"
)

// Group identifies the experiment arm a row is assigned to.
type Group string

const (
	Control   Group = "control"
	Treatment Group = "treatment"
)

const (
	// MetricColumn is the primary numeric outcome every Frame carries.
	MetricColumn = "metric"
	// CUPEDColumn is the adjusted-metric column attached by CUPED.
	CUPEDColumn = "metric_cuped"
	// MissingCategory absorbs missing covariate values during diagnostics.
	MissingCategory = "<NA>"
	// OtherCategory collapses low-frequency covariate values during diagnostics.
	OtherCategory = "__OTHER__"
)

// Frame is a typed wrapper for a two-arm experiment dataset.
//
// Required columns:
//   - group: {control, treatment}
//   - metric: numeric outcome
//   - user_id: row identifier
//   - exposed: true when the user had a chance to be affected
//
// Additional numeric columns (derived metrics) and categorical covariate
// columns may be attached. A Frame is built once and never mutated; the
// With* methods return a new Frame sharing unchanged columns. Callers must
// not mutate slices handed to the constructor or returned by accessors.
type Frame struct {
	groups   []Group
	userIDs  []string
	exposed  []bool
	numeric  map[string][]float64
	category map[string][]string
}

// NewFrame builds and validates a Frame from its required columns.
func NewFrame(groups []Group, metric []float64, userIDs []string, exposed []bool) (*Frame, error) {
	f := &Frame{
		groups:   groups,
		userIDs:  userIDs,
		exposed:  exposed,
		numeric:  map[string][]float64{MetricColumn: metric},
		category: map[string][]string{},
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the column invariants the analysis engine relies on.
func (f *Frame) Validate() error {
	n := len(f.groups)
	if n == 0 {
		return core.NewValidationError("frame must contain at least one row")
	}
	if len(f.userIDs) != n {
		return core.NewValidationError("column 'user_id' length must match 'group'")
	}
	if len(f.exposed) != n {
		return core.NewValidationError("column 'exposed' length must match 'group'")
	}
	for name, col := range f.numeric {
		if len(col) != n {
			return core.Validationf("column '%s' length must match 'group'", name)
		}
	}
	for name, col := range f.category {
		if len(col) != n {
			return core.Validationf("column '%s' length must match 'group'", name)
		}
	}
	for _, g := range f.groups {
		if g != Control && g != Treatment {
			return core.Validationf("column 'group' must contain only [%s %s]; found %q", Control, Treatment, string(g))
		}
	}
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.groups) }

// Groups returns the arm-assignment column.
func (f *Frame) Groups() []Group { return f.groups }

// UserIDs returns the identifier column.
func (f *Frame) UserIDs() []string { return f.userIDs }

// Exposed returns the exposure-flag column.
func (f *Frame) Exposed() []bool { return f.exposed }

// Numeric returns a named numeric column.
func (f *Frame) Numeric(name string) ([]float64, error) {
	col, ok := f.numeric[name]
	if !ok {
		return nil, core.Validationf("column '%s' not found", name)
	}
	return col, nil
}

// Metric returns the primary outcome column.
func (f *Frame) Metric() []float64 { return f.numeric[MetricColumn] }

// Category returns a named categorical covariate column.
func (f *Frame) Category(name string) ([]string, error) {
	col, ok := f.category[name]
	if !ok {
		return nil, core.Validationf("column '%s' not found", name)
	}
	return col, nil
}

// CategoryColumns lists the categorical covariate columns in sorted order so
// diagnostic output ordering is reproducible.
func (f *Frame) CategoryColumns() []string {
	names := make([]string, 0, len(f.category))
	for name := range f.category {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RequireNumeric ensures the Frame carries all named numeric columns.
func (f *Frame) RequireNumeric(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := f.numeric[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return core.Validationf("frame missing required columns: %v", missing)
	}
	return nil
}

// WithNumeric returns a new Frame with an attached (or replaced) numeric column.
func (f *Frame) WithNumeric(name string, values []float64) (*Frame, error) {
	if len(values) != f.Len() {
		return nil, core.Validationf("column '%s' length must match 'group'", name)
	}
	next := f.clone()
	next.numeric[name] = values
	return next, nil
}

// WithCategory returns a new Frame with an attached categorical covariate
// column. An empty string marks a missing value.
func (f *Frame) WithCategory(name string, values []string) (*Frame, error) {
	if len(values) != f.Len() {
		return nil, core.Validationf("column '%s' length must match 'group'", name)
	}
	next := f.clone()
	next.category[name] = values
	return next, nil
}

// ArmCounts returns the per-arm row counts.
func (f *Frame) ArmCounts() (nControl, nTreatment int) {
	for _, g := range f.groups {
		switch g {
		case Control:
			nControl++
		case Treatment:
			nTreatment++
		}
	}
	return nControl, nTreatment
}

// Select returns a new Frame containing the rows at the given indices.
func (f *Frame) Select(rows []int) *Frame {
	next := &Frame{
		groups:   make([]Group, len(rows)),
		userIDs:  make([]string, len(rows)),
		exposed:  make([]bool, len(rows)),
		numeric:  make(map[string][]float64, len(f.numeric)),
		category: make(map[string][]string, len(f.category)),
	}
	for name := range f.numeric {
		next.numeric[name] = make([]float64, len(rows))
	}
	for name := range f.category {
		next.category[name] = make([]string, len(rows))
	}
	for i, r := range rows {
		next.groups[i] = f.groups[r]
		next.userIDs[i] = f.userIDs[r]
		next.exposed[i] = f.exposed[r]
		for name, col := range f.numeric {
			next.numeric[name][i] = col[r]
		}
		for name, col := range f.category {
			next.category[name][i] = col[r]
		}
	}
	return next
}

func (f *Frame) clone() *Frame {
	next := &Frame{
		groups:   f.groups,
		userIDs:  f.userIDs,
		exposed:  f.exposed,
		numeric:  make(map[string][]float64, len(f.numeric)+1),
		category: make(map[string][]string, len(f.category)+1),
	}
	for name, col := range f.numeric {
		next.numeric[name] = col
	}
	for name, col := range f.category {
		next.category[name] = col
	}
	return next
}
