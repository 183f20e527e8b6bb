package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"abx/domain/ab"
	"abx/domain/core"
	"abx/internal/logging"
)

// DiagnosticsConfig carries the tunable constants of the mismatch search.
// The defaults are behavioral constants, not statistically derived
// thresholds; change them only with a reason.
type DiagnosticsConfig struct {
	// SRMThreshold is the omnibus p-value below which per-covariate
	// suspects are investigated at all.
	SRMThreshold float64
	// SuspectAlpha is the per-category significance cutoff.
	SuspectAlpha float64
	// TopCategories caps the per-feature category alphabet; the remainder
	// collapses into the "other" bucket. Bounds diagnostic cost.
	TopCategories int
	// PExpected is the expected control allocation for the omnibus test.
	PExpected float64
}

// DefaultDiagnosticsConfig returns the stock thresholds.
func DefaultDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{
		SRMThreshold:  0.001,
		SuspectAlpha:  0.05,
		TopCategories: 20,
		PExpected:     0.5,
	}
}

// SRMDiagnoser searches covariate categories for the subset most
// responsible for a detected sample ratio mismatch. It is a heuristic
// triage tool: no correction is applied for the multiplicity of categories
// tested, so treat its suspects as leads, not confirmations.
type SRMDiagnoser struct {
	cfg DiagnosticsConfig
	log *logging.Logger
}

// NewSRMDiagnoser creates a diagnoser; log may be nil.
func NewSRMDiagnoser(cfg DiagnosticsConfig, log *logging.Logger) *SRMDiagnoser {
	if cfg.TopCategories <= 0 {
		cfg.TopCategories = DefaultDiagnosticsConfig().TopCategories
	}
	if cfg.PExpected <= 0 || cfg.PExpected >= 1 {
		cfg.PExpected = DefaultDiagnosticsConfig().PExpected
	}
	return &SRMDiagnoser{cfg: cfg, log: log.Child("analysis.srm_diag")}
}

// SRMDiagnostics runs the diagnoser with default thresholds and no logging.
func SRMDiagnostics(f *ab.Frame, features []string) (ab.SRMDiagnosis, error) {
	return NewSRMDiagnoser(DefaultDiagnosticsConfig(), nil).Diagnose(f, features)
}

// Diagnose runs the omnibus SRM test and, when it fires below the
// threshold, scans each candidate covariate for imbalanced categories.
// When features is nil every categorical column of the frame is examined.
//
// Categories are coerced to a finite alphabet first: missing values map to
// the MissingCategory sentinel and only the TopCategories most frequent
// values survive, the rest collapsing into OtherCategory (never reported).
// Each retained category is tested with a 2x2 chi-square (no Yates
// correction) of {category, not-category} x {control, treatment};
// degenerate tables are skipped rather than failing the call.
func (d *SRMDiagnoser) Diagnose(f *ab.Frame, features []string) (ab.SRMDiagnosis, error) {
	if features == nil {
		features = f.CategoryColumns()
	} else {
		var missing []string
		for _, name := range features {
			if _, err := f.Category(name); err != nil {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return ab.SRMDiagnosis{}, core.Validationf("features %v not present in frame", missing)
		}
	}
	d.log.Debug("running SRM diagnostics rows=%d features=%v", f.Len(), features)

	srm, err := SRMFromFrame(f, d.cfg.PExpected)
	if err != nil {
		return ab.SRMDiagnosis{}, err
	}

	diagnosis := ab.SRMDiagnosis{SRMP: srm.PValue, Suspects: []ab.SuspectRecord{}}
	if srm.PValue >= d.cfg.SRMThreshold || len(features) == 0 {
		// Short-circuit: below-threshold mismatch is not investigated.
		d.log.Debug("SRM p-value %.4g >= threshold or no features supplied; skipping suspects", srm.PValue)
		return diagnosis, nil
	}

	nControl, nTreatment := f.ArmCounts()
	groups := f.Groups()

	for _, feature := range features {
		column, _ := f.Category(feature)
		categories, counts := prepareFeature(column, d.cfg.TopCategories)

		for _, category := range categories {
			if category == ab.OtherCategory {
				continue
			}
			obsC, obsT := counts.observed(groups, category)
			if obsC+obsT == 0 {
				continue
			}

			p, expC, expT, ok := categoryImbalance(obsC, obsT, float64(nControl), float64(nTreatment))
			if !ok || math.IsNaN(p) || p >= d.cfg.SuspectAlpha {
				continue
			}

			diagnosis.Suspects = append(diagnosis.Suspects, ab.SuspectRecord{
				Feature:  feature,
				Category: category,
				PValue:   p,
				Obs:      ab.ArmValues{Control: obsC, Treatment: obsT},
				Exp:      ab.ArmValues{Control: expC, Treatment: expT},
			})
		}
	}

	sort.SliceStable(diagnosis.Suspects, func(i, j int) bool {
		return diagnosis.Suspects[i].PValue < diagnosis.Suspects[j].PValue
	})

	if len(diagnosis.Suspects) > 0 {
		distinct := map[string]struct{}{}
		for _, s := range diagnosis.Suspects {
			distinct[s.Feature] = struct{}{}
		}
		d.log.Debug("SRM diagnostics identified %d suspect categories across %d features",
			len(diagnosis.Suspects), len(distinct))
	} else {
		d.log.Debug("SRM diagnostics found no suspect categories despite SRM p-value %.4g", srm.PValue)
	}
	return diagnosis, nil
}

// featureCounts caches the coerced category of every row.
type featureCounts struct {
	coerced []string
}

func (c featureCounts) observed(groups []ab.Group, category string) (obsC, obsT float64) {
	for i, g := range groups {
		if c.coerced[i] != category {
			continue
		}
		switch g {
		case ab.Control:
			obsC++
		case ab.Treatment:
			obsT++
		}
	}
	return obsC, obsT
}

// prepareFeature coerces a covariate column to a finite category alphabet:
// missing values become the MissingCategory sentinel, the top-K most
// frequent categories are kept, and everything else collapses into
// OtherCategory. Returned categories are sorted for reproducible output.
func prepareFeature(column []string, topK int) ([]string, featureCounts) {
	coerced := make([]string, len(column))
	freq := map[string]int{}
	for i, v := range column {
		if v == "" {
			v = ab.MissingCategory
		}
		coerced[i] = v
		freq[v]++
	}

	type categoryCount struct {
		value string
		count int
	}
	ranked := make([]categoryCount, 0, len(freq))
	for v, n := range freq {
		ranked = append(ranked, categoryCount{v, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].value < ranked[j].value
	})

	kept := map[string]struct{}{}
	for i, c := range ranked {
		if i >= topK {
			break
		}
		kept[c.value] = struct{}{}
	}
	for i, v := range coerced {
		if _, ok := kept[v]; !ok {
			coerced[i] = ab.OtherCategory
		}
	}

	categories := make([]string, 0, len(kept)+1)
	for v := range kept {
		categories = append(categories, v)
	}
	if len(ranked) > topK {
		categories = append(categories, ab.OtherCategory)
	}
	sort.Strings(categories)
	return categories, featureCounts{coerced: coerced}
}

// categoryImbalance runs the 2x2 chi-square test of independence (no Yates
// correction) for one category against the rest. ok is false when the table
// is degenerate (a zero margin makes an expected cell zero).
func categoryImbalance(obsC, obsT, totalC, totalT float64) (p, expC, expT float64, ok bool) {
	notC := totalC - obsC
	notT := totalT - obsT

	total := totalC + totalT
	colCategory := obsC + obsT
	colRest := notC + notT
	if total == 0 || colCategory == 0 || colRest == 0 || totalC == 0 || totalT == 0 {
		return 0, 0, 0, false
	}

	expC = totalC * colCategory / total
	expT = totalT * colCategory / total
	expNotC := totalC * colRest / total
	expNotT := totalT * colRest / total

	chi2 := (obsC-expC)*(obsC-expC)/expC +
		(obsT-expT)*(obsT-expT)/expT +
		(notC-expNotC)*(notC-expNotC)/expNotC +
		(notT-expNotT)*(notT-expNotT)/expNotT

	return distuv.ChiSquared{K: 1}.Survival(chi2), expC, expT, true
}
