package ports

// CovariateProvider produces one numeric covariate value per user
// identifier, used by CUPED/CUPAC adjustments. Implementations must return
// a finite value for every requested identifier and error when one is
// unknown; callers treat a missing entry the same as an error.
type CovariateProvider interface {
	GetCovariate(userIDs []string) (map[string]float64, error)
}
