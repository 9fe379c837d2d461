package validation

import (
	"fmt"

	apperrors "github.com/anime-shed/visual-pipeline-go/internal/errors"
	"github.com/anime-shed/visual-pipeline-go/pkg/models"
)

// ParamBounds defines configurable bounds for request parameter overrides
type ParamBounds struct {
	// Binarization threshold bounds (8-bit luma)
	MinBinarizeThreshold int
	MaxBinarizeThreshold int

	// Cluster target bounds
	MinClusterTarget int
	MaxClusterTarget int

	// Working-side bounds
	MinMaxSide int
	MaxMaxSide int
}

// DefaultParamBounds returns the default parameter bounds
func DefaultParamBounds() ParamBounds {
	return ParamBounds{
		MinBinarizeThreshold: 0,
		MaxBinarizeThreshold: 255,
		MinClusterTarget:     1,
		MaxClusterTarget:     64,
		MinMaxSide:           16,
		MaxMaxSide:           4096,
	}
}

// ParamsValidator handles request parameter validation logic
type ParamsValidator struct {
	bounds ParamBounds
}

// NewParamsValidator creates a new params validator with default bounds
func NewParamsValidator() *ParamsValidator {
	return &ParamsValidator{
		bounds: DefaultParamBounds(),
	}
}

// NewParamsValidatorWithBounds creates a params validator with custom bounds
func NewParamsValidatorWithBounds(bounds ParamBounds) *ParamsValidator {
	return &ParamsValidator{
		bounds: bounds,
	}
}

// ValidateRequest checks the optional overrides on an analysis request.
// Absent fields are valid; the service applies its defaults.
func (v *ParamsValidator) ValidateRequest(req models.AnalyzeRequest) error {
	if req.BinarizeThreshold != nil {
		t := *req.BinarizeThreshold
		if t < v.bounds.MinBinarizeThreshold || t > v.bounds.MaxBinarizeThreshold {
			return apperrors.NewValidationError(fmt.Sprintf(
				"binarize_threshold must be between %d and %d",
				v.bounds.MinBinarizeThreshold, v.bounds.MaxBinarizeThreshold), nil)
		}
	}

	if req.ClusterTarget != nil {
		c := *req.ClusterTarget
		if c < v.bounds.MinClusterTarget || c > v.bounds.MaxClusterTarget {
			return apperrors.NewValidationError(fmt.Sprintf(
				"cluster_target must be between %d and %d",
				v.bounds.MinClusterTarget, v.bounds.MaxClusterTarget), nil)
		}
	}

	if req.MaxSide != nil {
		s := *req.MaxSide
		if s < v.bounds.MinMaxSide || s > v.bounds.MaxMaxSide {
			return apperrors.NewValidationError(fmt.Sprintf(
				"max_side must be between %d and %d",
				v.bounds.MinMaxSide, v.bounds.MaxMaxSide), nil)
		}
	}

	return nil
}
