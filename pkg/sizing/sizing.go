// Package sizing computes the visual radius of every object in a system by
// delegating to the active view-mode strategy.
package sizing

import (
	"fmt"
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orrery/pkg/scaling"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

// Calculator computes visual sizes.
type Calculator struct {
	logger *log.Logger
}

// New creates a size calculator. A nil logger discards output.
func New(logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Calculator{logger: logger}
}

// Calculate sizes every object of sys under strategy. Objects the strategy
// cannot size, or that come back without a finite positive radius, are left out of
// the returned map and reported as warnings.
func (c *Calculator) Calculate(strategy viewmode.Strategy, sys *viewmode.System) (map[string]scaling.Result, []string) {
	sizes := make(map[string]scaling.Result, len(sys.Objects))
	var warnings []string
	for _, obj := range sys.Objects {
		if _, dup := sizes[obj.ID]; dup {
			continue
		}
		res, ok := strategy.CalculateObjectScale(obj, sys)
		if !ok || !(res.VisualRadius > 0) || math.IsInf(res.VisualRadius, 0) {
			c.logger.Warn("object skipped: no visual size", "object", obj.ID)
			warnings = append(warnings, fmt.Sprintf("object %s skipped: no visual size in %s mode", obj.ID, strategy.Mode()))
			continue
		}
		sizes[obj.ID] = res
	}
	return sizes, warnings
}
