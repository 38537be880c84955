package health

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var ErrCheckFailed = errors.New("health: check failed")

// Err returns nil for a healthy response, otherwise ErrCheckFailed joined
// with one error per failing check in name order.
func (r *Response) Err() error {
	if r.Status == StatusHealthy {
		return nil
	}
	errs := []error{ErrCheckFailed}
	for _, name := range slices.Sorted(maps.Keys(r.Checks)) {
		if c := r.Checks[name]; c.Status == StatusUnhealthy {
			errs = append(errs, fmt.Errorf("%s: %s", name, c.Error))
		}
	}
	return errors.Join(errs...)
}
