package sampler

import (
	"context"
	"errors"

	"github.com/Dicklesworthstone/sysmon/internal/model"
)

// ErrDisabled is returned by samplers that never produce data.
var ErrDisabled = errors.New("sampler disabled")

// Network is a placeholder for interface symmetry; it never produces a sample.
type Network struct{}

func (Network) Family() model.Family { return model.FamilyNetwork }

func (Network) Sample(context.Context, bool) (Reading, error) {
	return Reading{}, ErrDisabled
}
