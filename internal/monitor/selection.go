package monitor

import (
	"sync"

	"github.com/Dicklesworthstone/sysmon/internal/model"
)

// Controller tracks which family backs the detail view. It stores only the
// key and resolves rows against the engine's latest snapshot on every read.
type Controller struct {
	engine *Engine

	mu      sync.RWMutex
	current model.Family
}

// NewController creates a controller selecting the CPU family.
func NewController(e *Engine) *Controller {
	return &Controller{engine: e, current: model.FamilyCPU}
}

// Select makes f the current family and notifies subscribers. Aliases
// accepted by model.ParseFamily ("mem", "GPU") are normalized first.
func (c *Controller) Select(f model.Family) error {
	if !f.Selectable() {
		parsed, err := model.ParseFamily(string(f))
		if err != nil {
			return err
		}
		f = parsed
	}
	c.mu.Lock()
	changed := c.current != f
	c.current = f
	c.mu.Unlock()

	if changed {
		c.engine.Notifier().Publish()
	}
	return nil
}

// Current returns the selected family.
func (c *Controller) Current() model.Family {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// CurrentRows returns the selected family's rows as of the latest cycle.
func (c *Controller) CurrentRows() model.Table {
	return c.engine.Rows(c.Current())
}
