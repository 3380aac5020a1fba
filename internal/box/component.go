package box

import (
	"errors"
	"sync"

	"github.com/zjrosen/cachebox/internal/log"
)

// ErrAlreadyStarted is returned when starting a component twice.
var ErrAlreadyStarted = errors.New("component already started")

// Component is the host lifecycle adapter: it creates one box when its
// host starts and destroys it when the host ends, so the host never has
// to write creation and destruction of the box itself.
type Component struct {
	cfg Config

	mu  sync.Mutex
	box *Box
}

// NewComponent creates an adapter that will build boxes from cfg.
func NewComponent(cfg Config) *Component {
	return &Component{cfg: cfg}
}

// Start creates the component's box. Call once at host start.
func (c *Component) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.box != nil {
		return ErrAlreadyStarted
	}
	b, err := New(c.cfg)
	if err != nil {
		return err
	}
	c.box = b
	log.Debug(log.CatBox, "Component started", "box", b.DebugID())
	return nil
}

// Box returns the live box, or nil outside the Start/Stop window.
// Use this for all loading and instance processing.
func (c *Component) Box() *Box {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.box
}

// Stop tears the box down. Call once at host end; calling it again, or
// without a prior Start, is a safe no-op.
func (c *Component) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.box == nil {
		return
	}
	log.Debug(log.CatBox, "Component stopping", "box", c.box.DebugID())
	c.box.DestroyBox()
	c.box = nil
}
