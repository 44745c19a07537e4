package junction

// ControllerBuilder provides a fluent interface for configuring a controller
type ControllerBuilder interface {
	MinGreen(seconds int) ControllerBuilder
	MaxGreen(seconds int) ControllerBuilder
	BaseGreen(seconds int) ControllerBuilder
	CycleBudget(seconds int) ControllerBuilder
	LaneOrder(lanes ...Lane) ControllerBuilder

	Observe(observer Observer) ControllerBuilder

	Config() Config
	Build() (*Controller, error)
}

type controllerBuilder struct {
	config    Config
	observers []Observer
}

// NewBuilder creates a builder seeded with DefaultConfig
func NewBuilder() ControllerBuilder {
	return &controllerBuilder{config: DefaultConfig()}
}

// MinGreen sets the green time floor
func (b *controllerBuilder) MinGreen(seconds int) ControllerBuilder {
	b.config.MinGreen = seconds
	return b
}

// MaxGreen sets the green time ceiling
func (b *controllerBuilder) MaxGreen(seconds int) ControllerBuilder {
	b.config.MaxGreen = seconds
	return b
}

// BaseGreen sets the green time used while the junction is empty
func (b *controllerBuilder) BaseGreen(seconds int) ControllerBuilder {
	b.config.BaseGreen = seconds
	return b
}

// CycleBudget sets the number of seconds shared out proportionally
func (b *controllerBuilder) CycleBudget(seconds int) ControllerBuilder {
	b.config.CycleBudget = seconds
	return b
}

// LaneOrder sets the rotation sequence
func (b *controllerBuilder) LaneOrder(lanes ...Lane) ControllerBuilder {
	b.config.LaneOrder = append([]Lane(nil), lanes...)
	return b
}

// Observe registers an observer on the built controller
func (b *controllerBuilder) Observe(observer Observer) ControllerBuilder {
	b.observers = append(b.observers, observer)
	return b
}

// Config returns the configuration collected so far
func (b *controllerBuilder) Config() Config {
	cfg := b.config
	cfg.LaneOrder = append([]Lane(nil), b.config.LaneOrder...)
	return cfg
}

// Build validates the configuration and creates the controller
func (b *controllerBuilder) Build() (*Controller, error) {
	c, err := NewController(b.Config())
	if err != nil {
		return nil, err
	}
	for _, o := range b.observers {
		c.AddObserver(o)
	}
	return c, nil
}
