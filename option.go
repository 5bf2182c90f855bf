package bleport

// PortOption is an interface which the port runtime should implement to
// allow using configuration options
type PortOption interface {
	SetSecretStore(SecretStore) error
	SetTransport(Transport) error
	SetErrorHandler(handler func(error)) error
	SetAnnouncedClock(bool) error
	SetWorkBudget(int) error
	SetMaxBonds(int) error
}

// An Option is a configuration function, which configures the port runtime.
type Option func(PortOption) error

// OptSecretStore installs the host-side store that bond key material is
// persisted through.
func OptSecretStore(s SecretStore) Option {
	return func(opt PortOption) error {
		opt.SetSecretStore(s)
		return nil
	}
}

// OptTransport binds the controller transport handle resolved by the
// pseudo device table.
func OptTransport(t Transport) Option {
	return func(opt PortOption) error {
		opt.SetTransport(t)
		return nil
	}
}

// OptErrorHandler sets error handler
func OptErrorHandler(handler func(error)) Option {
	return func(opt PortOption) error {
		opt.SetErrorHandler(handler)
		return nil
	}
}

// OptAnnouncedClock selects the externally announced tick source instead
// of the wall clock. Ticks then advance only through Tick.
func OptAnnouncedClock() Option {
	return func(opt PortOption) error {
		opt.SetAnnouncedClock(true)
		return nil
	}
}

// OptWorkBudget caps the number of work items drained per poll pass.
func OptWorkBudget(n int) Option {
	return func(opt PortOption) error {
		opt.SetWorkBudget(n)
		return nil
	}
}

// OptMaxBonds overrides the bonded-peer capacity used by the settings
// bridge enumeration.
func OptMaxBonds(n int) Option {
	return func(opt PortOption) error {
		opt.SetMaxBonds(n)
		return nil
	}
}
