// Package port stitches the shim together into one process-wide
// runtime. Init brings the pieces up in dependency order, Poll is the
// cooperative embedding loop's entry point, and Shutdown unwinds
// everything so a process can bring the port up again cleanly.
package port

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/rigado/bleport"
	"github.com/rigado/bleport/bond"
	"github.com/rigado/bleport/devicetree"
	"github.com/rigado/bleport/irq"
	"github.com/rigado/bleport/kernel"
)

// DefaultWorkBudget caps handlers run per poll pass so one busy work
// queue cannot starve the embedding loop.
const DefaultWorkBudget = 16

var (
	// ErrAlreadyInit refuses a second Init without a Shutdown between.
	ErrAlreadyInit = errors.New("port: already initialized")
)

// config collects option values. It is the PortOption the root package's
// Opt constructors configure.
type config struct {
	store     bleport.SecretStore
	transport bleport.Transport
	onError   func(error)
	announced bool
	budget    int
	maxBonds  int
}

func (c *config) SetSecretStore(s bleport.SecretStore) error { c.store = s; return nil }
func (c *config) SetTransport(t bleport.Transport) error     { c.transport = t; return nil }
func (c *config) SetErrorHandler(h func(error)) error        { c.onError = h; return nil }
func (c *config) SetAnnouncedClock(on bool) error            { c.announced = on; return nil }
func (c *config) SetWorkBudget(n int) error                  { c.budget = n; return nil }
func (c *config) SetMaxBonds(n int) error                    { c.maxBonds = n; return nil }

var rt struct {
	mu     sync.Mutex
	cfg    config
	bridge *bond.Bridge

	ready     atomic.Bool
	announced atomic.Bool
	budget    atomic.Int32

	workerStop chan struct{}
	workerDone chan struct{}
}

var (
	loggerOnce sync.Once
	logger     bleport.Logger
)

func log() bleport.Logger {
	loggerOnce.Do(func() {
		logger = bleport.GetLogger().ChildLogger(map[string]interface{}{"pkg": "port"})
	})
	return logger
}

// Init brings the port up: interrupt table first so no stale source can
// fire into fresh state, then the clock and kernel registries, then the
// transport binding, then bonds out of the secret store. Only a
// completed Init marks the port ready; a second Init without Shutdown is
// refused.
func Init(opts ...bleport.Option) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.ready.Load() {
		return ErrAlreadyInit
	}

	cfg := config{
		onError: bleport.LoggingErrorHandler,
		budget:  DefaultWorkBudget,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return errors.Wrap(err, "apply option")
		}
	}

	irq.Reset()
	kernel.Reset()
	kernel.SetAnnouncedClock(cfg.announced)

	bound := false
	if cfg.transport != nil {
		if err := devicetree.Bind(devicetree.ChosenBTHCI, cfg.transport, nil); err != nil {
			return errors.Wrap(err, "bind transport")
		}
		bound = true
		if dev := devicetree.Chosen(devicetree.ChosenBTHCI); !dev.IsReady() {
			devicetree.Reset()
			return errors.New("port: transport bound but not ready")
		}
	}

	bridge := bond.NewBridge(cfg.store, nil, cfg.maxBonds)
	if cfg.store != nil {
		if _, err := bridge.LoadAll(); err != nil {
			if bound {
				devicetree.Reset()
			}
			return errors.Wrap(err, "load bonds")
		}
	}

	if kernel.ThreadBackend {
		startWorker(cfg.budget)
	}

	rt.cfg = cfg
	rt.bridge = bridge
	rt.announced.Store(cfg.announced)
	rt.budget.Store(int32(cfg.budget))
	rt.ready.Store(true)

	log().Infof("port up, transport=%v bonds=%d", cfg.transport, bridge.Registry().Len())
	return nil
}

// Shutdown unwinds Init: sources gated off first so nothing dispatches
// into dying state, then the worker, then the registries and bindings.
// Safe to call when the port was never initialized.
func Shutdown() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if !rt.ready.Load() {
		return
	}
	rt.ready.Store(false)

	for src := 0; src < irq.TableSize; src++ {
		irq.Disable(src)
	}
	stopWorker()
	irq.Reset()
	kernel.Reset()
	devicetree.Reset()

	if rt.cfg.transport != nil {
		if err := rt.cfg.transport.Close(); err != nil {
			rt.cfg.onError(errors.Wrap(err, "close transport"))
		}
	}

	rt.bridge = nil
	rt.cfg = config{}
	log().Info("port down")
}

// Poll is the cooperative embedding loop's entry: drain pended interrupt
// sources, expire timers, then run queued work within the budget.
// Reports whether any of the three made progress, so an embedder can
// sleep when it returns false.
func Poll() bool {
	if !rt.ready.Load() {
		return false
	}

	n := irq.DispatchPending()
	n += kernel.ProcessTimers()
	n += kernel.ProcessWork(int(rt.budget.Load()))
	return n > 0
}

// Tick advances the announced tick source by n. Ignored unless the port
// was initialized with the announced clock; on the wall clock, time
// advances by itself.
func Tick(n uint32) {
	if !rt.announced.Load() {
		return
	}
	kernel.AnnounceTick(n)
}

// Ready reports whether Init completed and Shutdown has not run.
func Ready() bool { return rt.ready.Load() }

// Bridge exposes the bond persistence bridge, nil before Init.
func Bridge() *bond.Bridge {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.bridge
}

// startWorker runs the preemptive backend's processing goroutine. The
// cooperative backend never calls it: Poll is the pump there.
func startWorker(budget int) {
	rt.workerStop = make(chan struct{})
	rt.workerDone = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			// Bounded wait so stop is noticed without a work signal.
			_ = kernel.WaitForWork(kernel.Msec(100))
			kernel.ProcessTimers()
			kernel.ProcessWork(budget)
		}
	}(rt.workerStop, rt.workerDone)
}

func stopWorker() {
	if rt.workerStop == nil {
		return
	}
	close(rt.workerStop)
	<-rt.workerDone
	rt.workerStop = nil
	rt.workerDone = nil
}
