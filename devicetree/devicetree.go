// Package devicetree answers the static configuration queries a
// controller build normally resolves from a generated device tree. The
// embedding environment declares exactly one transport device, so there
// is no tree to walk: chosen-node existence and node properties come
// from fixed tables, and the one device record is bound at startup by
// the port runtime.
package devicetree

import (
	"sync"

	"github.com/pkg/errors"
)

// ChosenBTHCI is the chosen-node label the stack resolves its HCI
// transport through.
const ChosenBTHCI = "zephyr,bt-hci"

var (
	// ErrUnknownNode rejects binding a label outside the chosen table.
	ErrUnknownNode = errors.New("devicetree: unknown node")

	// ErrBound rejects a second bind of the same node.
	ErrBound = errors.New("devicetree: node already bound")
)

// chosenExists is the HasChosen truth table. Only the transport node is
// declared; every other label answers false.
var chosenExists = map[string]bool{
	ChosenBTHCI: true,
}

// props is the static property table. Nodes listed without a property
// answer false/default for it, matching a build with no tree behind it.
var props = map[string]map[string]int{
	"arm,v7m-nvic": {"arm,num-irq-priority-bits": 4},
	"hfxo":         {},
}

// Device is the one static record a chosen node resolves to. The api
// handle is whatever the binder supplied, for the transport node an HCI
// transport.
type Device struct {
	name string
	api  interface{}
	data interface{}
}

func (d *Device) Name() string      { return d.name }
func (d *Device) API() interface{}  { return d.api }
func (d *Device) Data() interface{} { return d.data }

// IsReady reports whether the device can be handed to an init routine.
// Readiness is the api handle being non-nil, nothing else: the answer
// must be right before any initialization code has run, so it never
// consults mutable driver state.
func (d *Device) IsReady() bool { return d != nil && d.api != nil }

var reg struct {
	mu      sync.Mutex
	devices map[string]*Device
}

// Bind attaches api and data to a chosen node. Each node binds once;
// binding again is a configuration error, not a hot swap.
func Bind(node string, api, data interface{}) error {
	if !chosenExists[node] {
		return errors.Wrap(ErrUnknownNode, node)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.devices == nil {
		reg.devices = make(map[string]*Device)
	}
	if _, ok := reg.devices[node]; ok {
		return errors.Wrap(ErrBound, node)
	}
	reg.devices[node] = &Device{name: node, api: api, data: data}
	return nil
}

// HasChosen reports whether the build declares the chosen node at all.
// Independent of binding: the truth table is fixed.
func HasChosen(node string) bool { return chosenExists[node] }

// Chosen returns the device record bound to node, or nil when the node
// is undeclared or not yet bound.
func Chosen(node string) *Device {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.devices[node]
}

// NodeHasProp reports whether the static table declares prop on node.
func NodeHasProp(node, prop string) bool {
	p, ok := props[node]
	if !ok {
		return false
	}
	_, ok = p[prop]
	return ok
}

// PropOr returns prop's table value, or def when node or prop is not
// declared.
func PropOr(node, prop string, def int) int {
	p, ok := props[node]
	if !ok {
		return def
	}
	v, ok := p[prop]
	if !ok {
		return def
	}
	return v
}

// Reset drops all bindings. The port runtime calls it on Shutdown so a
// later Init can bind fresh handles.
func Reset() {
	reg.mu.Lock()
	reg.devices = nil
	reg.mu.Unlock()
}
