package devicetree

import (
	"testing"

	"github.com/pkg/errors"
)

func TestChosenTruthTable(t *testing.T) {
	if !HasChosen(ChosenBTHCI) {
		t.Fatal("the transport chosen node must exist")
	}
	if HasChosen("zephyr,entropy") {
		t.Fatal("undeclared chosen node must not exist")
	}
	// Existence is compile-time; binding must not change the answer.
	if HasChosen(ChosenBTHCI) != true {
		t.Fatal("truth table must be stable")
	}
}

func TestBindOnce(t *testing.T) {
	Reset()

	type api struct{}
	if err := Bind(ChosenBTHCI, &api{}, nil); err != nil {
		t.Fatalf("first bind: %v", err)
	}
	err := Bind(ChosenBTHCI, &api{}, nil)
	if errors.Cause(err) != ErrBound {
		t.Fatalf("second bind: want ErrBound, got %v", err)
	}

	Reset()
	if err := Bind(ChosenBTHCI, &api{}, nil); err != nil {
		t.Fatalf("bind after reset: %v", err)
	}
}

func TestBindUnknownNode(t *testing.T) {
	Reset()

	err := Bind("zephyr,display", struct{}{}, nil)
	if errors.Cause(err) != ErrUnknownNode {
		t.Fatalf("want ErrUnknownNode, got %v", err)
	}
	if Chosen("zephyr,display") != nil {
		t.Fatal("rejected bind must not create a record")
	}
}

func TestChosenAndReadiness(t *testing.T) {
	Reset()

	if Chosen(ChosenBTHCI) != nil {
		t.Fatal("unbound node must resolve to nil")
	}

	data := map[string]int{"mtu": 251}
	handle := "transport-handle"
	if err := Bind(ChosenBTHCI, handle, data); err != nil {
		t.Fatal(err)
	}

	d := Chosen(ChosenBTHCI)
	if d == nil {
		t.Fatal("bound node must resolve")
	}
	if d.Name() != ChosenBTHCI {
		t.Fatalf("name: want %q, got %q", ChosenBTHCI, d.Name())
	}
	if d.API() != handle {
		t.Fatal("api handle must round-trip")
	}
	if d.Data().(map[string]int)["mtu"] != 251 {
		t.Fatal("data must round-trip")
	}
	if !d.IsReady() {
		t.Fatal("device with an api handle must be ready")
	}
}

func TestReadinessIsAPIPointerOnly(t *testing.T) {
	Reset()

	// Binding without an api handle produces a record that resolves but
	// is not ready, the state an init routine must detect and refuse.
	if err := Bind(ChosenBTHCI, nil, "cfg"); err != nil {
		t.Fatal(err)
	}
	d := Chosen(ChosenBTHCI)
	if d == nil {
		t.Fatal("bound node must resolve")
	}
	if d.IsReady() {
		t.Fatal("device without an api handle must not be ready")
	}

	var missing *Device
	if missing.IsReady() {
		t.Fatal("nil device must not be ready")
	}
}

func TestStaticProps(t *testing.T) {
	if !NodeHasProp("arm,v7m-nvic", "arm,num-irq-priority-bits") {
		t.Fatal("nvic priority-bits property must be declared")
	}
	if got := PropOr("arm,v7m-nvic", "arm,num-irq-priority-bits", 0); got != 4 {
		t.Fatalf("priority bits: want 4, got %d", got)
	}

	// Known node, undeclared property: default wins.
	if NodeHasProp("hfxo", "startup-time-us") {
		t.Fatal("hfxo startup time must not be declared")
	}
	if got := PropOr("hfxo", "startup-time-us", 1500); got != 1500 {
		t.Fatalf("want default 1500, got %d", got)
	}

	// Unknown node entirely.
	if NodeHasProp("radio", "dfe-supported") {
		t.Fatal("unknown node must have no properties")
	}
	if got := PropOr("radio", "dfe-supported", -1); got != -1 {
		t.Fatalf("want default -1, got %d", got)
	}
}
