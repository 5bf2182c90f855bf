// bleport-diag exercises the port layer inside a live process: the
// selftest command runs a scenario battery against the real primitives,
// and the remaining commands poke at the entropy source, a bond store
// file and the compiled crypto backend. Runtime configuration exists
// only here; the shim itself is configured at compile time.
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/mcuadros/go-defaults"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"

	"github.com/rigado/bleport"
	"github.com/rigado/bleport/bond"
	"github.com/rigado/bleport/btcrypto"
	"github.com/rigado/bleport/entropy"
	"github.com/rigado/bleport/irq"
	"github.com/rigado/bleport/kernel"
	"github.com/rigado/bleport/port"
	"github.com/rigado/bleport/secrets"
	"github.com/rigado/bleport/sliceops"
)

type diagConfig struct {
	StorePath  string `yaml:"store_path" default:""`
	LogLevel   string `yaml:"log_level" default:"info"`
	WorkBudget int    `yaml:"work_budget" default:"16"`
}

func loadConfig(path string) (*diagConfig, error) {
	cfg := new(diagConfig)
	defaults.SetDefaults(cfg)

	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

var (
	passMark = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
)

func main() {
	app := cli.NewApp()
	app.Name = "bleport-diag"
	app.Usage = "drive the RTOS shim primitives from the command line"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "optional YAML config file"},
	}
	app.Commands = []cli.Command{
		{
			Name:   "selftest",
			Usage:  "run the scenario battery against live primitives",
			Action: runSelftest,
		},
		{
			Name:  "entropy",
			Usage: "hex-dump random bytes from the build-selected source",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "n", Value: 16, Usage: "number of bytes"},
			},
			Action: runEntropy,
		},
		{
			Name:  "bonds",
			Usage: "list bond entries held in a store file",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "store", Usage: "store file (overrides config store_path)"},
			},
			Action: runBonds,
		},
		{
			Name:   "crypto",
			Usage:  "report the compiled crypto backend",
			Action: runCrypto,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type scenario struct {
	name string
	run  func() error
}

func runSelftest(c *cli.Context) error {
	cfg, err := loadConfig(c.GlobalString("config"))
	if err != nil {
		return err
	}
	if err := bleport.SetLogLevel(cfg.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}

	if err := port.Init(bleport.OptWorkBudget(cfg.WorkBudget)); err != nil {
		return errors.Wrap(err, "port init")
	}
	defer port.Shutdown()

	scenarios := []scenario{
		{"mutex nesting", mutexNesting},
		{"fifo/lifo order", queueOrder},
		{"slab exhaust and reuse", slabExhaustReuse},
		{"timeout rounding", timeoutRounding},
		{"irq counters", irqCounters},
		{"irq source 7 end to end", irqEndToEnd},
		{"bond store round trip", bondRoundTrip},
	}

	failed := 0
	for _, sc := range scenarios {
		if err := sc.run(); err != nil {
			failed++
			fmt.Printf("%-28s %s  %v\n", sc.name, failMark("FAIL"), err)
			continue
		}
		fmt.Printf("%-28s %s\n", sc.name, passMark("PASS"))
	}

	fmt.Printf("\n%d scenarios, %d passed, %d failed\n",
		len(scenarios), len(scenarios)-failed, failed)
	if failed > 0 {
		return errors.Errorf("%d of %d scenarios failed", failed, len(scenarios))
	}
	return nil
}

func mutexNesting() error {
	var m kernel.Mutex
	m.Init()

	if err := m.Lock(kernel.NoWait); err != nil {
		return errors.Wrap(err, "first lock")
	}
	if err := m.Lock(kernel.NoWait); err != nil {
		return errors.Wrap(err, "recursive lock")
	}
	if n := m.HoldCount(); n != 2 {
		return errors.Errorf("hold count after two locks: %d", n)
	}
	if err := m.Unlock(); err != nil {
		return err
	}
	if n := m.HoldCount(); n != 1 {
		return errors.Errorf("inner unlock released everything: count %d", n)
	}
	if err := m.Unlock(); err != nil {
		return err
	}
	if err := m.Unlock(); err != kernel.ErrNotOwner {
		return errors.Errorf("unlock of free mutex: want ErrNotOwner, got %v", err)
	}
	return nil
}

type diagItem struct {
	kernel.Link
	n int
}

func queueOrder() error {
	var f kernel.FIFO
	f.Init()
	items := [3]diagItem{{n: 1}, {n: 2}, {n: 3}}
	f.Put(&items[0])
	f.Put(&items[1])
	f.Put(&items[2])

	for want := 1; want <= 3; want++ {
		e, err := f.Get(kernel.NoWait)
		if err != nil {
			return err
		}
		if got := e.(*diagItem).n; got != want {
			return errors.Errorf("fifo order: want %d, got %d", want, got)
		}
	}

	var l kernel.LIFO
	l.Init()
	more := [3]diagItem{{n: 1}, {n: 2}, {n: 3}}
	l.Put(&more[0])
	l.Put(&more[1])
	l.Put(&more[2])

	for want := 3; want >= 1; want-- {
		e, err := l.Get(kernel.NoWait)
		if err != nil {
			return err
		}
		if got := e.(*diagItem).n; got != want {
			return errors.Errorf("lifo order: want %d, got %d", want, got)
		}
	}

	front := diagItem{n: 0}
	f.Put(&items[0])
	f.PutFront(&front)
	e, err := f.Get(kernel.NoWait)
	if err != nil {
		return err
	}
	if e.(*diagItem).n != 0 {
		return errors.New("put-front element did not come out first")
	}
	return nil
}

func slabExhaustReuse() error {
	var s kernel.MemSlab
	if err := s.Init(32, 2, 8); err != nil {
		return err
	}

	b1, err := s.Alloc(kernel.NoWait)
	if err != nil {
		return err
	}
	if _, err = s.Alloc(kernel.NoWait); err != nil {
		return err
	}
	if _, err = s.Alloc(kernel.NoWait); err != kernel.ErrExhausted {
		return errors.Errorf("third alloc of a 2-block slab: want ErrExhausted, got %v", err)
	}

	if err := s.Free(b1); err != nil {
		return err
	}
	b3, err := s.Alloc(kernel.NoWait)
	if err != nil {
		return errors.Wrap(err, "alloc after free")
	}
	if &b3[0] != &b1[0] {
		return errors.New("freed block was not reused")
	}
	return nil
}

func timeoutRounding() error {
	if to := kernel.Duration(1500 * time.Microsecond); to.Millis() != 2 {
		return errors.Errorf("1.5ms: want 2 ticks, got %d", to.Millis())
	}
	if to := kernel.Duration(time.Microsecond); to.Millis() != 1 {
		return errors.Errorf("1us must round up to one tick, got %d", to.Millis())
	}
	if !kernel.Duration(0).IsNoWait() {
		return errors.New("zero duration must be no-wait")
	}
	if !kernel.Duration(-time.Second).IsNoWait() {
		return errors.New("negative duration must be no-wait")
	}
	if !kernel.Ticks(^uint32(0)).IsForever() {
		return errors.New("all-ones tick count must be the forever sentinel")
	}
	return nil
}

func irqCounters() error {
	before := irq.GetStats()
	if handled := irq.Dispatch(9); handled {
		return errors.New("unregistered source reported handled")
	}
	after := irq.GetStats()

	if after.Dispatched != before.Dispatched+1 {
		return errors.New("dispatch counter did not advance")
	}
	if after.Unhandled != before.Unhandled+1 {
		return errors.New("unhandled counter did not advance")
	}
	if after.UnhandledMask&(1<<9) == 0 {
		return errors.New("unhandled mask missing bit 9")
	}
	return nil
}

func irqEndToEnd() error {
	var rx kernel.FIFO
	rx.Init()
	frame := diagItem{n: 7}

	err := irq.Connect(7, 1, func(arg interface{}) {
		arg.(*kernel.FIFO).Put(&frame)
	}, &rx, 0)
	if err != nil {
		return err
	}
	irq.Enable(7)
	defer irq.Disable(7)

	irq.Pend(7)
	if !port.Poll() {
		return errors.New("poll with a pended source reported no progress")
	}

	e, err := rx.Get(kernel.NoWait)
	if err != nil {
		return errors.Wrap(err, "handler output")
	}
	if e.(*diagItem).n != 7 {
		return errors.New("wrong element out of the handler queue")
	}
	return nil
}

func bondRoundTrip() error {
	dir, err := os.MkdirTemp("", "bleport-diag")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "bonds.json")

	addr, err := bleport.NewPeerAddr("e7:12:34:56:78:9a", bleport.AddrTypeRandom)
	if err != nil {
		return err
	}
	material := []byte{0xde, 0xad, 0xbe, 0xef}

	writer := bond.NewBridge(secrets.NewFileStore(path), nil, 0)
	if err := writer.StoreKeys(0, addr, material); err != nil {
		return err
	}

	// A fresh store and bridge must see the bond purely from the file.
	reader := bond.NewBridge(secrets.NewFileStore(path), nil, 0)
	n, err := reader.LoadAll()
	if err != nil {
		return err
	}
	if n != 1 {
		return errors.Errorf("want 1 bond out of the file, got %d", n)
	}
	k, err := reader.Registry().Find(addr)
	if err != nil {
		return err
	}
	if !bytes.Equal(k.Material, material) {
		return errors.Errorf("material round trip: want %x, got %x", material, k.Material)
	}

	if err := reader.DeleteKeys(0, addr); err != nil {
		return err
	}
	third := bond.NewBridge(secrets.NewFileStore(path), nil, 0)
	if n, err = third.LoadAll(); err != nil {
		return err
	}
	if n != 0 {
		return errors.Errorf("deleted bond still loads: %d", n)
	}
	return nil
}

func runEntropy(c *cli.Context) error {
	n := c.Int("n")
	if n <= 0 || n > 4096 {
		return errors.Errorf("byte count %d out of range (1..4096)", n)
	}

	buf := make([]byte, n)
	if err := entropy.Read(buf); err != nil {
		return errors.Wrap(err, "read entropy")
	}

	fmt.Printf("source: %s\n", entropy.Source())
	fmt.Print(hex.Dump(buf))
	return nil
}

func runBonds(c *cli.Context) error {
	cfg, err := loadConfig(c.GlobalString("config"))
	if err != nil {
		return err
	}
	path := c.String("store")
	if path == "" {
		path = cfg.StorePath
	}
	if path == "" {
		return errors.New("no store file: pass --store or set store_path in the config")
	}

	br := bond.NewBridge(secrets.NewFileStore(path), nil, 0)
	n, err := br.LoadAll()
	if err != nil {
		return err
	}

	fmt.Printf("%d bond(s) in %s\n", n, path)
	br.Registry().Range(func(k *bond.Keys) bool {
		fmt.Printf("  %s  id=%d  %d key bytes\n", k.Addr, k.ID, len(k.Material))
		return true
	})
	return nil
}

// RFC 4493 example 2, flipped to the little-endian convention AESCMAC
// speaks.
var cmacVector = struct {
	key, msg, mac string
}{
	key: "2b7e151628aed2a6abf7158809cf4f3c",
	msg: "6bc1bee22e409f96e93d7e117393172a",
	mac: "070a16b46b4d4144f79bdd9dd04a287c",
}

func runCrypto(c *cli.Context) error {
	if !btcrypto.Available() {
		fmt.Println("crypto backend: stubs (build without bleport_crypto)")
		fmt.Println("pairing procedures report ErrNotImplemented")
		return nil
	}

	fmt.Println("crypto backend: real (bleport_crypto)")

	key, _ := hex.DecodeString(cmacVector.key)
	msg, _ := hex.DecodeString(cmacVector.msg)
	want, _ := hex.DecodeString(cmacVector.mac)

	got, err := btcrypto.AESCMAC(sliceops.SwapBuf(key), sliceops.SwapBuf(msg))
	if err != nil {
		return errors.Wrap(err, "cmac")
	}
	if !bytes.Equal(sliceops.SwapBuf(got), want) {
		return errors.Errorf("cmac vector: want %x, got %x", want, got)
	}
	fmt.Printf("aes-cmac vector %s\n", passMark("PASS"))
	return nil
}
