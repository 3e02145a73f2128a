//go:build !tinygo

package pac

import (
	"reflect"
	"strings"
	"sync"
	"testing"

	"cherry/debug"
	"cherry/internal/mmio"
)

// memBus is a plain word-addressed memory for register tests.
type memBus struct {
	mu     sync.Mutex
	mem    map[uintptr]uint32
	widths map[uintptr]uint8
	loads  int
	stores int
}

func newMemBus() *memBus {
	return &memBus{mem: map[uintptr]uint32{}, widths: map[uintptr]uint8{}}
}

func (b *memBus) Load(addr uintptr, width uint8) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	b.widths[addr] = width
	return b.mem[addr]
}

func (b *memBus) Store(addr uintptr, width uint8, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stores++
	b.widths[addr] = width
	b.mem[addr] = v
}

func (b *memBus) ReadCSR(uint16) uint32              { return 0 }
func (b *memBus) SetCSRBits(uint16, uint32) uint32   { return 0 }
func (b *memBus) ClearCSRBits(uint16, uint32) uint32 { return 0 }

func resetTaken() {
	claimed.Store(0)
}

func TestTakeOnlyOnce(t *testing.T) {
	resetTaken()
	defer resetTaken()

	g, ok := TakeGPIOA()
	if !ok || g == nil {
		t.Fatalf("first TakeGPIOA should succeed")
	}
	for i := 0; i < 3; i++ {
		if again, ok := TakeGPIOA(); ok || again != nil {
			t.Fatalf("TakeGPIOA call %d should report unavailable", i+2)
		}
	}

	// Other blocks are unaffected.
	if _, ok := TakeUART1(); !ok {
		t.Errorf("TakeUART1 should succeed independently of GPIOA")
	}
	if _, ok := TakeTIMER1(); !ok {
		t.Errorf("TakeTIMER1 should succeed independently of GPIOA")
	}
}

func TestConjureDoesNotClaim(t *testing.T) {
	resetTaken()
	defer resetTaken()

	for i := 0; i < 5; i++ {
		if ConjureUART1() == nil {
			t.Fatalf("ConjureUART1 must always succeed")
		}
	}
	if _, ok := TakeUART1(); !ok {
		t.Fatalf("TakeUART1 should still succeed after conjuring")
	}
	if ConjureUART1() == nil {
		t.Fatalf("ConjureUART1 must succeed after the block was taken")
	}
	if _, ok := TakeUART1(); ok {
		t.Fatalf("second TakeUART1 should fail")
	}
}

func TestConcurrentTakeHasOneWinner(t *testing.T) {
	resetTaken()
	defer resetTaken()

	const callers = 32
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if i%2 == 0 {
				_ = ConjureTIMER1()
			}
			if _, ok := TakeTIMER1(); ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful take, got %d", wins)
	}
}

func TestTakeAllIsAllOrNothing(t *testing.T) {
	resetTaken()
	defer resetTaken()

	if _, ok := TakeUART1(); !ok {
		t.Fatalf("TakeUART1 failed")
	}
	if p, ok := Take(); ok || p != nil {
		t.Fatalf("Take should fail while UART1 is owned")
	}
	// The failed Take must not have kept GPIOA.
	if _, ok := TakeGPIOA(); !ok {
		t.Fatalf("GPIOA should still be available after a failed Take")
	}

	if got := claimed.Load(); got != 1<<BlockUART1|1<<BlockGPIOA {
		t.Fatalf("claimed bits %#b after the failed Take", got)
	}

	resetTaken()
	p, ok := Take()
	if !ok || p.GPIOA == nil || p.UART1 == nil || p.TIMER1 == nil {
		t.Fatalf("Take on a fresh chip should return every block")
	}
	if _, ok := TakeGPIOA(); ok {
		t.Errorf("GPIOA should be owned by the Peripherals value")
	}
}

func TestTakeAllNeverStrandsASingleTake(t *testing.T) {
	// With UART1 owned, Take must fail without ever holding GPIOA, so a
	// racing TakeGPIOA always wins.
	for i := 0; i < 2000; i++ {
		resetTaken()
		if _, ok := TakeUART1(); !ok {
			t.Fatalf("TakeUART1 failed")
		}
		var (
			wg     sync.WaitGroup
			allOK  bool
			gpioOK bool
		)
		start := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, allOK = Take()
		}()
		go func() {
			defer wg.Done()
			<-start
			_, gpioOK = TakeGPIOA()
		}()
		close(start)
		wg.Wait()

		if allOK {
			t.Fatalf("iteration %d: Take succeeded while UART1 was owned", i)
		}
		if !gpioOK {
			t.Fatalf("iteration %d: TakeGPIOA was refused by a failing Take", i)
		}
	}
	resetTaken()
}

func TestTakeAllRacesSingleTakes(t *testing.T) {
	for i := 0; i < 500; i++ {
		resetTaken()
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allOK   bool
			singles int
		)
		start := make(chan struct{})
		wg.Add(4)
		go func() {
			defer wg.Done()
			<-start
			_, ok := Take()
			mu.Lock()
			allOK = ok
			mu.Unlock()
		}()
		for _, takeOne := range []func() bool{
			func() bool { _, ok := TakeGPIOA(); return ok },
			func() bool { _, ok := TakeUART1(); return ok },
			func() bool { _, ok := TakeTIMER1(); return ok },
		} {
			go func(takeOne func() bool) {
				defer wg.Done()
				<-start
				if takeOne() {
					mu.Lock()
					singles++
					mu.Unlock()
				}
			}(takeOne)
		}
		close(start)
		wg.Wait()

		switch {
		case allOK && singles != 0:
			t.Fatalf("iteration %d: Take and %d single takes both won", i, singles)
		case !allOK && singles != 3:
			t.Fatalf("iteration %d: Take lost but only %d of 3 single takes won", i, singles)
		}
		if claimed.Load() != allBlocks {
			t.Fatalf("iteration %d: claimed bits %#b", i, claimed.Load())
		}
	}
	resetTaken()
}

func TestTakeRecordsEvents(t *testing.T) {
	resetTaken()
	defer resetTaken()
	debug.Clear()

	TakeGPIOA()
	TakeGPIOA()
	ConjureGPIOA()

	events := debug.Events()
	want := []uint8{debug.EvtTake, debug.EvtTakeFailed, debug.EvtConjure}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), events)
	}
	for i, kind := range want {
		if events[i].Kind != kind || events[i].A != BlockGPIOA {
			t.Errorf("event %d: expected kind %d for GPIOA, got %+v", i, kind, events[i])
		}
	}
}

func TestConjuredBlocksUseUnsafeRegisters(t *testing.T) {
	blocks := []struct {
		name  string
		block any
	}{
		{"GPIOA", ConjureGPIOA()},
		{"UART1", ConjureUART1()},
		{"TIMER1", ConjureTIMER1()},
	}
	for _, b := range blocks {
		typ := reflect.TypeOf(b.block).Elem()
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if f.Anonymous {
				continue
			}
			if !strings.HasPrefix(f.Type.Name(), "Unsafe") {
				t.Errorf("conjured %s.%s has type %s", b.name, f.Name, f.Type.Name())
			}
		}
	}

	// Taken blocks keep the owned register types.
	resetTaken()
	defer resetTaken()
	p, ok := Take()
	if !ok {
		t.Fatalf("Take failed")
	}
	var _ RW[uint32] = p.GPIOA.DIR
	var _ UnsafeRW[uint32] = ConjureGPIOA().DIR
	for _, block := range []any{p.GPIOA, p.UART1, p.TIMER1} {
		typ := reflect.TypeOf(block).Elem()
		for i := 0; i < typ.NumField(); i++ {
			if f := typ.Field(i); !f.Anonymous && strings.HasPrefix(f.Type.Name(), "Unsafe") {
				t.Errorf("taken %s.%s has type %s", typ.Name(), f.Name, f.Type.Name())
			}
		}
	}
}

func TestConsumeTwicePanics(t *testing.T) {
	g := ConjureGPIOA()
	g.Consume()
	if !g.Moved() {
		t.Fatalf("block should report moved")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("second Consume should panic")
		}
	}()
	g.Consume()
}

func TestRegisterAccess(t *testing.T) {
	bus := newMemBus()
	detach := mmio.Attach(bus)
	defer detach()

	g := ConjureGPIOA()
	g.DIR.Write(0x0000_00F0)
	g.DIR.SetBits(0x1)
	g.DIR.ClearBits(0x10)
	if got := g.DIR.Read(); got != 0xE1 {
		t.Fatalf("DIR: expected 0xE1, got %#x", got)
	}
	g.DIR.Modify(func(v uint32) uint32 { return v << 4 })
	if got := bus.mem[GPIOABase+GPIOADir]; got != 0xE10 {
		t.Errorf("Modify: expected 0xE10 in memory, got %#x", got)
	}
	if !g.DIR.HasBits(0x210) || g.DIR.HasBits(0x1) {
		t.Errorf("HasBits mismatch for %#x", g.DIR.Read())
	}

	g.OUTSET.Write(0x5)
	if bus.mem[GPIOABase+GPIOAOutSet] != 0x5 {
		t.Errorf("OUTSET store did not reach the bus")
	}
	if g.OUT.Addr() != GPIOABase+GPIOAOut {
		t.Errorf("OUT address: got %#x", g.OUT.Addr())
	}
}

func TestRegisterWidths(t *testing.T) {
	bus := newMemBus()
	detach := mmio.Attach(bus)
	defer detach()

	const base = 0x2000_0000
	b := NewUnsafeRW[uint8](base)
	h := NewUnsafeRW[uint16](base + 4)
	w := NewUnsafeWO[uint32](base + 8)
	r := NewUnsafeRO[uint32](base + 8)

	b.Write(0xAB)
	h.Write(0xBEEF)
	w.Write(0xDEADBEEF)

	cases := []struct {
		addr  uintptr
		width uint8
	}{
		{base, mmio.Width8},
		{base + 4, mmio.Width16},
		{base + 8, mmio.Width32},
	}
	for _, tc := range cases {
		if got := bus.widths[tc.addr]; got != tc.width {
			t.Errorf("addr %#x: expected width %d, got %d", tc.addr, tc.width, got)
		}
	}
	if b.Read() != 0xAB || h.Read() != 0xBEEF || r.Read() != 0xDEADBEEF {
		t.Errorf("read back mismatch: %#x %#x %#x", b.Read(), h.Read(), r.Read())
	}
}

func TestModifyIsOneLoadOneStore(t *testing.T) {
	bus := newMemBus()
	detach := mmio.Attach(bus)
	defer detach()

	u := ConjureUART1()
	u.CTRL.Modify(func(v uint32) uint32 { return v | UARTCtrlRxIE })
	if bus.loads != 1 || bus.stores != 1 {
		t.Fatalf("expected 1 load and 1 store, got %d and %d", bus.loads, bus.stores)
	}
}
