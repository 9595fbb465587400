package kernel

import (
	"testing"

	"defs"
	"fd"
	"fdops"
	"stat"
)

// probeVnode records whether it has been closed.
type probeVnode struct{ closed bool }

func (v *probeVnode) Read(dst fdops.Userio_i, offset int) (int, defs.Err_t)  { return 0, 0 }
func (v *probeVnode) Write(src fdops.Userio_i, offset int) (int, defs.Err_t) { return 0, 0 }
func (v *probeVnode) Stat() (stat.Stat_t, defs.Err_t)                        { return stat.Stat_t{}, 0 }
func (v *probeVnode) Seekable() bool                                         { return true }
func (v *probeVnode) Close() defs.Err_t {
	v.closed = true
	return 0
}

func TestBootstrapOpensConsole(t *testing.T) {
	k := Bootstrap()
	if k.Registry == nil || k.Fs == nil {
		t.Fatal("expected Bootstrap to construct both the registry and the in-memory filesystem")
	}
}

func TestNewProcGetsIndependentStdio(t *testing.T) {
	k := Bootstrap()
	p1 := k.NewProc()
	p2 := k.NewProc()

	if p1.Fdtable == p2.Fdtable {
		t.Fatal("expected each process to get its own descriptor table")
	}
	if !p1.Fdtable.Validate(1) || !p2.Fdtable.Validate(1) {
		t.Fatal("expected both processes' stdio descriptors to be bound")
	}

	if _, err := p1.Fdtable.GetOpenFile(1).Vnode.Stat(); err != -defs.EIO {
		t.Fatalf("got %v, want EIO stat-ing the console device", err)
	}
}

func TestShutdownClosesEveryRegisteredOpenFile(t *testing.T) {
	k := Bootstrap()
	p := k.NewProc()

	ofile := p.Fdtable.GetOpenFile(1)
	if ofile == nil {
		t.Fatal("expected a bound stdio OpenFile_t")
	}
	probe := &probeVnode{}
	if _, err := k.Registry.Add(&fd.OpenFile_t{Vnode: probe, Refcnt: 1}); err != 0 {
		t.Fatalf("Add failed: %v", err)
	}

	k.Shutdown()
	if !probe.closed {
		t.Fatal("expected Shutdown to close a registered OpenFile_t's vnode")
	}
	// Shutdown closes every OpenFile_t the registry tracks; closing the
	// console vnode again directly must still succeed since the
	// in-memory console's Close is idempotent.
	if cerr := ofile.Vnode.Close(); cerr != 0 {
		t.Fatalf("console Close after Shutdown = %v, want 0", cerr)
	}
}
