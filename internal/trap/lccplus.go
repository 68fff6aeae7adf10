package trap

import (
	"fmt"
	"time"

	"github.com/xyproto/lcc/internal/asmerr"
	"github.com/xyproto/lcc/internal/isa"
	"github.com/xyproto/lcc/internal/vm"
)

// Plus extends Base with the LCC+ vectors (0x0F-0x15, §9): screen
// control, timing, and a non-blocking character read. It is selected
// at construction instead of the base dispatcher — never by
// subclassing — matching §9's stated redesign.
type Plus struct {
	Base

	// Rand is the PRNG state that `seed` reseeds; NonBlockingIn services
	// `nbain` without blocking when no input is pending.
	Rand          *rngState
	NonBlockingIn func() (b byte, ok bool)
}

var _ vm.TrapDispatcher = (*Plus)(nil)

func NewPlus() *Plus {
	return &Plus{Rand: &rngState{state: 0x2545F4914F6CDD1D}}
}

// Dispatch implements vm.TrapDispatcher, falling back to Base for the
// vectors shared with the core trap table.
func (p *Plus) Dispatch(m *vm.Machine, vec uint8, dr uint8) error {
	switch vec {
	case isa.TrapCls:
		return writeString(m, "\x1b[2J\x1b[H")
	case isa.TrapSleep:
		time.Sleep(time.Duration(m.Regs[dr]) * time.Millisecond)
		return nil
	case isa.TrapNBAin:
		if p.NonBlockingIn == nil {
			m.Regs[dr] = 0
			return nil
		}
		b, ok := p.NonBlockingIn()
		if !ok {
			m.Regs[dr] = 0xFFFF
			return nil
		}
		m.Regs[dr] = uint16(b)
		return nil
	case isa.TrapCursor:
		row := (m.Regs[dr] >> 8) & 0xFF
		col := m.Regs[dr] & 0xFF
		return writeString(m, fmt.Sprintf("\x1b[%d;%dH", row+1, col+1))
	case isa.TrapSeed:
		p.Rand.seed(uint64(m.Regs[dr]))
		return nil
	case isa.TrapMillis:
		m.Regs[dr] = uint16(time.Now().UnixMilli() & 0xFFFF)
		return nil
	case isa.TrapResetCurs:
		return writeString(m, "\x1b[H")
	default:
		if vec <= isa.TrapBP {
			return p.Base.Dispatch(m, vec, dr)
		}
		return asmerr.AtAddress(asmerr.Runtime, int(m.PC), "invalid trap vector 0x%02X", vec)
	}
}

// rngState is a tiny splitmix64 generator, enough to back a
// deterministic `seed`/random-fill extension without importing
// math/rand's global state into the VM.
type rngState struct{ state uint64 }

func (r *rngState) seed(s uint64) { r.state = s }

func (r *rngState) next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
