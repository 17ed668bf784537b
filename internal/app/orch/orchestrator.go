package orch

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/core"
	"github.com/dkeye/Meet/internal/domain"
	"github.com/rs/zerolog/log"
)

// ErrStopped is returned when a call arrives after the loop has exited.
var ErrStopped = errors.New("orchestrator stopped")

// Orchestrator is the single owner of room state. Every operation runs on
// the Run goroutine, one at a time, so Rooms needs no locking.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomRegistry
	Policy   app.Policy
	// ReplayLimit caps the history entries replayed on join to the newest
	// ReplayLimit. Zero replays everything.
	ReplayLimit int

	inbox chan func()
	done  chan struct{}
	now   func() time.Time
}

func New(reg *app.Registry, rooms core.RoomRegistry, policy app.Policy) *Orchestrator {
	if policy == nil {
		policy = app.DropPolicy{}
	}
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
		inbox:    make(chan func()),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Run processes submitted operations until ctx is canceled.
func (o *Orchestrator) Run(ctx context.Context) {
	defer close(o.done)
	log.Info().Str("module", "orch").Msg("orchestrator loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("orchestrator loop stopped")
			return
		case fn := <-o.inbox:
			o.exec(fn)
		}
	}
}

// Done is closed once Run has returned.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

func (o *Orchestrator) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "orch").Interface("panic", r).Str("stack", string(debug.Stack())).Msg("operation panicked")
		}
	}()
	fn()
}

// do runs fn on the loop and waits for it to finish.
func (o *Orchestrator) do(fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	select {
	case o.inbox <- task:
	case <-o.done:
		return ErrStopped
	}
	<-finished
	return nil
}

// Connect registers a fresh transport session and greets it with its id.
func (o *Orchestrator) Connect(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) error {
	return o.do(func() {
		o.Registry.BindSignal(sid, sess, cancel)
		o.send(sid, Welcome{Type: EventWelcome, ID: sid})
	})
}

// Disconnect terminates sid: presence leave, then the id stops resolving.
// Calling it again for the same sid is a no-op.
func (o *Orchestrator) Disconnect(sid core.SessionID) error {
	return o.do(func() {
		o.leave(sid)
		sess, ok := o.Registry.Unbind(sid)
		if !ok {
			return
		}
		log.Info().Str("module", "orch").Str("sid", string(sid)).
			Dur("online", sess.Meta().Online(o.now())).
			Msg("session terminated")
	})
}

// WhoAmI reports the room and lifecycle state of sid.
func (o *Orchestrator) WhoAmI(sid core.SessionID) error {
	return o.do(func() {
		resp := WhoAmI{Type: EventWhoAmI, ID: sid, State: o.Registry.State(sid).String()}
		if room, ok := o.Rooms.RoomOf(sid); ok {
			resp.Room = room
		}
		o.send(sid, resp)
	})
}

// ListRooms returns a summary of every live room.
func (o *Orchestrator) ListRooms() ([]core.RoomInfo, error) {
	var out []core.RoomInfo
	err := o.do(func() { out = o.Rooms.List() })
	return out, err
}

// RoomView is a read-only snapshot of one room.
type RoomView struct {
	Name       domain.RoomName  `json:"name"`
	Members    []core.SessionID `json:"members"`
	HistoryLen int              `json:"history_len"`
}

func (o *Orchestrator) Room(name domain.RoomName) (RoomView, bool, error) {
	var (
		view  RoomView
		found bool
	)
	err := o.do(func() {
		members := o.Rooms.Members(name)
		if len(members) == 0 {
			return
		}
		found = true
		view = RoomView{Name: name, Members: members, HistoryLen: len(o.Rooms.History(name))}
	})
	return view, found, err
}

// send delivers one event to one connection, best effort.
func (o *Orchestrator) send(sid core.SessionID, v any) {
	frame, ok := encode(v)
	if !ok {
		return
	}
	o.deliver(sid, frame)
}

// broadcast delivers the same encoded event to every recipient, in order.
func (o *Orchestrator) broadcast(to []core.SessionID, v any) {
	frame, ok := encode(v)
	if !ok {
		return
	}
	for _, sid := range to {
		o.deliver(sid, frame)
	}
}

func (o *Orchestrator) deliver(sid core.SessionID, frame core.Frame) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("deliver: no session")
		return
	}
	err := sess.Signal().TrySend(frame)
	if err == nil {
		return
	}
	if errors.Is(err, core.ErrConnClosed) {
		// Already kicked or shutting down; the read pump will disconnect it.
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("deliver: connection closed")
		return
	}
	switch o.Policy.OnBackPressure(sid) {
	case app.KickMember:
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("recipient too slow, kicking")
		o.Registry.Cancel(sid)
	case app.DropFrame, app.NoAction:
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("frame dropped")
	}
}
