package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Poker/internal/domain"
	"github.com/stretchr/testify/require"
)

type fakeSignal struct {
	mu     sync.Mutex
	frames []Frame
	full   bool
	closed bool
}

func (f *fakeSignal) TrySend(fr Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return errors.New("backpressure")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSignal) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSignal) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.frames))
	for _, fr := range f.frames {
		out = append(out, string(fr))
	}
	return out
}

func TestStore_CreateGetDelete(t *testing.T) {
	req := require.New(t)
	store := NewStore()

	// Given a session is created
	sess := store.Create("Sprint", "alice")
	req.NotEmpty(sess.ID)
	req.Equal("Sprint", sess.Title)
	req.Equal(domain.ParticipantID("alice"), sess.CreatorID)

	// Then it can be read back
	got, ok := store.Get(sess.ID)
	req.True(ok)
	req.Same(sess, got)

	// When it is deleted twice
	store.Delete(sess.ID)
	store.Delete(sess.ID)

	// Then it is absent
	_, ok = store.Get(sess.ID)
	req.False(ok)
	req.Zero(store.Len())
}

func TestStore_Create_SkipsTakenIDs(t *testing.T) {
	req := require.New(t)
	store := NewStore()
	ids := []domain.SessionID{"dup", "dup", "fresh"}
	store.newID = func() domain.SessionID {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first := store.Create("", "a")
	second := store.Create("", "b")

	req.Equal(domain.SessionID("dup"), first.ID)
	req.Equal(domain.SessionID("fresh"), second.ID)
}

func TestStore_CreateWithID_KeepsExisting(t *testing.T) {
	req := require.New(t)
	store := NewStore()

	first, created := store.CreateWithID("room", "One", "alice")
	req.True(created)
	second, created := store.CreateWithID("room", "Two", "bob")

	req.False(created)
	req.Same(first, second)
	req.Equal("One", second.Title)
}

func TestStore_IdleSince(t *testing.T) {
	req := require.New(t)
	store := NewStore()
	base := time.Unix(1000, 0)
	store.now = func() time.Time { return base }
	old := store.Create("", "a")
	store.now = func() time.Time { return base.Add(time.Hour) }
	fresh := store.Create("", "b")

	idle := store.IdleSince(base.Add(time.Minute))

	req.Equal([]domain.SessionID{old.ID}, idle)
	req.NotContains(idle, fresh.ID)
}

func TestRegistry_BindLookupDetach(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	sig := &fakeSignal{}

	// Given an attached connection has no binding
	reg.Attach("c1", sig)
	_, ok := reg.Lookup("c1")
	req.False(ok)

	// When it joins a session
	req.True(reg.Bind("c1", Binding{Session: "s1", Participant: "alice"}))

	// Then the binding is visible
	b, ok := reg.Lookup("c1")
	req.True(ok)
	req.Equal(Binding{Session: "s1", Participant: "alice"}, b)
	req.Equal([]ConnID{"c1"}, reg.BoundTo("s1"))

	// And detaching hands the binding back exactly once
	b, ok = reg.Detach("c1")
	req.True(ok)
	req.Equal(domain.SessionID("s1"), b.Session)
	_, ok = reg.Detach("c1")
	req.False(ok)
	req.Zero(reg.Len())
}

func TestRegistry_Bind_UnknownConnection(t *testing.T) {
	reg := NewRegistry()
	require.False(t, reg.Bind("nope", Binding{Session: "s1"}))
}

func TestRegistry_Unbind_KeepsConnection(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	reg.Attach("c1", &fakeSignal{})
	reg.Bind("c1", Binding{Session: "s1", Participant: "alice"})

	reg.Unbind("c1")

	_, ok := reg.Lookup("c1")
	req.False(ok)
	_, ok = reg.Signal("c1")
	req.True(ok)
}

func TestGateway_Publish_RendersPerSubscriberInOrder(t *testing.T) {
	req := require.New(t)
	gw := NewGateway()
	a, b := &fakeSignal{}, &fakeSignal{}
	gw.Subscribe("s1", Subscriber{Conn: "c1", Viewer: "alice", Signal: a})
	gw.Subscribe("s1", Subscriber{Conn: "c2", Viewer: "bob", Signal: b})

	render := func(n string) RenderFunc {
		return func(s Subscriber) (Frame, error) { return Frame(n + ":" + string(s.Viewer)), nil }
	}
	res1 := gw.Publish("s1", render("1"))
	gw.Publish("s1", render("2"))

	req.Equal(2, res1.SendTo)
	req.Empty(res1.Dropped)
	req.Equal([]string{"1:alice", "2:alice"}, a.received())
	req.Equal([]string{"1:bob", "2:bob"}, b.received())
}

func TestGateway_Publish_ReportsDropped(t *testing.T) {
	req := require.New(t)
	gw := NewGateway()
	slow := &fakeSignal{full: true}
	gw.Subscribe("s1", Subscriber{Conn: "c1", Signal: &fakeSignal{}})
	gw.Subscribe("s1", Subscriber{Conn: "c2", Signal: slow})

	res := gw.Publish("s1", func(Subscriber) (Frame, error) { return Frame("x"), nil })

	req.Equal(1, res.SendTo)
	req.Len(res.Dropped, 1)
	req.Equal(ConnID("c2"), res.Dropped[0].Conn)
}

func TestGateway_Subscribe_Twice_NoDuplicateDelivery(t *testing.T) {
	req := require.New(t)
	gw := NewGateway()
	sig := &fakeSignal{}

	gw.Subscribe("s1", Subscriber{Conn: "c1", Viewer: "alice", Signal: sig})
	gw.Subscribe("s1", Subscriber{Conn: "c1", Viewer: "alice2", Signal: sig})
	gw.Publish("s1", func(s Subscriber) (Frame, error) { return Frame(s.Viewer), nil })

	req.Equal([]string{"alice2"}, sig.received())
}

func TestGateway_UnsubscribeAll(t *testing.T) {
	req := require.New(t)
	gw := NewGateway()
	sig := &fakeSignal{}
	gw.Subscribe("s1", Subscriber{Conn: "c1", Signal: sig})
	gw.Subscribe("s2", Subscriber{Conn: "c1", Signal: sig})
	gw.Subscribe("s2", Subscriber{Conn: "c2", Signal: &fakeSignal{}})

	gw.UnsubscribeAll("c1")

	req.Empty(gw.Subscribers("s1"))
	req.Len(gw.Subscribers("s2"), 1)
	req.Equal(1, gw.Rooms())
}

func TestGateway_Evict_SendsNoticeOnceAndEmptiesRoom(t *testing.T) {
	req := require.New(t)
	gw := NewGateway()
	sig := &fakeSignal{}
	gw.Subscribe("s1", Subscriber{Conn: "c1", Signal: sig})

	gw.Evict("s1", Frame("bye"))
	gw.Publish("s1", func(Subscriber) (Frame, error) { return Frame("late"), nil })

	req.Equal([]string{"bye"}, sig.received())
	req.Zero(gw.Rooms())
}

func TestGateway_Publish_SkipsRenderErrors(t *testing.T) {
	req := require.New(t)
	gw := NewGateway()
	sig := &fakeSignal{}
	gw.Subscribe("s1", Subscriber{Conn: "c1", Signal: sig})

	res := gw.Publish("s1", func(Subscriber) (Frame, error) { return nil, errors.New("boom") })

	req.Zero(res.SendTo)
	req.Empty(res.Dropped)
	req.Empty(sig.received())
}
