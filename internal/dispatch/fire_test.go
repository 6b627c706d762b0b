package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFire_Disabled(t *testing.T) {
	d := New()
	rec := &recorder{}

	require.NoError(t, d.On("some:event.namespace1", rec.listener("fn1")))
	require.NoError(t, d.On("some:event.namespace2", rec.listener("fn2")))

	d.SetDisabled(true)
	require.True(t, d.Disabled())
	d.Fire("some:event", nil)
	require.Empty(t, rec.calls)

	d.SetDisabled(false)
	d.Fire("some:event", nil)
	require.Equal(t, []string{"fn1", "fn2"}, rec.calls)
}

func TestFire_ByNamespace(t *testing.T) {
	d := New()
	rec := &recorder{}

	require.NoError(t, d.On("some:event.ns", rec.listener("fn1")))
	require.NoError(t, d.On("another:event.ns", rec.listener("fn2")))
	require.NoError(t, d.On("yet:another:event.ns2", rec.listener("fn3")))

	d.Fire(".ns", nil)

	require.Equal(t, []string{"fn1", "fn2"}, rec.calls)
	require.Equal(t, Meta{Type: "some:event", Namespace: "ns"}, rec.metas[0])
	require.Equal(t, Meta{Type: "another:event", Namespace: "ns"}, rec.metas[1])
}

func TestFire_NamespaceFiltersWithinType(t *testing.T) {
	d := New()
	rec := &recorder{}

	require.NoError(t, d.On("a.ns1", rec.listener("ns1")))
	require.NoError(t, d.On("a.ns2", rec.listener("ns2")))

	d.Fire("a.ns1", nil)
	require.Equal(t, []string{"ns1"}, rec.calls)

	rec.reset()
	d.Fire("a", nil)
	require.Equal(t, []string{"ns1", "ns2"}, rec.calls)
}

func TestFire_OneFiresOnce(t *testing.T) {
	d := New()
	rec := &recorder{}

	require.NoError(t, d.One("some:event.ns", rec.listener("fn1")))

	d.Fire("some:event", nil)
	d.Fire("some:event", nil)

	require.Equal(t, []string{"fn1"}, rec.calls)
	require.Equal(t, 0, d.Count("some:event"))
	require.False(t, d.Cleared("some:event"))
}

func TestFire_OneNotDroppedWhenNamespaceMisses(t *testing.T) {
	d := New()
	rec := &recorder{}

	require.NoError(t, d.One("a.x", rec.listener("fn")))
	d.Fire("a.y", nil)
	require.Equal(t, 1, d.Count("a"))

	d.Fire("a.x", nil)
	require.Equal(t, []string{"fn"}, rec.calls)
	require.Equal(t, 0, d.Count("a"))
}

func TestFire_PayloadSharedByReference(t *testing.T) {
	d := New()

	type data struct {
		Number  int
		Flag    bool
		Visited []string
	}
	payload := &data{Number: 1, Flag: true}

	require.NoError(t, d.One("some:event.ns", NewListener(func(_ Meta, p any) {
		got := p.(*data)
		got.Flag = false
		got.Visited = append(got.Visited, "first")
	})))
	require.NoError(t, d.On("some:event", NewListener(func(_ Meta, p any) {
		got := p.(*data)
		require.False(t, got.Flag, "mutation from earlier listener is visible")
		got.Visited = append(got.Visited, "second")
	})))

	d.Fire("some:event", payload)

	require.False(t, payload.Flag)
	require.Equal(t, []string{"first", "second"}, payload.Visited)
}

func TestFire_NoopCases(t *testing.T) {
	d := New()
	require.NotPanics(t, func() {
		d.Fire("", nil)
		d.Fire("   ", nil)
		d.Fire("myNotExistingEvent", nil)
		d.Fire(".ns", nil)
	})
}

func TestFire_ListenerRegisteredDuringFireRunsNextTime(t *testing.T) {
	d := New()
	rec := &recorder{}
	late := rec.listener("late")

	require.NoError(t, d.On("x", NewNamedListener("first", func(Meta, any) {
		rec.calls = append(rec.calls, "first")
		if d.Count("x") == 1 {
			require.NoError(t, d.On("x", late))
		}
	})))

	d.Fire("x", nil)
	require.Equal(t, []string{"first"}, rec.calls)
	require.Equal(t, 2, d.Count("x"), "registration during fire is kept")

	d.Fire("x", nil)
	require.Equal(t, []string{"first", "first", "late"}, rec.calls)
}

func TestFire_OneWithReentrantFireRunsOnce(t *testing.T) {
	d := New()
	rec := &recorder{}
	depth := 0

	require.NoError(t, d.On("x", NewListener(func(Meta, any) {
		depth++
		if depth == 1 {
			d.Fire("x", nil)
		}
	})))
	require.NoError(t, d.One("x", rec.listener("once")))

	d.Fire("x", nil)

	require.Equal(t, []string{"once"}, rec.calls)
	require.Equal(t, 1, d.Count("x"))
}

func TestFire_OffDuringFireKeepsSnapshot(t *testing.T) {
	d := New()
	rec := &recorder{}
	second := rec.listener("second")

	require.NoError(t, d.On("x", NewListener(func(Meta, any) {
		d.Off("x", second)
	})))
	require.NoError(t, d.On("x", second))

	d.Fire("x", nil)
	require.Equal(t, []string{"second"}, rec.calls, "the pass iterates the sequence as it was when fired")
	require.Equal(t, 1, d.Count("x"))

	rec.reset()
	d.Fire("x", nil)
	require.Empty(t, rec.calls)
}
