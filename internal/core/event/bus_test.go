package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBusDoubleBuffer(t *testing.T) {
	b := NewBus()
	var order []string
	Subscribe(b, func(ev EntitySpawned) { order = append(order, "spawn") })
	Subscribe(b, func(ev EntityDestroyed) { order = append(order, "destroy:"+ev.Name) })

	Emit(b, EntityDestroyed{EntityID: uuid.New(), Name: "a"})
	Emit(b, EntitySpawned{EntityID: uuid.New()})
	Emit(b, EntityDestroyed{EntityID: uuid.New(), Name: "b"})
	require.Equal(t, 3, b.Pending())
	require.Equal(t, 0, b.DispatchAll(), "nothing visible before the swap")

	b.SwapBuffers()
	require.Equal(t, 0, b.Pending())
	require.Equal(t, 3, b.DispatchAll())
	require.Equal(t, []string{"destroy:a", "spawn", "destroy:b"}, order)

	b.SwapBuffers()
	require.Equal(t, 0, b.DispatchAll())
}

func TestEmitNilBus(t *testing.T) {
	require.NotPanics(t, func() { Emit[EntitySpawned](nil, EntitySpawned{}) })
}
