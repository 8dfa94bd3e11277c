package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ventaspos/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu        sync.Mutex
	fallos    int // remaining failures before succeeding
	llamadas  int
	recibidos []notify.Evento
}

func (f *fakeNotifier) Notify(_ context.Context, ev notify.Evento) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.llamadas++
	if f.fallos > 0 {
		f.fallos--
		return errors.New("broker no disponible")
	}
	f.recibidos = append(f.recibidos, ev)
	return nil
}

func (f *fakeNotifier) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recibidos)
}

type memDLQ struct {
	mu      sync.Mutex
	entries []DLQEntry
}

func (m *memDLQ) Push(_ context.Context, e DLQEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memDLQ) PopBatch(_ context.Context, n int) ([]DLQEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.entries) {
		n = len(m.entries)
	}
	out := append([]DLQEntry(nil), m.entries[:n]...)
	m.entries = m.entries[n:]
	return out, nil
}

func (m *memDLQ) Len(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), nil
}

func TestDispatcher_Entrega(t *testing.T) {
	n := &fakeNotifier{}
	d := NewDispatcher(n, nil, DispatcherConfig{Workers: 2, QueueSize: 8})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	require.True(t, d.Enqueue(notify.StockActualizado(1, 5), notify.StockActualizado(2, 0)))
	assert.Eventually(t, func() bool { return n.total() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	d.Wait()
}

func TestDispatcher_EnqueueNoBloqueaConColaLlena(t *testing.T) {
	// no workers started: nothing drains the queue
	d := NewDispatcher(&fakeNotifier{}, nil, DispatcherConfig{QueueSize: 1})

	inicio := time.Now()
	assert.True(t, d.Enqueue(notify.StockActualizado(1, 1)))
	assert.False(t, d.Enqueue(notify.StockActualizado(1, 2)))
	assert.Less(t, time.Since(inicio), 100*time.Millisecond)
	assert.Equal(t, 1, d.Pendientes())
}

func TestDispatcher_ReintentaYLuegoDLQ(t *testing.T) {
	n := &fakeNotifier{fallos: 10}
	dlq := &memDLQ{}
	d := NewDispatcher(n, dlq, DispatcherConfig{Workers: 1, QueueSize: 4, MaxIntentos: 3, Backoff: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(notify.StockActualizado(4, 9))
	assert.Eventually(t, func() bool {
		l, _ := dlq.Len(ctx)
		return l == 1
	}, time.Second, 5*time.Millisecond)

	n.mu.Lock()
	assert.Equal(t, 3, n.llamadas)
	n.mu.Unlock()
	assert.Equal(t, 3, dlq.entries[0].Attempts)
	assert.Equal(t, notify.TipoStock, dlq.entries[0].Evento.Tipo)
}

func TestDispatcher_ReintentoExitoso(t *testing.T) {
	n := &fakeNotifier{fallos: 1}
	dlq := &memDLQ{}
	d := NewDispatcher(n, dlq, DispatcherConfig{Workers: 1, QueueSize: 4, MaxIntentos: 3, Backoff: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(notify.StockActualizado(4, 9))
	assert.Eventually(t, func() bool { return n.total() == 1 }, time.Second, 5*time.Millisecond)
	l, _ := dlq.Len(ctx)
	assert.Zero(t, l)
}

func TestReplayDLQ(t *testing.T) {
	dlq := &memDLQ{}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, dlq.Push(ctx, DLQEntry{Evento: notify.StockActualizado(uint(i+1), i)}))
	}

	// queue fits two; the third goes back to the DLQ
	d := NewDispatcher(&fakeNotifier{}, dlq, DispatcherConfig{QueueSize: 2})
	assert.Equal(t, 2, ReplayDLQ(ctx, dlq, d, 10))
	assert.Equal(t, 2, d.Pendientes())
	l, _ := dlq.Len(ctx)
	assert.EqualValues(t, 1, l)
}

func TestStartDLQReplay_Programa(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dlq := &memDLQ{}
	d := NewDispatcher(&fakeNotifier{}, dlq, DispatcherConfig{QueueSize: 4})

	s, err := StartDLQReplay(ctx, DLQReplayConfig{DLQ: dlq, Dispatcher: d, Interval: 20 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, dlq.Push(ctx, DLQEntry{Evento: notify.StockActualizado(1, 1)}))

	assert.Eventually(t, func() bool { return d.Pendientes() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, s.IsRunning())
}
