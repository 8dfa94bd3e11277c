package notify

import (
	"context"
	"fmt"
	"sync"

	"ventaspos/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Suscripcion is one live subscriber. Eventos is never closed; Done is closed
// once the subscription is removed from the hub.
type Suscripcion struct {
	ID      string
	Canal   string
	Eventos <-chan Evento
	Done    <-chan struct{}

	ch   chan Evento
	done chan struct{}
	once sync.Once
}

// Hub keeps the subscriber set per channel. It is injected where needed;
// there is no package-level instance.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[string]*Suscripcion
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   map[string]map[string]*Suscripcion{CanalVentas: {}, CanalStock: {}},
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber on canal.
func (h *Hub) Subscribe(canal string) (*Suscripcion, error) {
	if !CanalValido(canal) {
		return nil, fmt.Errorf("canal desconocido: %q", canal)
	}
	ch := make(chan Evento, h.buffer)
	done := make(chan struct{})
	s := &Suscripcion{
		ID:      uuid.NewString(),
		Canal:   canal,
		Eventos: ch,
		Done:    done,
		ch:      ch,
		done:    done,
	}

	h.mu.Lock()
	h.subs[canal][s.ID] = s
	n := len(h.subs[canal])
	h.mu.Unlock()

	metrics.Suscriptores.WithLabelValues(canal).Set(float64(n))
	return s, nil
}

// Unsubscribe is idempotent.
func (h *Hub) Unsubscribe(s *Suscripcion) {
	h.mu.Lock()
	delete(h.subs[s.Canal], s.ID)
	n := len(h.subs[s.Canal])
	h.mu.Unlock()

	s.once.Do(func() { close(s.done) })
	metrics.Suscriptores.WithLabelValues(s.Canal).Set(float64(n))
}

// Suscriptores returns the number of subscribers currently on canal.
func (h *Hub) Suscriptores(canal string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[canal])
}

// Notify broadcasts ev to a snapshot of the channel's subscribers. A
// subscriber whose buffer is full misses the event; the broadcaster never
// waits on it.
func (h *Hub) Notify(_ context.Context, ev Evento) error {
	h.mu.RLock()
	destino := make([]*Suscripcion, 0, len(h.subs[ev.Canal]))
	for _, s := range h.subs[ev.Canal] {
		destino = append(destino, s)
	}
	h.mu.RUnlock()

	for _, s := range destino {
		select {
		case s.ch <- ev:
		default:
			metrics.EventosDescartados.WithLabelValues("suscriptor_lento").Inc()
			log.Warn().Str("canal", ev.Canal).Str("suscripcion", s.ID).Str("tipo", ev.Tipo).
				Msg("notify: subscriber buffer full, event dropped")
		}
	}
	return nil
}
