package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"walletiq/internal/app"
	"walletiq/internal/metrics"
	"walletiq/internal/trending"
)

const (
	feedInterval   = 30 * time.Second
	feedWriteWait  = 5 * time.Second
	feedQueryLimit = trending.MaxLimit
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// trendingFeed pushes the current trending ranking to websocket
// subscribers on a fixed interval.
type trendingFeed struct {
	service *app.Service
	metrics *metrics.Registry

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	done  chan struct{}
	once  sync.Once
}

func newTrendingFeed(service *app.Service, m *metrics.Registry) *trendingFeed {
	f := &trendingFeed{
		service: service,
		metrics: m,
		conns:   make(map[*websocket.Conn]struct{}),
		done:    make(chan struct{}),
	}
	go f.run()
	return f
}

func (f *trendingFeed) run() {
	ticker := time.NewTicker(feedInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.broadcast()
		}
	}
}

// broadcast pushes one trending snapshot to every subscriber. Dead
// connections are dropped on write failure.
func (f *trendingFeed) broadcast() {
	f.mu.Lock()
	if len(f.conns) == 0 {
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), feedWriteWait)
	defer cancel()

	result, err := f.service.Trending(ctx, trending.Query{Limit: feedQueryLimit})
	if err != nil {
		log.Warn().Err(err).Msg("trending feed refresh failed")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if err := conn.WriteJSON(result); err != nil {
			log.Debug().Err(err).Msg("dropping trending feed subscriber")
			conn.Close()
			delete(f.conns, conn)
			continue
		}
		if f.metrics != nil {
			f.metrics.TrendingPushes.Inc()
		}
	}
}

func (f *trendingFeed) subscribe(conn *websocket.Conn) {
	f.mu.Lock()
	f.conns[conn] = struct{}{}
	f.mu.Unlock()
}

func (f *trendingFeed) unsubscribe(conn *websocket.Conn) {
	f.mu.Lock()
	if _, ok := f.conns[conn]; ok {
		delete(f.conns, conn)
		conn.Close()
	}
	f.mu.Unlock()
}

func (f *trendingFeed) stop() {
	f.once.Do(func() {
		close(f.done)
		f.mu.Lock()
		for conn := range f.conns {
			conn.Close()
		}
		f.conns = make(map[*websocket.Conn]struct{})
		f.mu.Unlock()
	})
}

// TrendingFeed handles GET /ws/trending, upgrading to a websocket that
// receives periodic trending snapshots.
func (h *Handlers) TrendingFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("request_id", RequestID(r.Context())).Msg("websocket upgrade failed")
		return
	}
	h.feed.subscribe(conn)

	// Send an immediate snapshot so subscribers do not wait a full
	// interval for their first frame. The request context is unusable
	// after the hijack.
	ctx, cancel := context.WithTimeout(context.Background(), feedWriteWait)
	defer cancel()
	if result, err := h.service.Trending(ctx, trending.Query{Limit: feedQueryLimit}); err == nil {
		conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
		if werr := conn.WriteJSON(result); werr == nil && h.metrics != nil {
			h.metrics.TrendingPushes.Inc()
		}
	}

	// Reader loop only detects disconnects; inbound frames are ignored.
	go func() {
		defer h.feed.unsubscribe(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
