/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: respkv/internal/server/server.go
*/
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/akashmaji946/respkv/internal/expiry"
	"github.com/akashmaji946/respkv/internal/logging"
	"github.com/akashmaji946/respkv/internal/store"
)

// Listener accepts connections and spawns one handler goroutine per
// connection, tracking them with a WaitGroup so Serve can wait for
// in-flight connections to finish closing.
type Listener struct {
	ln    net.Listener
	store *store.Store
	sched *expiry.Scheduler
	log   *logging.Logger

	wg sync.WaitGroup
}

// Listen binds a TCP listener on 127.0.0.1:port and returns a Listener
// ready to Serve, wired to the given store and expiry scheduler. Per
// spec.md §6 the server binds loopback only, not all interfaces.
func Listen(port int, s *store.Store, sched *expiry.Scheduler, log *logging.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("cannot listen on port %d: %w", port, err)
	}
	return &Listener{ln: ln, store: s, sched: sched, log: log}, nil
}

// Addr returns the address the listener is bound to.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Serve accepts connections until ctx is cancelled or the listener is
// closed, spawning a goroutine per connection (mirroring the teacher's
// main.go accept loop). It returns once the accept loop has stopped and
// every in-flight connection handler has returned.
func (l *Listener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.log.Info("listener: shutdown signal received, closing accept loop")
		l.ln.Close()
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				l.wg.Wait()
				return nil
			default:
				l.wg.Wait()
				return err
			}
		}

		h := newConnHandler(conn, l.store, l.sched, l.log)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			h.serve(ctx)
		}()
	}
}
