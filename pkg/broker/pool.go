package broker

import (
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// pool is a capped set of lazily-dialed AMQP connections, handed out
// round-robin. A connection is only dialed the first time its slot is
// requested, or again if the previous one died.
type pool struct {
	url  string
	size int

	mu    sync.Mutex
	conns []*amqp.Connection
	next  int
}

func newPool(url string, size int) *pool {
	if size <= 0 {
		size = 1
	}
	return &pool{
		url:   url,
		size:  size,
		conns: make([]*amqp.Connection, size),
	}
}

// get returns the next connection in round-robin order, dialing lazily on
// first use or after the held connection died. Failure to dial surfaces
// BrokerUnavailable; the caller's own retry policy governs what happens
// next.
func (p *pool) get() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.next
	p.next = (p.next + 1) % p.size

	if c := p.conns[idx]; c != nil && !c.IsClosed() {
		return c, nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, ErrBrokerUnavailable(err)
	}
	p.conns[idx] = conn
	return conn, nil
}

// channel acquires a pooled connection and opens a fresh multiplexed
// channel on it.
func (p *pool) channel() (*amqp.Channel, error) {
	conn, err := p.get()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, ErrBrokerUnavailable(err)
	}
	return ch, nil
}

// close closes every live connection in the pool.
func (p *pool) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, c := range p.conns {
		if c == nil || c.IsClosed() {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.conns = nil
	return firstErr
}
