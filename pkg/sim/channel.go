package sim

import (
	"context"
	"sync"
	"time"

	"github.com/epics-tools/cago/pkg/channel"
	"github.com/epics-tools/cago/pkg/dbr"
)

// simChannel is one client endpoint for a variable. Channels for
// unknown names have a nil variable and never connect.
type simChannel struct {
	name     string
	v        *variable
	connCB   channel.ConnectionCallback
	accessCB channel.AccessCallback

	mu        sync.Mutex
	connected bool
	idle      bool
	connCh    chan struct{}
}

var _ channel.Channel = (*simChannel)(nil)

func newChannel(name string, v *variable, connCB channel.ConnectionCallback, accessCB channel.AccessCallback) *simChannel {
	return &simChannel{
		name:     name,
		v:        v,
		connCB:   connCB,
		accessCB: accessCB,
		connCh:   make(chan struct{}),
	}
}

// connectAfter runs on its own goroutine per channel.
func (c *simChannel) connectAfter(delay time.Duration) {
	c.v.attach(c)
	if delay > 0 {
		time.Sleep(delay)
	}
	if !c.v.isUp() {
		// The connect notification arrives when the server comes back.
		return
	}
	c.markConnected()
}

func (c *simChannel) markConnected() {
	c.mu.Lock()
	if c.idle || c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = true
	close(c.connCh)
	c.mu.Unlock()

	if c.accessCB != nil {
		c.accessCB(c, c.v.accessRights())
	}
	if c.connCB != nil {
		c.connCB(c, channel.Connected)
	}
}

// serverStateChanged is invoked by the variable when the simulated
// server flips up or down.
func (c *simChannel) serverStateChanged(up bool) {
	if up {
		c.mu.Lock()
		idle := c.idle
		c.mu.Unlock()
		if !idle {
			c.markConnected()
		}
		return
	}

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	c.connCh = make(chan struct{})
	c.mu.Unlock()

	if c.connCB != nil {
		c.connCB(c, channel.Disconnected)
	}
}

// accessChanged is invoked by the variable on a rights change.
func (c *simChannel) accessChanged(rights dbr.AccessRights) {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if connected && c.accessCB != nil {
		c.accessCB(c, rights)
	}
}

func (c *simChannel) Name() string { return c.name }

func (c *simChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *simChannel) WaitForConnection(ctx context.Context, timeout time.Duration) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	if c.idle {
		c.mu.Unlock()
		return channel.ErrChannelClosed
	}
	ch := c.connCh
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-timer.C:
		return channel.ErrConnectTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *simChannel) NativeType() dbr.FieldType {
	if c.v == nil {
		return dbr.String
	}
	return c.v.nativeType()
}

func (c *simChannel) NativeCount() int {
	if c.v == nil {
		return 0
	}
	return c.v.nativeCount()
}

func (c *simChannel) AccessRights() dbr.AccessRights {
	if c.v == nil || !c.Connected() {
		return dbr.NoAccess
	}
	return c.v.accessRights()
}

func (c *simChannel) Read(ctx context.Context, dataType dbr.FieldType, count int, timeout time.Duration) (*channel.ReadResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Connected() {
		return nil, channel.ErrDisconnected
	}
	return c.v.response(dataType, count)
}

func (c *simChannel) Write(ctx context.Context, value dbr.Array, opts channel.WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.Connected() {
		return channel.ErrDisconnected
	}
	if !c.v.accessRights().CanWrite() {
		return ErrNoWriteAccess
	}
	// Validate before accepting, so a fire-and-forget write of garbage
	// still errors at the caller.
	if _, err := value.ConvertTo(c.v.nativeType()); err != nil {
		return err
	}

	delay := c.v.processingDelay()
	complete := func() {
		_ = c.v.process(value)
		if opts.Notify && opts.OnComplete != nil {
			opts.OnComplete()
		}
	}

	if !opts.Wait {
		if delay > 0 {
			go func() {
				time.Sleep(delay)
				complete()
			}()
			return nil
		}
		complete()
		return nil
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		var deadline <-chan time.Time
		if opts.Timeout > 0 {
			t := time.NewTimer(opts.Timeout)
			defer t.Stop()
			deadline = t.C
		}
		select {
		case <-timer.C:
		case <-deadline:
			// Server keeps processing; the caller just stops waiting.
			go func() {
				time.Sleep(delay)
				complete()
			}()
			return channel.ErrWriteTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	complete()
	return nil
}

func (c *simChannel) Subscribe(dataType dbr.FieldType, count int, mask dbr.EventMask) (channel.Subscription, error) {
	if c.v == nil {
		return nil, channel.ErrDisconnected
	}
	s := newSubscription(c.v, dataType, count, mask)
	c.v.addSub(s)
	return s, nil
}

func (c *simChannel) GoIdle() error {
	c.mu.Lock()
	if c.idle {
		c.mu.Unlock()
		return nil
	}
	c.idle = true
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if c.v != nil {
		c.v.detach(c)
	}
	if wasConnected && c.connCB != nil {
		c.connCB(c, channel.Closed)
	}
	return nil
}
