package sim

import (
	"sync"

	"github.com/epics-tools/cago/pkg/channel"
	"github.com/epics-tools/cago/pkg/dbr"
)

// subscription is one live monitor on a variable.
type subscription struct {
	v        *variable
	dataType dbr.FieldType
	count    int
	mask     dbr.EventMask

	mu        sync.Mutex
	callbacks map[int]channel.SubscriptionCallback
	nextID    int
	cancelled bool
	primed    bool
}

var _ channel.Subscription = (*subscription)(nil)

func newSubscription(v *variable, dataType dbr.FieldType, count int, mask dbr.EventMask) *subscription {
	return &subscription{
		v:         v,
		dataType:  dataType,
		count:     count,
		mask:      mask,
		callbacks: make(map[int]channel.SubscriptionCallback),
	}
}

func (s *subscription) AddCallback(fn channel.SubscriptionCallback) int {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.callbacks[id] = fn
	prime := !s.primed
	s.primed = true
	s.mu.Unlock()

	if prime {
		// The priming update runs asynchronously so AddCallback can be
		// called from inside a connection callback.
		go s.deliver()
	}
	return id
}

func (s *subscription) RemoveCallback(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.callbacks, id)
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return nil
	}
	s.cancelled = true
	s.mu.Unlock()
	s.v.removeSub(s)
	return nil
}

// deliver sends the variable's current value to every callback. The
// simulator only generates value events.
func (s *subscription) deliver() {
	if s.mask&dbr.EventValue == 0 {
		return
	}
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	cbs := make([]channel.SubscriptionCallback, 0, len(s.callbacks))
	for _, cb := range s.callbacks {
		cbs = append(cbs, cb)
	}
	s.mu.Unlock()

	resp, err := s.v.response(s.dataType, s.count)
	if err != nil {
		return
	}
	for _, cb := range cbs {
		cb(s, resp)
	}
}
