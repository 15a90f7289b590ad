package sim

import (
	"errors"
	"sync"
	"time"

	"github.com/epics-tools/cago/pkg/channel"
	"github.com/epics-tools/cago/pkg/dbr"
)

// Provider errors.
var (
	// ErrUnknownPV is returned by helpers addressing an undeclared name.
	ErrUnknownPV = errors.New("unknown pv")

	// ErrNoWriteAccess is returned by writes to a read-only variable.
	ErrNoWriteAccess = errors.New("no write access")
)

// Limits holds the four limit pairs a control-form read serves.
type Limits struct {
	LowerDisp, UpperDisp       float64
	LowerAlarm, UpperAlarm     float64
	LowerWarning, UpperWarning float64
	LowerCtrl, UpperCtrl       float64
}

// Config declares one simulated variable.
type Config struct {
	// Type is the native field type (dbr.Double, dbr.Enum, ...).
	Type dbr.FieldType

	// Count is the native element count. 0 derives it from Value.
	Count int

	// Value is the initial value, in any form dbr.ArrayFrom accepts.
	Value any

	// EnumStrs is the name list served for enum variables.
	EnumStrs []string

	// Units, Precision and Limits are served on graphic and control
	// reads.
	Units     string
	Precision int16
	Limits    *Limits

	// Rights is the access mask. The zero value means read/write.
	Rights dbr.AccessRights

	// ConnectDelay postpones the connect notification.
	ConnectDelay time.Duration

	// ProcessingDelay postpones write completion.
	ProcessingDelay time.Duration

	// Status and Severity are the alarm condition served on
	// status-bearing reads.
	Status   int16
	Severity int16
}

// Provider is an in-memory channel provider. Safe for concurrent use.
type Provider struct {
	mu   sync.Mutex
	vars map[string]*variable
}

// NewProvider returns an empty provider.
func NewProvider() *Provider {
	return &Provider{vars: make(map[string]*variable)}
}

// Add declares a variable. Redeclaring a name replaces it.
func (p *Provider) Add(name string, cfg Config) error {
	v, err := newVariable(name, cfg)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.vars[name] = v
	p.mu.Unlock()
	return nil
}

// PVs returns one channel per name. Channels for declared names connect
// in the background; channels for unknown names stay connecting
// forever.
func (p *Provider) PVs(names []string, connCB channel.ConnectionCallback, accessCB channel.AccessCallback) ([]channel.Channel, error) {
	out := make([]channel.Channel, len(names))
	for i, name := range names {
		p.mu.Lock()
		v := p.vars[name]
		p.mu.Unlock()

		ch := newChannel(name, v, connCB, accessCB)
		out[i] = ch
		if v != nil {
			go ch.connectAfter(v.connectDelay())
		}
	}
	return out, nil
}

// SetValue updates a variable as if the server processed a write:
// converts, stamps, and notifies every subscription.
func (p *Provider) SetValue(name string, value any) error {
	p.mu.Lock()
	v := p.vars[name]
	p.mu.Unlock()
	if v == nil {
		return ErrUnknownPV
	}
	arr, err := dbr.ArrayFrom(value)
	if err != nil {
		return err
	}
	return v.process(arr)
}

// SetAccessRights changes a variable's access mask and notifies every
// attached channel.
func (p *Provider) SetAccessRights(name string, rights dbr.AccessRights) error {
	p.mu.Lock()
	v := p.vars[name]
	p.mu.Unlock()
	if v == nil {
		return ErrUnknownPV
	}
	v.setRights(rights)
	return nil
}

// Disconnect takes a variable's server down: every attached channel
// reports disconnected until Reconnect.
func (p *Provider) Disconnect(name string) error {
	p.mu.Lock()
	v := p.vars[name]
	p.mu.Unlock()
	if v == nil {
		return ErrUnknownPV
	}
	v.setUp(false)
	return nil
}

// Reconnect brings a variable's server back up.
func (p *Provider) Reconnect(name string) error {
	p.mu.Lock()
	v := p.vars[name]
	p.mu.Unlock()
	if v == nil {
		return ErrUnknownPV
	}
	v.setUp(true)
	return nil
}

// Names returns the declared variable names.
func (p *Provider) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.vars))
	for name := range p.vars {
		names = append(names, name)
	}
	return names
}
