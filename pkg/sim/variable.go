package sim

import (
	"sync"
	"time"

	"github.com/epics-tools/cago/pkg/channel"
	"github.com/epics-tools/cago/pkg/dbr"
)

// variable is the server-side state of one simulated process variable.
type variable struct {
	name string

	mu       sync.Mutex
	cfg      Config
	value    dbr.Array
	rights   dbr.AccessRights
	status   int16
	severity int16
	stamp    time.Time
	up       bool

	channels map[*simChannel]struct{}
	subs     map[*subscription]struct{}
}

func newVariable(name string, cfg Config) (*variable, error) {
	native := cfg.Type.Native()
	arr, err := dbr.ArrayFrom(cfg.Value)
	if err != nil {
		return nil, err
	}
	arr, err = arr.ConvertTo(native)
	if err != nil {
		return nil, err
	}
	if cfg.Count == 0 {
		cfg.Count = arr.Len()
	}
	cfg.Type = native
	rights := cfg.Rights
	if rights == dbr.NoAccess {
		rights = dbr.ReadWrite
	}
	return &variable{
		name:     name,
		cfg:      cfg,
		value:    arr,
		rights:   rights,
		status:   cfg.Status,
		severity: cfg.Severity,
		stamp:    time.Now(),
		up:       true,
		channels: make(map[*simChannel]struct{}),
		subs:     make(map[*subscription]struct{}),
	}, nil
}

func (v *variable) connectDelay() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg.ConnectDelay
}

func (v *variable) processingDelay() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg.ProcessingDelay
}

func (v *variable) isUp() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.up
}

func (v *variable) nativeType() dbr.FieldType {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg.Type
}

func (v *variable) nativeCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg.Count
}

func (v *variable) accessRights() dbr.AccessRights {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rights
}

func (v *variable) attach(c *simChannel) {
	v.mu.Lock()
	v.channels[c] = struct{}{}
	v.mu.Unlock()
}

func (v *variable) detach(c *simChannel) {
	v.mu.Lock()
	delete(v.channels, c)
	v.mu.Unlock()
}

func (v *variable) addSub(s *subscription) {
	v.mu.Lock()
	v.subs[s] = struct{}{}
	v.mu.Unlock()
}

func (v *variable) removeSub(s *subscription) {
	v.mu.Lock()
	delete(v.subs, s)
	v.mu.Unlock()
}

// process applies a validated write: convert to the native type, stamp,
// and fan the update out to every subscription.
func (v *variable) process(arr dbr.Array) error {
	v.mu.Lock()
	native := v.cfg.Type
	v.mu.Unlock()

	converted, err := arr.ConvertTo(native)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.value = converted
	v.stamp = time.Now()
	subs := make([]*subscription, 0, len(v.subs))
	for s := range v.subs {
		subs = append(subs, s)
	}
	v.mu.Unlock()

	for _, s := range subs {
		s.deliver()
	}
	return nil
}

// setRights changes the access mask and notifies every channel.
func (v *variable) setRights(rights dbr.AccessRights) {
	v.mu.Lock()
	v.rights = rights
	chans := make([]*simChannel, 0, len(v.channels))
	for c := range v.channels {
		chans = append(chans, c)
	}
	v.mu.Unlock()

	for _, c := range chans {
		c.accessChanged(rights)
	}
}

// setUp flips the simulated server up or down, notifying every channel
// of the resulting connection state.
func (v *variable) setUp(up bool) {
	v.mu.Lock()
	if v.up == up {
		v.mu.Unlock()
		return
	}
	v.up = up
	chans := make([]*simChannel, 0, len(v.channels))
	for c := range v.channels {
		chans = append(chans, c)
	}
	v.mu.Unlock()

	for _, c := range chans {
		c.serverStateChanged(up)
	}
}

// response builds a read or monitor response of count elements served
// as dataType. count 0 means the native count.
func (v *variable) response(dataType dbr.FieldType, count int) (*channel.ReadResponse, error) {
	v.mu.Lock()
	value := v.value
	cfg := v.cfg
	status := v.status
	severity := v.severity
	stamp := v.stamp
	v.mu.Unlock()

	data, err := value.ConvertTo(dataType.Native())
	if err != nil {
		return nil, err
	}
	if count > 0 && count < data.Len() {
		data = data.Slice(count)
	}

	resp := &channel.ReadResponse{
		DataType:  dataType,
		DataCount: data.Len(),
		Data:      data,
	}

	form := dataType.Form()
	if form == dbr.FormNative {
		return resp, nil
	}

	resp.Meta.Status = &status
	resp.Meta.Severity = &severity

	switch form {
	case dbr.FormTime:
		secs, nanos := dbr.TimeToEpoch(stamp)
		resp.Meta.HasTimestamp = true
		resp.Meta.Seconds = secs
		resp.Meta.Nanoseconds = nanos

	case dbr.FormGraphic, dbr.FormControl:
		v.fillGraphicMeta(&resp.Meta, &cfg, dataType, form)
	}

	return resp, nil
}

// fillGraphicMeta adds the units, precision, limits and enum names a
// graphic or control form carries.
func (v *variable) fillGraphicMeta(meta *dbr.ResponseMeta, cfg *Config, dataType dbr.FieldType, form dbr.Form) {
	switch dataType.Class() {
	case dbr.ClassEnum:
		names := make([][]byte, len(cfg.EnumStrs))
		for i, s := range cfg.EnumStrs {
			names[i] = dbr.EncodeText(s)
		}
		meta.EnumStrings = names
		return
	case dbr.ClassString:
		return
	}

	meta.Units = dbr.EncodeText(cfg.Units)
	if dataType.Native() == dbr.Float || dataType.Native() == dbr.Double {
		prec := cfg.Precision
		meta.Precision = &prec
	}
	if cfg.Limits == nil {
		return
	}
	lim := *cfg.Limits
	meta.LowerDispLimit = &lim.LowerDisp
	meta.UpperDispLimit = &lim.UpperDisp
	meta.LowerAlarmLimit = &lim.LowerAlarm
	meta.UpperAlarmLimit = &lim.UpperAlarm
	meta.LowerWarningLimit = &lim.LowerWarning
	meta.UpperWarningLimit = &lim.UpperWarning
	if form == dbr.FormControl {
		meta.LowerCtrlLimit = &lim.LowerCtrl
		meta.UpperCtrlLimit = &lim.UpperCtrl
	}
}
