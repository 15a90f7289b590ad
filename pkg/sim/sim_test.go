package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/epics-tools/cago/pkg/channel"
	"github.com/epics-tools/cago/pkg/dbr"
)

func newTestChannel(t *testing.T, prov *Provider, name string,
	connCB channel.ConnectionCallback, accessCB channel.AccessCallback) channel.Channel {
	t.Helper()
	chs, err := prov.PVs([]string{name}, connCB, accessCB)
	if err != nil {
		t.Fatalf("PVs: %v", err)
	}
	return chs[0]
}

func TestChannelConnects(t *testing.T) {
	prov := NewProvider()
	if err := prov.Add("temp", Config{Type: dbr.Double, Value: 21.5}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ch := newTestChannel(t, prov, "temp", nil, nil)
	if err := ch.WaitForConnection(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForConnection: %v", err)
	}
	if !ch.Connected() {
		t.Fatal("channel not connected after wait")
	}
	if got := ch.NativeType(); got != dbr.Double {
		t.Errorf("NativeType = %v, want DOUBLE", got)
	}
	if got := ch.NativeCount(); got != 1 {
		t.Errorf("NativeCount = %d, want 1", got)
	}
	if got := ch.AccessRights(); got != dbr.ReadWrite {
		t.Errorf("AccessRights = %v, want read/write", got)
	}
}

func TestUnknownNameNeverConnects(t *testing.T) {
	prov := NewProvider()
	ch := newTestChannel(t, prov, "no:such:pv", nil, nil)
	err := ch.WaitForConnection(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, channel.ErrConnectTimeout) {
		t.Fatalf("WaitForConnection = %v, want ErrConnectTimeout", err)
	}
}

func TestReadForms(t *testing.T) {
	prov := NewProvider()
	err := prov.Add("pressure", Config{
		Type:      dbr.Double,
		Value:     3.25,
		Units:     "bar",
		Precision: 2,
		Limits: &Limits{
			LowerDisp: 0, UpperDisp: 10,
			LowerCtrl: 0.5, UpperCtrl: 9.5,
		},
		Status:   0,
		Severity: 0,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	ch := newTestChannel(t, prov, "pressure", nil, nil)
	if err := ch.WaitForConnection(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForConnection: %v", err)
	}
	ctx := context.Background()

	native, err := ch.Read(ctx, dbr.Double, 0, time.Second)
	if err != nil {
		t.Fatalf("Read native: %v", err)
	}
	if native.Meta.Status != nil {
		t.Error("native read carried status")
	}

	timed, err := ch.Read(ctx, dbr.TimeDouble, 0, time.Second)
	if err != nil {
		t.Fatalf("Read time: %v", err)
	}
	if timed.Meta.Status == nil || timed.Meta.Severity == nil {
		t.Error("time read missing alarm condition")
	}
	if !timed.Meta.HasTimestamp {
		t.Error("time read missing timestamp")
	}

	ctrl, err := ch.Read(ctx, dbr.CtrlDouble, 0, time.Second)
	if err != nil {
		t.Fatalf("Read ctrl: %v", err)
	}
	if got := dbr.DecodeText(ctrl.Meta.Units); got != "bar" {
		t.Errorf("units = %q, want bar", got)
	}
	if ctrl.Meta.Precision == nil || *ctrl.Meta.Precision != 2 {
		t.Errorf("precision = %v, want 2", ctrl.Meta.Precision)
	}
	if ctrl.Meta.UpperCtrlLimit == nil || *ctrl.Meta.UpperCtrlLimit != 9.5 {
		t.Errorf("upper ctrl limit = %v, want 9.5", ctrl.Meta.UpperCtrlLimit)
	}
	if ctrl.Meta.HasTimestamp {
		t.Error("ctrl read carried a timestamp")
	}
}

func TestReadEnumNames(t *testing.T) {
	prov := NewProvider()
	err := prov.Add("mode", Config{
		Type:     dbr.Enum,
		Value:    uint16(1),
		EnumStrs: []string{"Off", "On", "Fault"},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	ch := newTestChannel(t, prov, "mode", nil, nil)
	if err := ch.WaitForConnection(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForConnection: %v", err)
	}

	resp, err := ch.Read(context.Background(), dbr.CtrlEnum, 0, time.Second)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(resp.Meta.EnumStrings) != 3 {
		t.Fatalf("enum strings = %d, want 3", len(resp.Meta.EnumStrings))
	}
	if got := dbr.DecodeText(resp.Meta.EnumStrings[1]); got != "On" {
		t.Errorf("enum string 1 = %q, want On", got)
	}
	if got := resp.Data.EnumSlice(); len(got) != 1 || got[0] != 1 {
		t.Errorf("value = %v, want [1]", got)
	}
}

func TestWriteNotifiesSubscriptions(t *testing.T) {
	prov := NewProvider()
	if err := prov.Add("sp", Config{Type: dbr.Double, Value: 1.0}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ch := newTestChannel(t, prov, "sp", nil, nil)
	if err := ch.WaitForConnection(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForConnection: %v", err)
	}

	sub, err := ch.Subscribe(dbr.TimeDouble, 0, dbr.DefaultEventMask)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	updates := make(chan float64, 4)
	sub.AddCallback(func(_ channel.Subscription, resp *channel.ReadResponse) {
		if f, ok := resp.Data.FloatAt(0); ok {
			updates <- f
		}
	})

	// Priming update with the current value.
	select {
	case got := <-updates:
		if got != 1.0 {
			t.Fatalf("priming update = %v, want 1.0", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no priming update")
	}

	arr, err := dbr.ArrayFrom(2.5)
	if err != nil {
		t.Fatalf("ArrayFrom: %v", err)
	}
	if err := ch.Write(context.Background(), arr, channel.WriteOptions{Wait: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case got := <-updates:
		if got != 2.5 {
			t.Fatalf("update = %v, want 2.5", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no update after write")
	}

	if err := sub.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
}

func TestWriteCompletionCallback(t *testing.T) {
	prov := NewProvider()
	err := prov.Add("slow", Config{
		Type:            dbr.Long,
		Value:           int32(0),
		ProcessingDelay: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	ch := newTestChannel(t, prov, "slow", nil, nil)
	if err := ch.WaitForConnection(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForConnection: %v", err)
	}

	done := make(chan struct{})
	arr, _ := dbr.ArrayFrom(int32(7))
	err = ch.Write(context.Background(), arr, channel.WriteOptions{
		Notify:     true,
		OnComplete: func() { close(done) },
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("completion callback never fired")
	}

	resp, err := ch.Read(context.Background(), dbr.Long, 0, time.Second)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := resp.Data.At(0); got != int32(7) {
		t.Errorf("value after write = %v, want 7", got)
	}
}

func TestWriteReadOnly(t *testing.T) {
	prov := NewProvider()
	err := prov.Add("ro", Config{Type: dbr.Double, Value: 1.0, Rights: dbr.ReadOnly})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	ch := newTestChannel(t, prov, "ro", nil, nil)
	if err := ch.WaitForConnection(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForConnection: %v", err)
	}

	arr, _ := dbr.ArrayFrom(2.0)
	err = ch.Write(context.Background(), arr, channel.WriteOptions{})
	if !errors.Is(err, ErrNoWriteAccess) {
		t.Fatalf("Write = %v, want ErrNoWriteAccess", err)
	}
}

func TestWriteValidation(t *testing.T) {
	prov := NewProvider()
	if err := prov.Add("num", Config{Type: dbr.Double, Value: 1.0}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ch := newTestChannel(t, prov, "num", nil, nil)
	if err := ch.WaitForConnection(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForConnection: %v", err)
	}

	arr := dbr.Strings([]string{"not a number"})
	if err := ch.Write(context.Background(), arr, channel.WriteOptions{}); err == nil {
		t.Fatal("Write accepted unparseable text for a numeric variable")
	}
}

func TestDisconnectReconnect(t *testing.T) {
	prov := NewProvider()
	if err := prov.Add("flaky", Config{Type: dbr.Long, Value: int32(1)}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	states := make(chan channel.ConnState, 8)
	connCB := func(_ channel.Channel, state channel.ConnState) {
		states <- state
	}
	ch := newTestChannel(t, prov, "flaky", connCB, nil)

	waitState := func(want channel.ConnState) {
		t.Helper()
		for {
			select {
			case got := <-states:
				if got == want {
					return
				}
			case <-time.After(time.Second):
				t.Fatalf("never observed state %v", want)
			}
		}
	}

	waitState(channel.Connected)

	if err := prov.Disconnect("flaky"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	waitState(channel.Disconnected)
	if ch.Connected() {
		t.Error("channel still connected after server down")
	}
	if _, err := ch.Read(context.Background(), dbr.Long, 0, time.Second); !errors.Is(err, channel.ErrDisconnected) {
		t.Errorf("Read = %v, want ErrDisconnected", err)
	}

	if err := prov.Reconnect("flaky"); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	waitState(channel.Connected)
}

func TestSetValueFansOut(t *testing.T) {
	prov := NewProvider()
	if err := prov.Add("counter", Config{Type: dbr.Long, Value: int32(0)}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ch := newTestChannel(t, prov, "counter", nil, nil)
	if err := ch.WaitForConnection(context.Background(), time.Second); err != nil {
		t.Fatalf("WaitForConnection: %v", err)
	}

	sub, err := ch.Subscribe(dbr.TimeLong, 0, dbr.DefaultEventMask)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	updates := make(chan int32, 4)
	sub.AddCallback(func(_ channel.Subscription, resp *channel.ReadResponse) {
		updates <- resp.Data.At(0).(int32)
	})
	<-updates // priming

	if err := prov.SetValue("counter", int32(42)); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	select {
	case got := <-updates:
		if got != 42 {
			t.Fatalf("update = %d, want 42", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no update after SetValue")
	}
}
