package pv

import (
	"context"
	"fmt"
	"strings"
)

// Info returns a human-readable multi-line description of the handle:
// type, count, value, access, and whatever metadata is cached. It
// performs a control-form fetch so units and limits are populated.
func (p *PV) Info(ctx context.Context) (string, error) {
	if _, err := p.Get(ctx, GetOptions{WithCtrlVars: true}); err != nil {
		return "", err
	}
	snap := p.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", snap.Name)
	if snap.HasType {
		fmt.Fprintf(&b, "   type      = %s (%s)\n", snap.Type, snap.TypeFull)
		fmt.Fprintf(&b, "   count     = %d (native %d)\n", snap.ElementCount, snap.NativeCount)
	} else {
		b.WriteString("   (never connected)\n")
	}
	fmt.Fprintf(&b, "   access    = %s\n", snap.Access)
	fmt.Fprintf(&b, "   value     = %v\n", snap.Value)
	if snap.CharValue.Resolved() {
		fmt.Fprintf(&b, "   char_value= %v\n", snap.CharValue.Value())
	}
	if snap.Status != nil && snap.Severity != nil {
		fmt.Fprintf(&b, "   status    = %d, severity = %d\n", *snap.Status, *snap.Severity)
	}
	if snap.HasTimestamp {
		fmt.Fprintf(&b, "   timestamp = %s\n", snap.Timestamp.Format("2006-01-02 15:04:05.000"))
	}
	if snap.Units != nil {
		fmt.Fprintf(&b, "   units     = %s\n", *snap.Units)
	}
	if snap.Precision != nil {
		fmt.Fprintf(&b, "   precision = %d\n", *snap.Precision)
	}
	if snap.EnumStrs != nil {
		fmt.Fprintf(&b, "   enum strings:\n")
		for i, s := range snap.EnumStrs {
			fmt.Fprintf(&b, "      %d = %s\n", i, s)
		}
	}
	writeLimit(&b, "display", snap.LowerDispLimit, snap.UpperDispLimit)
	writeLimit(&b, "alarm", snap.LowerAlarmLimit, snap.UpperAlarmLimit)
	writeLimit(&b, "warning", snap.LowerWarningLimit, snap.UpperWarningLimit)
	writeLimit(&b, "control", snap.LowerCtrlLimit, snap.UpperCtrlLimit)
	return b.String(), nil
}

func writeLimit(b *strings.Builder, name string, lo, hi *float64) {
	if lo == nil && hi == nil {
		return
	}
	b.WriteString("   " + name + " limits = [")
	if lo != nil {
		fmt.Fprintf(b, "%g", *lo)
	} else {
		b.WriteString("?")
	}
	b.WriteString(", ")
	if hi != nil {
		fmt.Fprintf(b, "%g", *hi)
	} else {
		b.WriteString("?")
	}
	b.WriteString("]\n")
}
