package pv

import "github.com/epics-tools/cago/pkg/dbr"

// coerceValue applies caller-requested output shaping to a resolved
// raw value: string form, enum-name form, scalar vs array, generic
// list conversion. Byte order is already native (normalized when the
// array was decoded).
func coerceValue(raw dbr.Array, display dbr.Display, fullType dbr.FieldType,
	nativeCount, requestedCount int, enumNames []string, asString, asList bool) (any, error) {

	class := fullType.Class()

	// String data always presents as text; char data only when asked.
	if class == dbr.ClassString || (asString && class == dbr.ClassChar) {
		return display.Value(), nil
	}

	if asString && class == dbr.ClassEnum {
		if enumNames == nil {
			return nil, ErrEnumStringsUnset
		}
		indices := raw.EnumSlice()
		items := make([]string, len(indices))
		for i, idx := range indices {
			if int(idx) < len(enumNames) {
				items[i] = enumNames[idx]
			}
		}
		if len(items) == 1 {
			return items[0], nil
		}
		return items, nil
	}

	if nativeCount == 1 && raw.Len() == 1 {
		// An explicit element count keeps array form even for a
		// single element.
		if requestedCount == 0 {
			return raw.At(0), nil
		}
		return raw.Value(), nil
	}

	if asList {
		return raw.ToList(), nil
	}

	return raw.Value(), nil
}
