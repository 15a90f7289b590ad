// Package dbr defines the channel-access field-type system shared by the
// client facade and channel providers: field type codes and their
// status/time/graphic/control promotions, decoded value arrays, access
// rights, event masks, alarm enums, and the protocol epoch conversion.
package dbr
