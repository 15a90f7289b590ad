package dbr

// AccessRights is the read/write permission bitmask reported by a
// channel.
type AccessRights uint8

const (
	NoAccess  AccessRights = 0
	ReadOnly  AccessRights = 1
	WriteOnly AccessRights = 2
	ReadWrite AccessRights = 3
)

// CanRead returns true if the rights include read access.
func (a AccessRights) CanRead() bool {
	return a&ReadOnly != 0
}

// CanWrite returns true if the rights include write access.
func (a AccessRights) CanWrite() bool {
	return a&WriteOnly != 0
}

// String returns the conventional access description.
func (a AccessRights) String() string {
	switch a {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	case ReadWrite:
		return "read/write"
	default:
		return "no access"
	}
}
