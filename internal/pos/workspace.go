package pos

// WorkspaceFlag is a per-point-of-sale configuration bitmask.
type WorkspaceFlag uint32

// FlagRoundPayableAmount switches the payable amount from the cross total to
// the cross total floored to one decimal place.
const FlagRoundPayableAmount WorkspaceFlag = 1 << 2

// Has reports whether the given flag bit is set.
func (f WorkspaceFlag) Has(flag WorkspaceFlag) bool {
	return f&flag != 0
}

// Workspace is the point-of-sale context served by the gateway.
type Workspace struct {
	OID    string        `json:"oid"`
	Name   string        `json:"name"`
	PosOID string        `json:"posOid"`
	Flags  WorkspaceFlag `json:"flags"`
}
