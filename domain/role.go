package domain

import "strings"

// Role is one of the four supply-chain participants.
type Role string

const (
	RoleFarmer       Role = "Farmer"
	RoleLab          Role = "Lab"
	RoleManufacturer Role = "Manufacturer"
	RoleRegulator    Role = "Regulator"
)

// Capability is a write operation gated by role.
type Capability string

const (
	CapRecordCollection Capability = "record_collection"
	CapRecordTest       Capability = "record_test"
	CapRecordStep       Capability = "record_step"
	CapFinalizeBatch    Capability = "finalize_batch"
	CapRejectBatch      Capability = "reject_batch"
	CapManageFarmers    Capability = "manage_farmers"
	CapAuditBatches     Capability = "audit_batches"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleFarmer: {
		CapRecordCollection: {},
		CapManageFarmers:    {},
	},
	RoleLab: {
		CapRecordTest: {},
	},
	RoleManufacturer: {
		CapRecordStep:    {},
		CapFinalizeBatch: {},
	},
	RoleRegulator: {
		CapRejectBatch:   {},
		CapManageFarmers: {},
		CapAuditBatches:  {},
	},
}

// ParseRole matches a role name case-insensitively.
func ParseRole(value string) (Role, bool) {
	for role := range roleCapabilities {
		if strings.EqualFold(string(role), strings.TrimSpace(value)) {
			return role, true
		}
	}
	return "", false
}

func (r Role) Can(c Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}
