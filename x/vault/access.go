package vault

import (
	"github.com/iov-one/custody/errors"
)

// requireRole is the authorization gate of every vault scoped operation.
// The caller must be an active member of the vault and, unless no roles are
// given, have one of the roles.
func requireRole(v *Vault, caller string, roles ...Role) (*VaultMember, error) {
	mem, ok := v.Member(caller)
	if !ok || mem.State != ObjectStateActive {
		return nil, errors.Wrap(errors.ErrUnauthorized, "unauthorised")
	}
	if len(roles) == 0 {
		return mem, nil
	}
	for _, r := range roles {
		if mem.Role == r {
			return mem, nil
		}
	}
	return nil, errors.Wrap(errors.ErrUnauthorized, "not enough permissions")
}

// requireActive fails for archived vaults. Only update_vault may touch an
// archived vault, to restore it.
func requireActive(v *Vault) error {
	if v.State != ObjectStateActive {
		return errors.Wrapf(errors.ErrInvalidState, "vault %d is archived", v.Id)
	}
	return nil
}
