package vault

import (
	"testing"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/vaulttest"
	"github.com/iov-one/custody/vaulttest/assert"
)

func TestModelValidate(t *testing.T) {
	admin := caller(vaulttest.NewCondition())
	block := uint64(3)

	validTx := func() *Transaction {
		return &Transaction{
			Id:              1,
			WalletId:        1,
			VaultId:         1,
			To:              recipient(),
			Approves:        []*Approve{{Signer: admin, Status: TransactionApproved}},
			Amount:          10,
			State:           TransactionPending,
			PolicyId:        1,
			MemberThreshold: 1,
			Currency:        CurrencyICP,
			Owner:           admin,
			Version:         1,
		}
	}

	cases := map[string]struct {
		model   orm.Model
		wantErr *errors.Error
	}{
		"valid vault": {
			model: &Vault{Id: 1, Name: "v", State: ObjectStateActive,
				Members: []*VaultMember{{Address: admin, Role: RoleAdmin, State: ObjectStateActive}}},
		},
		"vault without members": {
			model:   &Vault{Id: 1, Name: "v", State: ObjectStateActive},
			wantErr: errors.ErrEmpty,
		},
		"vault with a lower case member address": {
			model: &Vault{Id: 1, Name: "v", State: ObjectStateActive,
				Members: []*VaultMember{{Address: "ab" + admin[2:], Role: RoleAdmin, State: ObjectStateActive}}},
			wantErr: errors.ErrInvalidInput,
		},
		"vault with a duplicated member": {
			model: &Vault{Id: 1, Name: "v", State: ObjectStateActive, Members: []*VaultMember{
				{Address: admin, Role: RoleAdmin, State: ObjectStateActive},
				{Address: admin, Role: RoleMember, State: ObjectStateActive},
			}},
			wantErr: errors.ErrDuplicate,
		},
		"vault modified before created": {
			model: &Vault{Id: 1, Name: "v", State: ObjectStateActive, CreatedAt: 10, ModifiedAt: 5,
				Members: []*VaultMember{{Address: admin, Role: RoleAdmin, State: ObjectStateActive}}},
			wantErr: errors.ErrInvalidState,
		},
		"wallet without vault": {
			model:   &Wallet{Id: 1, State: ObjectStateActive},
			wantErr: errors.ErrEmpty,
		},
		"policy without type": {
			model:   &Policy{Id: 1, VaultId: 1, State: ObjectStateActive},
			wantErr: errors.ErrEmpty,
		},
		"valid transaction": {
			model: validTx(),
		},
		"block index of a pending transaction": {
			model: func() orm.Model {
				tx := validTx()
				tx.BlockIndex = &block
				return tx
			}(),
			wantErr: errors.ErrInvalidState,
		},
		"pending vote": {
			model: func() orm.Model {
				tx := validTx()
				tx.Approves[0].Status = TransactionPending
				return tx
			}(),
			wantErr: errors.ErrInvalidState,
		},
		"transaction without version": {
			model: func() orm.Model {
				tx := validTx()
				tx.Version = 0
				return tx
			}(),
			wantErr: errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.model.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
				return
			}
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}
