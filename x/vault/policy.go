package vault

import (
	"github.com/iov-one/custody/errors"
)

// rule is implemented by every policy variant.
type rule interface {
	Validate() error
	// covers returns true if the policy may govern a transaction of the
	// amount out of the wallet.
	covers(amount, walletID uint64) bool
	// rank orders covering policies, the highest rank wins.
	rank() uint64
	// snapshot copies the approval requirements into the transaction.
	// activeMembers is the number of active vault members.
	snapshot(tx *Transaction, activeMembers int)
	// scope returns the wallets the policy is limited to, empty for all.
	scope() []uint64
}

var _ rule = (*ThresholdPolicy)(nil)

// rule returns the variant that is set.
func (m *PolicyType) rule() (rule, error) {
	var (
		r   rule
		set int
	)
	if m == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "policy type")
	}
	if m.Threshold != nil {
		r = m.Threshold
		set++
	}
	switch set {
	case 0:
		return nil, errors.Wrap(errors.ErrEmpty, "no policy variant set")
	case 1:
		return r, nil
	default:
		return nil, errors.Wrap(errors.ErrInvalidInput, "more than one policy variant set")
	}
}

func (m *ThresholdPolicy) covers(amount, walletID uint64) bool {
	if len(m.Wallets) != 0 && !containsID(m.Wallets, walletID) {
		return false
	}
	return m.AmountThreshold <= amount
}

func (m *ThresholdPolicy) rank() uint64 {
	return m.AmountThreshold
}

func (m *ThresholdPolicy) snapshot(tx *Transaction, activeMembers int) {
	tx.AmountThreshold = m.AmountThreshold
	tx.Currency = m.Currency
	tx.MemberThreshold = m.MemberThreshold
	if tx.MemberThreshold == 0 {
		tx.MemberThreshold = uint32(activeMembers)
	}
}

func (m *ThresholdPolicy) scope() []uint64 {
	return m.Wallets
}

// SelectApplicable returns the policy governing a transfer of the amount out
// of the wallet. Among the active policies that cover the transfer the one
// with the highest amount threshold wins, on a tie the later one in the
// list. ErrNotFound is returned if no policy covers the transfer.
func SelectApplicable(policies []*Policy, amount, walletID uint64) (*Policy, error) {
	var (
		best     *Policy
		bestRank uint64
	)
	for _, p := range policies {
		if p.State != ObjectStateActive {
			continue
		}
		r, err := p.PolicyType.rule()
		if err != nil {
			return nil, errors.Wrapf(err, "policy %d", p.Id)
		}
		if !r.covers(amount, walletID) {
			continue
		}
		if best == nil || r.rank() >= bestRank {
			best, bestRank = p, r.rank()
		}
	}
	if best == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no policy applies to amount %d of wallet %d", amount, walletID)
	}
	return best, nil
}

// DefaultPolicy is registered with every vault. It covers any amount of any
// wallet and requires the approval of all active members.
func DefaultPolicy() *PolicyType {
	return &PolicyType{
		Threshold: &ThresholdPolicy{
			AmountThreshold: 0,
			Currency:        CurrencyICP,
			MemberThreshold: 0,
		},
	}
}
