package x

import (
	"context"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/vaulttest"
	"github.com/iov-one/custody/vaulttest/assert"
)

func TestAuth(t *testing.T) {
	a := vaulttest.NewCondition()
	b := vaulttest.NewCondition()
	c := vaulttest.NewCondition()

	ctx1 := &vaulttest.CtxAuth{Key: "foo"}
	ctx2 := &vaulttest.CtxAuth{Key: "bar"}

	cases := map[string]struct {
		ctx          context.Context
		auth         Authenticator
		mainSigner   custody.Condition
		wantInCtx    custody.Condition
		wantNotInCtx custody.Condition
		wantAll      []custody.Condition
	}{
		"empty context": {
			ctx:          context.Background(),
			auth:         &vaulttest.Auth{},
			wantNotInCtx: b,
		},
		"signer a": {
			ctx:          context.Background(),
			auth:         &vaulttest.Auth{Signer: a},
			mainSigner:   a,
			wantInCtx:    a,
			wantNotInCtx: b,
			wantAll:      []custody.Condition{a},
		},
		"chained signers": {
			ctx: context.Background(),
			auth: ChainAuth(
				&vaulttest.Auth{Signer: b},
				&vaulttest.Auth{Signer: a}),
			mainSigner:   b,
			wantInCtx:    a,
			wantNotInCtx: c,
			wantAll:      []custody.Condition{b, a},
		},
		"ctxAuth checks what is set by same key": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx1,
			mainSigner:   a,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []custody.Condition{a, b},
		},
		"ctxAuth with different key sees nothing": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx2,
			wantNotInCtx: a,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.mainSigner, MainSigner(tc.ctx, tc.auth))
			if tc.wantInCtx != nil && !tc.auth.HasAddress(tc.ctx, tc.wantInCtx.Address()) {
				t.Fatal("condition address that was expected in context not found")
			}
			if tc.wantNotInCtx != nil && tc.auth.HasAddress(tc.ctx, tc.wantNotInCtx.Address()) {
				t.Fatal("condition address that was expected not to be in context found")
			}

			all := tc.auth.GetConditions(tc.ctx)
			assert.Equal(t, tc.wantAll, all)
			assert.Equal(t, len(all), len(GetAddresses(tc.ctx, tc.auth)))

			caller, err := Caller(tc.ctx, tc.auth)
			if tc.mainSigner == nil {
				assert.IsErr(t, errors.ErrUnauthorized, err)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, tc.mainSigner.Address().String(), caller)
			}
		})
	}
}
