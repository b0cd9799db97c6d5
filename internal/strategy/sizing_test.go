package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/rxtech-lab/argo-router/internal/config"
	"github.com/rxtech-lab/argo-router/internal/types"
	apperrors "github.com/rxtech-lab/argo-router/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSizerQuantity(t *testing.T) {
	accounts := &fakeAccounts{info: types.AccountInfo{Cash: 1000, Equity: 3000}}

	tests := []struct {
		name     string
		sizing   config.Sizing
		accounts AccountProvider
		exposure types.Exposure
		price    float64
		want     float64
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "long sizes on cash",
			sizing:   config.Sizing{Fraction: 0.5, Precision: 8},
			accounts: accounts,
			exposure: types.ExposureLong,
			price:    100,
			want:     5,
		},
		{
			name:     "short sizes on equity",
			sizing:   config.Sizing{Fraction: 0.5, Precision: 8},
			accounts: accounts,
			exposure: types.ExposureShort,
			price:    100,
			want:     15,
		},
		{
			name:     "truncated to precision",
			sizing:   config.Sizing{Fraction: 0.1, Precision: 2},
			accounts: accounts,
			exposure: types.ExposureLong,
			price:    3,
			want:     33.33,
		},
		{
			name:     "zero price",
			sizing:   config.Sizing{Fraction: 0.1, Precision: 8},
			accounts: accounts,
			exposure: types.ExposureLong,
			price:    0,
			wantCode: apperrors.ErrCodeSizingFailed,
		},
		{
			name:     "quantity truncates to zero",
			sizing:   config.Sizing{Fraction: 0.001, Precision: 0},
			accounts: accounts,
			exposure: types.ExposureLong,
			price:    100,
			wantCode: apperrors.ErrCodeSizingFailed,
		},
		{
			name:     "no account provider",
			sizing:   config.Sizing{Fraction: 0.1, Precision: 8},
			accounts: nil,
			exposure: types.ExposureLong,
			price:    100,
			wantCode: apperrors.ErrCodeSizingFailed,
		},
		{
			name:     "account query fails",
			sizing:   config.Sizing{Fraction: 0.1, Precision: 8},
			accounts: &fakeAccounts{err: errors.New("timeout")},
			exposure: types.ExposureShort,
			price:    100,
			wantCode: apperrors.ErrCodeSizingFailed,
		},
		{
			name:     "unknown exposure",
			sizing:   config.Sizing{Fraction: 0.1, Precision: 8},
			accounts: accounts,
			exposure: "FLAT",
			price:    100,
			wantCode: apperrors.ErrCodeSizingFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, err := NewSizer(tt.sizing, tt.accounts).Quantity(context.Background(), types.VenuePaper, tt.exposure, tt.price)
			if tt.wantCode != 0 {
				assert.True(t, apperrors.HasCode(err, tt.wantCode))

				return
			}

			assert.NoError(t, err)
			assert.InDelta(t, tt.want, qty, 1e-9)
		})
	}
}
