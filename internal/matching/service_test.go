package matching_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledger/internal/matching"
	"github.com/MrJamesThe3rd/ledger/internal/matching/memory"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

func TestService_Suggest(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	svc := matching.NewService(memory.New())

	for _, r := range []struct {
		typ      transaction.Type
		pattern  string
		category string
	}{
		{transaction.TypePayable, "energia", "Utilities"},
		{transaction.TypePayable, "energia solar", "Investments"},
		{transaction.TypePayable, "aluguel", "Rent"},
		{transaction.TypePayable, "ALUGUEL", "Office"},
		{transaction.TypeReceivable, "energia", "Resale"},
	} {
		_, err := svc.Learn(ctx, tenant, r.typ, r.pattern, r.category)
		require.NoError(t, err)
	}

	tests := []struct {
		name        string
		tenantID    uuid.UUID
		typ         transaction.Type
		description string
		want        string
	}{
		{name: "Substring", tenantID: tenant, typ: transaction.TypePayable, description: "Conta de Energia jan", want: "Utilities"},
		{name: "LongestPatternWins", tenantID: tenant, typ: transaction.TypePayable, description: "ENERGIA SOLAR parcela 3", want: "Investments"},
		{name: "NewestWinsOnTie", tenantID: tenant, typ: transaction.TypePayable, description: "Aluguel sala", want: "Office"},
		{name: "TypeScoped", tenantID: tenant, typ: transaction.TypeReceivable, description: "Venda energia", want: "Resale"},
		{name: "NoMatch", tenantID: tenant, typ: transaction.TypePayable, description: "Internet", want: ""},
		{name: "Blank", tenantID: tenant, typ: transaction.TypePayable, description: "  ", want: ""},
		{name: "OtherTenant", tenantID: uuid.New(), typ: transaction.TypePayable, description: "Energia", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Suggest(ctx, tt.tenantID, tt.typ, tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Learn_Invalid(t *testing.T) {
	svc := matching.NewService(memory.New())

	tests := []struct {
		name     string
		tenantID uuid.UUID
		typ      transaction.Type
		pattern  string
		category string
	}{
		{name: "NoTenant", tenantID: uuid.Nil, typ: transaction.TypePayable, pattern: "a", category: "b"},
		{name: "BadType", tenantID: uuid.New(), typ: "transfer", pattern: "a", category: "b"},
		{name: "BlankPattern", tenantID: uuid.New(), typ: transaction.TypePayable, pattern: " ", category: "b"},
		{name: "BlankCategory", tenantID: uuid.New(), typ: transaction.TypePayable, pattern: "a", category: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Learn(context.Background(), tt.tenantID, tt.typ, tt.pattern, tt.category)
			assert.ErrorIs(t, err, transaction.ErrValidation)
		})
	}
}
