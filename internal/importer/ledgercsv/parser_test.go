package ledgercsv_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/ledger/internal/importer/ledgercsv"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParser_Lancamentos(t *testing.T) {
	csv := `Vencimento;Descrição;Valor;Tipo;Situação;Emissão;Pago em;Categoria;Centro de custo;Observações;Cidade
10/01/2024;Aluguel;R$ 1.500,00;Pagar;Pendente;02/01/2024;;Rent;Matriz;janeiro;São Paulo
15/01/2024;Cliente A;2.000,00;Receber;Recebido;;16/01/2024;Services;;;
;Consultoria;300;receber;;;;;;;

20/01/2024;Energia;250,10;despesa;pago;;;;;;
`

	txs, err := ledgercsv.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 4)

	rent := txs[0]
	assert.Equal(t, "Aluguel", rent.Description)
	assert.Equal(t, transaction.TypePayable, rent.Type)
	assert.True(t, rent.Amount.Equal(dec("1500")))
	assert.Equal(t, transaction.StatusPending, rent.Status)
	assert.Equal(t, date(2024, 1, 10), *rent.DueDate)
	assert.Equal(t, date(2024, 1, 2), *rent.IssueDate)
	assert.Nil(t, rent.PaidAt)
	assert.Equal(t, "Rent", *rent.Category)
	assert.Equal(t, "Matriz", *rent.CostCenter)
	assert.Equal(t, "janeiro", *rent.Notes)
	assert.Equal(t, "São Paulo", *rent.CityRef)

	client := txs[1]
	assert.Equal(t, transaction.TypeReceivable, client.Type)
	assert.Equal(t, transaction.StatusPaid, client.Status)
	assert.Equal(t, date(2024, 1, 16), *client.PaidAt)
	assert.Nil(t, client.CostCenter)
	assert.Nil(t, client.CityRef)

	undated := txs[2]
	assert.Nil(t, undated.DueDate)
	assert.Equal(t, transaction.StatusPending, undated.Status)
	assert.True(t, undated.Amount.Equal(dec("300")))

	// Paid without a payment date settles on the due date.
	energy := txs[3]
	assert.Equal(t, transaction.StatusPaid, energy.Status)
	assert.Equal(t, date(2024, 1, 20), *energy.PaidAt)
	assert.True(t, energy.Amount.Equal(dec("250.10")))
}

func TestParser_LedgerCommaDelimited(t *testing.T) {
	csv := `Due date,Description,Amount,Type,Status,Category
2024-03-01,"Hosting, yearly",120.50,payable,pending,Infra
2024-03-05,Invoice 42,990,receivable,paid,Sales
`

	txs, err := ledgercsv.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "Hosting, yearly", txs[0].Description)
	assert.True(t, txs[0].Amount.Equal(dec("120.50")))
	assert.Equal(t, date(2024, 3, 1), *txs[0].DueDate)
	assert.Equal(t, transaction.StatusPaid, txs[1].Status)
	assert.Equal(t, date(2024, 3, 5), *txs[1].PaidAt)
}

func TestParser_Conta(t *testing.T) {
	csv := `Consultar saldos e movimentos à ordem - 31-01-2026;"=""0000"""
Nome cliente;JOHN DOE

Dados da conta
Conta;0000 - EUR - Conta Extracto
Saldo contabilístico;1.000,00 EUR

Data mov.;Data-valor;Descrição;Montante;Saldo contabilístico após movimento
30-01-2026;30-01-2026;INSTITUTO GESTAO FINA;-588,74;48.825,46
09-01-2026;09-01-2026;TFI Wise;8.608,52;52.532,78
Saldo final;;;;48.825,46
`

	txs, err := ledgercsv.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "INSTITUTO GESTAO FINA", txs[0].Description)
	assert.Equal(t, transaction.TypePayable, txs[0].Type)
	assert.True(t, txs[0].Amount.Equal(dec("588.74")))
	assert.Equal(t, transaction.StatusPaid, txs[0].Status)
	assert.Equal(t, date(2026, 1, 30), *txs[0].DueDate)
	assert.Equal(t, date(2026, 1, 30), *txs[0].PaidAt)

	assert.Equal(t, transaction.TypeReceivable, txs[1].Type)
	assert.True(t, txs[1].Amount.Equal(dec("8608.52")))
}

func TestParser_Extrato(t *testing.T) {
	csv := `Consultar extrato - 15-02-2026 : 0829015676030
Nome empresa ;VIBRANTGARDEN UNIPESSOAL,LDA
Saldo contabilístico final ;41.393,66

Data mov. ;Data valor ;Origem ;Descrição ;Movimento ;Estorno ;Saldo contabilístico após movimento ;
13-02-2026;13-02-2026;"=""0003""";PAGAMENTO TSU ;-608,13;  ;41.393,66;
04-02-2026;04-02-2026;SIBS ;TFI Wise ;4.324,06;  ;51.302,85;
05-02-2026;05-02-2026;SIBS ;ESTORNO ;0,00;  ;51.302,85;
`

	txs, err := ledgercsv.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "PAGAMENTO TSU", txs[0].Description)
	assert.True(t, txs[0].Amount.Equal(dec("608.13")))
	assert.Equal(t, transaction.TypePayable, txs[0].Type)
	assert.Equal(t, "TFI Wise", txs[1].Description)
	assert.Equal(t, transaction.TypeReceivable, txs[1].Type)
}

func TestParser_Cartao(t *testing.T) {
	csv := `Data;Descrição;Débito;Crédito
03-02-2026;SUPERMERCADO;45,90;
07-02-2026;REEMBOLSO;;12,00
`

	txs, err := ledgercsv.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, transaction.TypePayable, txs[0].Type)
	assert.True(t, txs[0].Amount.Equal(dec("45.90")))
	assert.Equal(t, transaction.TypeReceivable, txs[1].Type)
	assert.True(t, txs[1].Amount.Equal(dec("12")))
}

func TestParser_Latin1(t *testing.T) {
	csv := "Vencimento;Descrição;Valor;Tipo;Observações\n10/01/2024;Manutenção elétrica;80,00;pagar;revisão anual\n"

	latin1, err := charmap.Windows1252.NewEncoder().String(csv)
	require.NoError(t, err)

	txs, err := ledgercsv.NewParser().Parse(bytes.NewReader([]byte(latin1)))
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, "Manutenção elétrica", txs[0].Description)
	assert.Equal(t, "revisão anual", *txs[0].Notes)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "UnknownLayout",
			input:   "a;b;c\n1;2;3\n",
			wantErr: "no matching CSV layout",
		},
		{
			name:    "InvalidAmount",
			input:   "Vencimento;Descrição;Valor;Tipo\n10/01/2024;Ok;10,00;pagar\n11/01/2024;Bad;dez;pagar\n",
			wantErr: "row 3: invalid amount",
		},
		{
			name:    "ZeroAmount",
			input:   "Vencimento;Descrição;Valor;Tipo\n10/01/2024;Zero;0,00;pagar\n",
			wantErr: "row 2: amount must be greater than zero",
		},
		{
			name:    "UnknownType",
			input:   "Vencimento;Descrição;Valor;Tipo\n10/01/2024;Rent;10,00;transfer\n",
			wantErr: `row 2: unknown type "transfer"`,
		},
		{
			name:    "MissingDescription",
			input:   "Vencimento;Descrição;Valor;Tipo\n10/01/2024;;10,00;pagar\n",
			wantErr: "row 2: missing description",
		},
		{
			name:    "PaidWithoutDates",
			input:   "Vencimento;Descrição;Valor;Tipo;Situação\n;Rent;10,00;pagar;pago\n",
			wantErr: "row 2: paid entry needs a payment or due date",
		},
		{
			name:    "InvalidDueDate",
			input:   "Vencimento;Descrição;Valor;Tipo\n2024/13/45;Rent;10,00;pagar\n",
			wantErr: "row 2: invalid date",
		},
		{
			name:    "UnknownStatus",
			input:   "Vencimento;Descrição;Valor;Tipo;Situação\n10/01/2024;Rent;10,00;pagar;cancelado\n",
			wantErr: `row 2: unsupported status "cancelado"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := ledgercsv.NewParser().Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, txs)
		})
	}
}

func TestParser_Empty(t *testing.T) {
	txs, err := ledgercsv.NewParser().Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "1.234,56", want: "1234.56"},
		{input: "R$ 1.500,00", want: "1500"},
		{input: "-588,74", want: "-588.74"},
		{input: "8.608,52 EUR", want: "8608.52"},
		{input: "1234.56", want: "1234.56"},
		{input: "1.234.567", want: "1234567"},
		{input: "99.9", want: "99.9"},
		{input: "10", want: "10"},
		{input: "1 000,00", want: "1000"},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ledgercsv.ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "10/01/2024", want: date(2024, 1, 10)},
		{input: "30-01-2026", want: date(2026, 1, 30)},
		{input: "2024-03-01", want: date(2024, 3, 1)},
		{input: " 2024-03-01 ", want: date(2024, 3, 1)},
		{input: "01/13/2024", wantErr: true},
		{input: "Saldo final", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ledgercsv.ParseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
