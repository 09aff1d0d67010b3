package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20250315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>ZAR
<BANKACCTFROM>
<BANKID>250655
<ACCTID>62000012345
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20250301120000[0:GMT]
<DTEND>20250331120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250315120000[0:GMT]
<TRNAMT>-450.00
<FITID>2025031501
<NAME>ENGEN FOURWAYS
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250320120000[0:GMT]
<TRNAMT>-1250.75
<FITID>2025032001
<NAME>CHECKERS SANDTON
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20250325120000[0:GMT]
<TRNAMT>25000.00
<FITID>2025032501
<NAME>EFT ACME TRADING
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>31000.00
<DTASOF>20250331120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20250315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>ZAR
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20250301120000[0:GMT]
<DTEND>20250331120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250310120000[0:GMT]
<TRNAMT>-199.00
<FITID>CC2025031001
<NAME>TAKEALOT.COM
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250315120000[0:GMT]
<TRNAMT>-159.00
<FITID>CC2025031501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-358.00
<DTASOF>20250331120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile_BankStatement(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleBankOFX)

	transactions, err := parser.ParseFile(context.Background(), reader, ImportOptions{
		UserID:   "user-1",
		ClientID: "acme",
	})
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	tx1 := transactions[0]
	assert.Equal(t, "2025031501", tx1.ID)
	assert.Equal(t, "user-1", tx1.UserID)
	assert.Equal(t, "acme", tx1.ClientID)
	assert.Equal(t, "ENGEN FOURWAYS", tx1.RawDescription)
	assert.Equal(t, "ENGEN FOURWAYS", tx1.Description)
	assert.Equal(t, "engen fourways", tx1.NormalizedPattern)
	assert.Equal(t, -450.00, tx1.Amount)
	assert.True(t, tx1.IsDebit)
	assert.True(t, tx1.Date.Equal(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)))
	assert.NotEmpty(t, tx1.Hash)

	// Credits keep their sign.
	tx3 := transactions[2]
	assert.Equal(t, 25000.00, tx3.Amount)
	assert.False(t, tx3.IsDebit)
}

func TestParseFile_CreditCardStatement(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader(sampleCreditCardOFX)

	transactions, err := parser.ParseFile(context.Background(), reader, ImportOptions{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	assert.Equal(t, "TAKEALOT.COM", transactions[0].RawDescription)
	assert.Equal(t, -159.00, transactions[1].Amount)
}

func TestParseFile_InvalidData(t *testing.T) {
	parser := NewParser()
	reader := strings.NewReader("this is not an OFX file")

	_, err := parser.ParseFile(context.Background(), reader, ImportOptions{})
	assert.Error(t, err)
}

func TestExtractDescription(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name string
		tx   ofxgo.Transaction
		want string
	}{
		{
			name: "payee name wins",
			tx: ofxgo.Transaction{
				Payee: &ofxgo.Payee{Name: "ENGEN FOURWAYS"},
				Name:  "POS PURCHASE",
			},
			want: "ENGEN FOURWAYS",
		},
		{
			name: "memo replaces a generic name",
			tx: ofxgo.Transaction{
				Name: "DEBIT",
				Memo: "WOOLWORTHS FOOD SANDTON",
			},
			want: "WOOLWORTHS FOOD SANDTON",
		},
		{
			name: "card scheme prefix stripped",
			tx:   ofxgo.Transaction{Name: "POS PURCHASE ENGEN FOURWAYS"},
			want: "ENGEN FOURWAYS",
		},
		{
			name: "leading date fragment stripped",
			tx:   ofxgo.Transaction{Name: "03/15 CHECKERS SANDTON"},
			want: "CHECKERS SANDTON",
		},
		{
			name: "plain name untouched",
			tx:   ofxgo.Transaction{Name: "EFT ACME TRADING"},
			want: "EFT ACME TRADING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parser.extractDescription(tt.tx))
		})
	}
}

func TestGetAccounts(t *testing.T) {
	parser := NewParser()

	accounts, err := parser.GetAccounts(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"62000012345"}, accounts)

	accounts, err = parser.GetAccounts(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"4111111111111111"}, accounts)
}

func TestPreprocessOFX(t *testing.T) {
	parser := NewParser()

	fixed := parser.preprocessOFX("<SEVERITY>Info</SEVERITY>")
	assert.Equal(t, "<SEVERITY>INFO</SEVERITY>", fixed)

	fixed = parser.preprocessOFX("<STMTTRN\n<TRNTYPE>DEBIT")
	assert.Equal(t, "<STMTTRN>\n<TRNTYPE>DEBIT", fixed)
}
