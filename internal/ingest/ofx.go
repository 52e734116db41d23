package ingest

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/shopspring/decimal"
)

var severityCase = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)

// tagFix matches SGML-style opening tags missing their closing bracket.
var tagFix = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)

// preprocessOFX fixes common formatting issues in OFX files exported by
// real banks before handing them to the parser.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	content = severityCase.ReplaceAllStringFunc(content, strings.ToUpper)
	content = tagFix.ReplaceAllString(content, "$1>")

	return content
}

// ParseOFX extracts expense transactions from an OFX/QFX statement. OFX
// uses negative amounts for debits; debits become positive expense
// magnitudes and credits (payments, refunds) are not part of a spending
// batch.
func ParseOFX(r io.Reader, sourceTag string) ([]model.Transaction, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var (
		txns    []model.Transaction
		credits int
	)

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			for _, ofxTxn := range stmt.BankTranList.Transactions {
				if txn, ok := convertOFXTransaction(ofxTxn, sourceTag); ok {
					txns = append(txns, txn)
				} else {
					credits++
				}
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			for _, ofxTxn := range stmt.BankTranList.Transactions {
				if txn, ok := convertOFXTransaction(ofxTxn, sourceTag); ok {
					txns = append(txns, txn)
				} else {
					credits++
				}
			}
		}
	}

	slog.Info("Parsed OFX statement",
		"transactions", len(txns),
		"credits_skipped", credits)

	return txns, nil
}

// convertOFXTransaction maps one OFX transaction to a raw expense record.
// Returns false for credits.
func convertOFXTransaction(ofxTxn ofxgo.Transaction, sourceTag string) (model.Transaction, bool) {
	amount, err := decimal.NewFromString(ofxTxn.TrnAmt.FloatString(2))
	if err != nil || amount.Sign() >= 0 {
		return model.Transaction{}, false
	}

	description := string(ofxTxn.Name)
	if ofxTxn.Payee != nil && ofxTxn.Payee.Name != "" {
		description = string(ofxTxn.Payee.Name)
	}
	if description == "" {
		description = string(ofxTxn.Memo)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return model.Transaction{}, false
	}

	return model.Transaction{
		Date:        ofxTxn.DtPosted.Time.Format("01/02"),
		Description: description,
		Amount:      amount.Neg(),
		SourceTag:   sourceTag,
	}, true
}
