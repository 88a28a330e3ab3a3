package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/domain"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/ledger"
)

// party is one side of a completed transfer as seen by its owner.
type party struct {
	account      domain.Account
	counterparty domain.Account
	amount       decimal.Decimal // always positive; direction comes from verb
	verb         string          // "sent" or "received"
}

func partiesOf(res *ledger.TransferResult) [2]party {
	return [2]party{
		{
			account:      res.FromAccount,
			counterparty: res.ToAccount,
			amount:       res.Transfer.Amount,
			verb:         "sent",
		},
		{
			account:      res.ToAccount,
			counterparty: res.FromAccount,
			amount:       res.Transfer.Amount,
			verb:         "received",
		},
	}
}

// maskNumber keeps only the last four characters of an account number, so a
// message never leaks the counterparty's full account.
func maskNumber(number string) string {
	if len(number) <= 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}

func completedAt(res *ledger.TransferResult) string {
	if res.Transaction.CompletedAt == nil {
		return res.Transaction.InitiatedAt.Format(time.RFC3339)
	}
	return res.Transaction.CompletedAt.Format(time.RFC3339)
}

// composeEmail builds the email for one party. Content is derived only from
// the committed records, so re-dispatch produces identical output.
func composeEmail(res *ledger.TransferResult, p party) Message {
	money := domain.NewMoney(p.amount, res.Transfer.Currency)
	balance := domain.NewMoney(p.account.Balance, p.account.Currency)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\r\n\r\n", p.account.OwnerName)
	fmt.Fprintf(&b, "You have %s %s %s account %s.\r\n\r\n",
		p.verb, money.String(), directionPreposition(p.verb), maskNumber(p.counterparty.Number))
	fmt.Fprintf(&b, "Transaction ID: %s\r\n", res.Transaction.ID)
	fmt.Fprintf(&b, "Description: %s\r\n", res.Transaction.Description)
	fmt.Fprintf(&b, "New balance: %s\r\n", balance.String())
	fmt.Fprintf(&b, "Completed at: %s\r\n", completedAt(res))

	return Message{
		Subject: fmt.Sprintf("Transfer of %s %s", money.String(), p.verb),
		Body:    b.String(),
	}
}

// composeSMS builds the short-form message for one party.
func composeSMS(res *ledger.TransferResult, p party) Message {
	money := domain.NewMoney(p.amount, res.Transfer.Currency)
	balance := domain.NewMoney(p.account.Balance, p.account.Currency)

	body := fmt.Sprintf("OrbitBank: %s %s %s a/c %s on %s. New balance %s. Ref %s.",
		p.verb, money.String(), directionPreposition(p.verb),
		maskNumber(p.counterparty.Number), completedAt(res),
		balance.String(), res.Transaction.ID)

	return Message{Body: body}
}

func directionPreposition(verb string) string {
	if verb == "sent" {
		return "to"
	}
	return "from"
}
