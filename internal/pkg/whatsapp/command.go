package whatsapp

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/PennyFox/app/models"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadAmount      = errors.New("amount missing or invalid")
)

// Command is a parsed "gasto 25,90 mercado almoço" style message.
type Command struct {
	Type        string
	Amount      decimal.Decimal
	Category    string
	Description string
}

var keywords = map[string]string{
	"gasto":   models.TransactionTypeExpense,
	"gastei":  models.TransactionTypeExpense,
	"despesa": models.TransactionTypeExpense,
	"paguei":  models.TransactionTypeExpense,
	"receita": models.TransactionTypeIncome,
	"recebi":  models.TransactionTypeIncome,
	"entrada": models.TransactionTypeIncome,
}

// ParseCommand reads "<keyword> <amount> [category] [description...]".
func ParseCommand(body string) (Command, error) {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}
	kind, ok := keywords[strings.ToLower(fields[0])]
	if !ok {
		return Command{}, ErrUnknownCommand
	}
	if len(fields) < 2 {
		return Command{}, ErrBadAmount
	}
	amount, err := ParseAmount(fields[1])
	if err != nil {
		return Command{}, err
	}

	cmd := Command{Type: kind, Amount: amount}
	if len(fields) > 2 {
		cmd.Category = fields[2]
		cmd.Description = strings.Join(fields[2:], " ")
	}
	return cmd, nil
}

// ParseAmount accepts "25,90", "1.500,00", "R$1500" and "25.90".
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "R$"), "r$")
	if s == "" {
		return decimal.Zero, ErrBadAmount
	}

	switch {
	case strings.Contains(s, ","):
		// Brazilian format: dots group thousands, the comma separates cents.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case strings.Contains(s, "."):
		if parts := strings.SplitN(s, ".", 2); len(parts[1]) == 3 {
			s = parts[0] + parts[1]
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, ErrBadAmount
	}
	return d.Round(2), nil
}
