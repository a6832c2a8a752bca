package statement

import (
	"strings"
)

// Alias vocabularies for mapping real-world column labels onto semantic
// roles. Comparisons are lower-cased and trimmed; aliases longer than three
// characters also match by substring containment.
var (
	dateAliases = newAliasSet(
		"date", "trans date", "transaction date", "value date", "txn date",
		"posting date", "booking date", "settlement date", "created at",
		"trans. date", "txndate",
	)
	// The settlement date reflects when the balance actually moved, so it is
	// preferred over the posting/transaction date when both columns exist.
	valueDateAliases = newAliasSet("value date", "val date", "value dt", "settlement date")

	descAliases = newAliasSet(
		"narration", "description", "memo", "details", "particulars",
		"remarks", "narrative", "trans desc", "payment details",
		"transaction description", "payment narration", "beneficiary",
		"narr", "desc",
	)
	debitAliases = newAliasSet(
		"debit", "debit(₦)", "debit(ngn)", "dr", "dr amount",
		"withdrawal", "withdrawals", "amount out", "paid out", "money out",
		"charges",
	)
	creditAliases = newAliasSet(
		"credit", "credit(₦)", "credit(ngn)", "cr", "cr amount",
		"deposit", "deposits", "amount in", "paid in", "money in",
		"receipts",
	)
	amountAliases = newAliasSet(
		"amount", "transaction amount", "txn amount", "net amount",
		"debit/credit", "value",
	)
	refAliases = newAliasSet(
		"reference", "ref", "transaction ref", "txn ref",
		"transaction id", "txn id", "trace no", "receipt no",
		"session id",
	)
	balanceAliases = newAliasSet(
		"balance", "running balance", "ledger balance", "available balance",
		"bal", "closing balance",
		"balance after", "bal. after", "wallet balance", "account balance",
		"balance b/f", "balance c/f", "outstanding balance",
	)
	// Some mobile-banking exports carry a dedicated direction column.
	typeAliases = newAliasSet(
		"type", "transaction type", "txn type", "dr/cr", "cr/dr",
		"direction", "flow", "transaction nature", "trans type",
	)
)

type aliasSet struct {
	members []string
	exact   map[string]bool
}

func newAliasSet(members ...string) aliasSet {
	exact := make(map[string]bool, len(members))
	for _, m := range members {
		exact[m] = true
	}
	return aliasSet{members: members, exact: exact}
}

func (a aliasSet) matches(label string) bool {
	norm := strings.ToLower(strings.TrimSpace(label))
	if a.exact[norm] {
		return true
	}
	for _, m := range a.members {
		if len(m) > 3 && strings.Contains(norm, m) {
			return true
		}
	}
	return false
}

// RoleMap maps semantic roles onto the column labels of one Table. An empty
// string means the role is unresolved. The balance column is informational
// only and is never also used as debit, credit or amount.
type RoleMap struct {
	Date          string
	ValueDate     string
	Description   string
	Debit         string
	Credit        string
	Amount        string
	Reference     string
	Balance       string
	DirectionType string
}

// HasDebitCreditSplit reports whether the source has separate debit and
// credit columns.
func (r RoleMap) HasDebitCreditSplit() bool {
	return r.Debit != "" && r.Credit != ""
}

// findColumn returns the first column whose label matches the alias set.
func findColumn(columns []string, aliases aliasSet) string {
	for _, c := range columns {
		if aliases.matches(c) {
			return c
		}
	}
	return ""
}

// ResolveColumns maps column labels to semantic roles. Resolution is
// deterministic for a given label set: each role takes the first matching
// column in order. Conflict rules are applied afterwards so the type and
// balance columns can never double as value columns.
func ResolveColumns(columns []string) RoleMap {
	roles := RoleMap{
		ValueDate:     findColumn(columns, valueDateAliases),
		Description:   findColumn(columns, descAliases),
		Debit:         findColumn(columns, debitAliases),
		Credit:        findColumn(columns, creditAliases),
		Amount:        findColumn(columns, amountAliases),
		Reference:     findColumn(columns, refAliases),
		Balance:       findColumn(columns, balanceAliases),
		DirectionType: findColumn(columns, typeAliases),
	}
	if roles.ValueDate != "" {
		roles.Date = roles.ValueDate
	} else {
		roles.Date = findColumn(columns, dateAliases)
	}

	// A direction/type column must not double as a value column.
	if roles.DirectionType != "" {
		for _, c := range []string{roles.Debit, roles.Credit, roles.Amount} {
			if c == roles.DirectionType {
				roles.DirectionType = ""
				break
			}
		}
	}

	// The running balance is never a transaction amount.
	if roles.Balance != "" {
		if roles.Debit == roles.Balance {
			roles.Debit = ""
		}
		if roles.Credit == roles.Balance {
			roles.Credit = ""
		}
		if roles.Amount == roles.Balance {
			roles.Amount = ""
		}
	}

	return roles
}

// FindHeaderRow scans raw rows for the first one that looks like a column
// header: its cells must hit both the date vocabulary and the
// amount/description vocabulary. Returns -1 when no such row exists.
// It shares the alias sets with ResolveColumns so the two stay in sync.
func FindHeaderRow(rows [][]string) int {
	for idx, row := range rows {
		var hasDate, hasValue bool
		for _, cell := range row {
			s := strings.ToLower(strings.TrimSpace(cell))
			if s == "" || s == "nan" || s == "none" {
				continue
			}
			if dateAliases.exact[s] || valueDateAliases.exact[s] {
				hasDate = true
			}
			if debitAliases.exact[s] || creditAliases.exact[s] || amountAliases.exact[s] || descAliases.exact[s] {
				hasValue = true
			}
		}
		if hasDate && hasValue {
			return idx
		}
	}
	return -1
}
