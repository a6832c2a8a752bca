package classify

import (
	"strings"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

// OtherCategory is the unresolved sentinel; rows still carrying it after
// the keyword pass are eligible for the batch AI tier.
const OtherCategory = "Other"

// Internal-movement phrasings. These force type transfer regardless of the
// bank-reported direction.
var transferKeywords = []string{
	"auto-save to owealth", "auto save to owealth",
	"owealth withdrawal", "owealth balance",
	"own account transfer", "own-account transfer",
	"inter-account", "internal transfer", "self transfer",
	"wallet to wallet", "wallet transfer",
}

type keywordFamily struct {
	category string
	keywords []string
}

// Income-only families force type income even on rows the bank reported as
// debits; some providers mislabel inbound reversals and interest.
var incomeFamilies = []keywordFamily{
	{"Salary", []string{"salary", "salaries", "payroll", "monthly pay", "remuneration",
		"staff pay", "wages", "pay day"}},
	{"Investment", []string{"interest earn", "owealth interest", "investment income", "dividend",
		"fixed deposit return", "savings interest", "interest credit",
		"treasury", "lien release", "yield"}},
	{"Freelance", []string{"freelance", "upwork", "fiverr", "gig income", "contract pay"}},
	{"Gift", []string{"gift received", "cash gift"}},
	{"Refund", []string{"refund", "reversal", "chargeback", "return credit",
		"clawback reversal"}},
	{"Business", []string{"sales proceed", "business income", "revenue credit"}},
}

// Neutral families: the type follows the bank direction.
var neutralFamilies = []keywordFamily{
	{"Food & Dining", []string{"restaurant", "eatery", "kitchen", "bakery", "pastry",
		"fast food", "pizza", "burger", "shawarma", "suya",
		"indomie", "groceries", "supermarket", "shoprite", "spar",
		"kfc", "chicken republic", "mr biggs", "domino", "cafe",
		"coldstone", "ice cream", "food", "canteen", "cafeteria"}},
	{"Transportation", []string{"uber", "bolt", "taxify", "transport", "bus fare",
		"fare", "petrol", "diesel", "fuel station", "car wash",
		"parking", "toll gate", "logistics", "dispatch", "ride"}},
	{"Shopping", []string{"jumia", "konga", "amazon", "aliexpress", "shopping",
		"purchase", "market", "store", "mall", "clothes",
		"fashion", "shoes", "bag", "accessories"}},
	{"Bills & Utilities", []string{"electricity", "nepa", "phcn", "electric bill",
		"water bill", "water rate", "dstv", "startimes", "gotv",
		"cable tv", "internet", "broadband", "wifi", "wi-fi",
		"airtime", "data subscription", "data purchase",
		"recharge", "postpaid", "prepaid", "utility", "gas bill",
		"power bill", "mtn", "airtel", "glo", "9mobile",
		"etisalat", "subscription"}},
	{"Housing", []string{"rent", "landlord", "house rent", "estate",
		"apartment rent", "mortgage", "property", "agency fee",
		"caution fee", "agreement fee"}},
	{"Healthcare", []string{"hospital", "pharmacy", "chemist", "medicine", "doctor",
		"clinic", "medical", "drug", "treatment", "lab test",
		"laboratory", "prescription", "health insurance",
		"health fee"}},
	{"Education", []string{"school fees", "tuition", "school fee", "exam fee",
		"university", "college", "academy", "course fee",
		"training fee", "tutorial", "lesson"}},
	{"Travel", []string{"hotel", "airbnb", "flight", "airline", "airport",
		"visa fee", "travel", "booking", "accommodation",
		"vacation", "holiday"}},
	{"Entertainment", []string{"netflix", "spotify", "apple music", "youtube premium",
		"cinema", "movie ticket", "game", "sport", "gym",
		"event ticket", "concert"}},
	{"Bank Charges & Fees", []string{"bank charge", "stamp duty", "sms alert",
		"card maintenance", "maintenance fee", "commission",
		"transfer fee", "transaction fee", "service charge",
		"account maintenance", "atm fee", "pos fee",
		"interbank fee", "vat on", "withholding"}},
	{"Internal Transfer", []string{"auto-save", "owealth", "own account"}},
}

// SuggestKeyword classifies a description with the deterministic keyword
// tier. Families are checked in priority order and the first hit wins:
// transfer patterns, then income-only categories, then neutral categories
// whose type follows the bank direction.
func SuggestKeyword(description string, direction domain.Direction) (category string, txType domain.TxType) {
	desc := strings.ToLower(description)

	defaultType := domain.TypeExpense
	if direction == domain.Credit {
		defaultType = domain.TypeIncome
	}

	for _, k := range transferKeywords {
		if strings.Contains(desc, k) {
			return "Internal Transfer", domain.TypeTransfer
		}
	}
	for _, fam := range incomeFamilies {
		for _, k := range fam.keywords {
			if strings.Contains(desc, k) {
				return fam.category, domain.TypeIncome
			}
		}
	}
	for _, fam := range neutralFamilies {
		for _, k := range fam.keywords {
			if strings.Contains(desc, k) {
				return fam.category, defaultType
			}
		}
	}
	return OtherCategory, defaultType
}
