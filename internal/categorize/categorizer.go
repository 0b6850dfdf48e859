// Package categorize assigns spending categories from transaction text.
package categorize

import (
	"regexp"
	"strings"

	"github.com/jbrukh/bayesian"

	"github.com/ledgerchat/ledgerchat/internal/model"
)

// Fallback buckets when nothing else matches.
const (
	FallbackExpense = "Other Expenses"
	FallbackIncome  = "Other Income"
)

// Categories in the default taxonomy.
const (
	CategoryFood          = "Food & Dining"
	CategoryGroceries     = "Groceries"
	CategoryTransport     = "Transportation"
	CategoryShopping      = "Shopping"
	CategoryEntertainment = "Entertainment"
	CategoryBills         = "Bills & Utilities"
	CategoryHealth        = "Health"
	CategoryTravel        = "Travel"
	CategoryHousing       = "Housing"
	CategorySalary        = "Salary"
	CategoryTransfer      = "Transfers"
)

// seedCorpus trains the classifier; descriptions are representative of
// the phrasing the extractor produces.
var seedCorpus = map[string][]string{
	CategoryFood: {
		"dinner at restaurant", "lunch with coworkers", "coffee shop latte",
		"pizza delivery", "breakfast cafe", "sushi takeout", "burger and fries",
		"bar drinks beer", "bakery pastries",
	},
	CategoryGroceries: {
		"weekly groceries supermarket", "grocery store run", "fruits and vegetables market",
		"costco bulk shopping food", "milk bread eggs",
	},
	CategoryTransport: {
		"uber ride downtown", "taxi to airport", "gas station fill up",
		"bus ticket", "metro card top up", "parking garage fee", "train fare",
	},
	CategoryShopping: {
		"new shoes online order", "amazon purchase", "clothing store shirt",
		"electronics headphones", "bookstore novel", "furniture lamp",
	},
	CategoryEntertainment: {
		"movie tickets cinema", "concert tickets", "netflix subscription",
		"spotify premium", "video game purchase", "museum admission",
	},
	CategoryBills: {
		"electricity bill payment", "water utility bill", "internet service provider",
		"phone bill monthly", "insurance premium payment",
	},
	CategoryHealth: {
		"pharmacy prescription", "doctor visit copay", "dentist cleaning",
		"gym membership monthly", "vitamins supplements",
	},
	CategoryTravel: {
		"flight tickets booking", "hotel stay three nights", "airbnb reservation",
		"rental car pickup", "travel visa fee",
	},
	CategoryHousing: {
		"monthly rent payment", "mortgage installment", "home repair plumber",
		"cleaning service apartment",
	},
	CategorySalary: {
		"salary deposit employer", "paycheck received", "monthly wages",
		"freelance invoice paid", "bonus payment received",
	},
	CategoryTransfer: {
		"transfer to savings", "sent money to friend", "received transfer from mom",
		"moved funds between accounts", "venmo payment",
	},
}

var nonWordPattern = regexp.MustCompile(`[^a-z0-9 ]+`)

// Categorizer assigns categories using a TF-IDF bayesian classifier
// trained on a seed corpus, with a keyword fallback for thin input.
type Categorizer struct {
	classifier *bayesian.Classifier
	classes    []bayesian.Class
}

// NewCategorizer builds and trains the default categorizer.
func NewCategorizer() *Categorizer {
	classes := make([]bayesian.Class, 0, len(seedCorpus))
	for name := range seedCorpus {
		classes = append(classes, bayesian.Class(name))
	}

	cl := bayesian.NewClassifierTfIdf(classes...)
	for name, examples := range seedCorpus {
		for _, example := range examples {
			cl.Learn(prepareTerms(example), bayesian.Class(name))
		}
	}
	cl.ConvertTermsFreqToTfIdf()

	return &Categorizer{classifier: cl, classes: classes}
}

// Categorize returns the best category for the given text fields, or
// an empty string when nothing scores confidently. Pure function: same
// input always yields the same category.
func (c *Categorizer) Categorize(description, txType string) string {
	terms := prepareTerms(description + " " + txType)
	if len(terms) == 0 {
		return ""
	}

	scores, best, _ := c.classifier.LogScores(terms)
	if len(scores) == 0 {
		return ""
	}

	// A flat score distribution means the classifier saw none of the
	// terms; fall back to keywords instead of a coin flip.
	flat := true
	for _, s := range scores[1:] {
		if s != scores[0] {
			flat = false
			break
		}
	}
	if flat {
		return keywordCategory(terms)
	}

	return string(c.classes[best])
}

// FallbackFor returns the fallback bucket for a direction.
func FallbackFor(direction model.Direction) string {
	if direction == model.DirectionIn {
		return FallbackIncome
	}
	return FallbackExpense
}

func prepareTerms(text string) []string {
	s := strings.ToLower(text)
	s = nonWordPattern.ReplaceAllString(s, " ")
	fields := strings.Fields(s)
	terms := fields[:0]
	for _, f := range fields {
		if f == model.UnknownField || len(f) < 2 {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

var keywordTable = []struct {
	category string
	keywords []string
}{
	{CategoryGroceries, []string{"grocery", "groceries", "supermarket"}},
	{CategoryFood, []string{"restaurant", "dinner", "lunch", "coffee", "cafe", "food"}},
	{CategoryTransport, []string{"uber", "taxi", "gas", "fuel", "bus", "train", "parking"}},
	{CategoryBills, []string{"bill", "utility", "electricity", "internet", "insurance"}},
	{CategorySalary, []string{"salary", "paycheck", "wages", "payroll"}},
	{CategoryTransfer, []string{"transfer", "venmo", "zelle"}},
	{CategoryHealth, []string{"pharmacy", "doctor", "gym", "dentist"}},
	{CategoryTravel, []string{"flight", "hotel", "airbnb"}},
	{CategoryHousing, []string{"rent", "mortgage"}},
}

func keywordCategory(terms []string) string {
	for _, term := range terms {
		for _, entry := range keywordTable {
			for _, kw := range entry.keywords {
				if term == kw {
					return entry.category
				}
			}
		}
	}
	return ""
}
