package extraction

// defaultTrainingTable is the built-in keyword table. Declaration order is
// load-bearing: the classifier iterates entries in this order and ties favor
// the category scored first.
var defaultTrainingTable = []TrainingExample{
	// Groceries
	{Phrase: "safeway", Category: "Groceries", Keywords: []string{"safeway", "grocery", "groceries"}},
	{Phrase: "real canadian superstore", Category: "Groceries", Keywords: []string{"superstore", "loblaws", "no frills", "supermarket"}},
	{Phrase: "costco wholesale", Category: "Groceries", Keywords: []string{"costco", "walmart", "save-on-foods"}},

	// Restaurants
	{Phrase: "mcdonald's", Category: "Restaurants", Keywords: []string{"mcdonald", "burger", "pizza"}},
	{Phrase: "starbucks coffee", Category: "Restaurants", Keywords: []string{"starbucks", "coffee", "cafe"}},
	{Phrase: "tim hortons", Category: "Restaurants", Keywords: []string{"tim hortons", "restaurant", "doordash", "skip the dishes"}},

	// Car
	{Phrase: "toyota finance", Category: "Car", Keywords: []string{"toyota", "finance", "auto loan"}},
	{Phrase: "petro-canada", Category: "Car", Keywords: []string{"petro", "esso", "shell", "gas station"}},
	{Phrase: "icbc insurance", Category: "Car", Keywords: []string{"icbc", "parking", "car wash"}},

	// Living Expenses
	{Phrase: "rent payment", Category: "Living Expenses", Keywords: []string{"rent", "mortgage", "landlord"}},
	{Phrase: "bc hydro", Category: "Living Expenses", Keywords: []string{"hydro", "electric", "utility"}},
	{Phrase: "bell canada", Category: "Living Expenses", Keywords: []string{"bell", "telus", "rogers", "internet"}},

	// Entertainment
	{Phrase: "netflix.com", Category: "Entertainment", Keywords: []string{"netflix", "spotify", "disney"}},
	{Phrase: "cineplex", Category: "Entertainment", Keywords: []string{"cinema", "movie", "steam", "playstation"}},
}

// DefaultTrainingTable returns a copy of the built-in keyword table, e.g. as
// a starting point for a customized classifier.
func DefaultTrainingTable() []TrainingExample {
	table := make([]TrainingExample, len(defaultTrainingTable))
	copy(table, defaultTrainingTable)
	return table
}
