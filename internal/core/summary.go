package core

// MonthlyTotal is the sum of amounts for one (type, category, month, year)
// group. Saving adds and deducts fall into the same group.
type MonthlyTotal struct {
	Kind     Kind
	Category string
	Month    int // 1-12
	Year     int
	Total    Money
}
