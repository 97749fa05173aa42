package entity

// Listing is the reviewed business. AverageRating and TotalReviews are derived
// fields owned by the rating aggregator; no other code path writes them.
type Listing struct {
	Base
	Name          string  `db:"name"`
	Category      string  `db:"category"`
	AverageRating float64 `db:"average_rating"` // one decimal place
	TotalReviews  int64   `db:"total_reviews"`  // count of approved reviews
}
