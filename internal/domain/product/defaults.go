package product

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Defaults returns the starter catalog: four subscription lengths.
// IDs are "1".."4" so re-seeding is idempotent.
func Defaults(now time.Time) []Product {
	type seed struct {
		name, desc string
		price      int64
	}
	seeds := []seed{
		{"1 Month Subscription", "Perfect for trying out our service. Access to all channels and movies for one month.", 50},
		{"3 Months Subscription", "Best value for short-term users. Enjoy 3 months of premium IPTV service with 24/7 support.", 120},
		{"6 Months Subscription", "Great savings for long-term users. Get 6 months of unlimited access to all channels and movies.", 200},
		{"1 Year Subscription", "The best deal! Get a full year of premium IPTV service with the lowest monthly price.", 350},
	}

	out := make([]Product, 0, len(seeds))
	for i, s := range seeds {
		desc := s.desc
		channels := 45000
		out = append(out, Product{
			ID:          strconv.Itoa(i + 1),
			Name:        s.name,
			Description: &desc,
			Price:       decimal.NewFromInt(s.price),
			Channels:    &channels,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out
}
