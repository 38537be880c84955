// Package pricing models what it costs to keep file versions in a tiered
// object store and recommends a storage class for new uploads.
//
// The package is pure and stateless. Rates are fixed per storage class and
// consist of a base unit cost (USD per GiB per month) plus a margin
// percentage:
//
//	cost, err := pricing.MonthlyCost(pricing.ClassGlacier, 5<<30)
//	if err != nil {
//		return err
//	}
//	fmt.Println(pricing.FormatUSD(cost))
//
// # Recommendations
//
// A [Recommender] applies ordered rules where the first match wins. File
// size is checked before any type-based rule, so a large archive goes to the
// infrequent-access class rather than to deep archive:
//
//	r := pricing.NewRecommender(pricing.DefaultRules())
//	rec := r.Recommend("application/zip", 200<<20, "backup.zip")
//	// rec.Class == pricing.ClassStandardIA
//
// Reasons and savings percentages on a [Recommendation] are advisory and
// never drive invariant logic.
package pricing
