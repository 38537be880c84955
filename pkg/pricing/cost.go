package pricing

import "fmt"

// Rate is the price of one storage class.
type Rate struct {
	// BaseUnitCost is the provider price in USD per GiB per month.
	BaseUnitCost float64
	// MarginPercent is added on top of the base unit cost.
	MarginPercent float64
}

// UnitCost returns the billed USD per GiB per month, margin included.
func (r Rate) UnitCost() float64 {
	return r.BaseUnitCost * (1 + r.MarginPercent/100)
}

const bytesPerGiB = 1 << 30

var rates = map[StorageClass]Rate{
	ClassStandard:    {BaseUnitCost: 0.023, MarginPercent: 30},
	ClassStandardIA:  {BaseUnitCost: 0.0125, MarginPercent: 30},
	ClassOneZoneIA:   {BaseUnitCost: 0.01, MarginPercent: 30},
	ClassGlacierIR:   {BaseUnitCost: 0.004, MarginPercent: 35},
	ClassGlacier:     {BaseUnitCost: 0.0036, MarginPercent: 40},
	ClassDeepArchive: {BaseUnitCost: 0.00099, MarginPercent: 50},
}

// RateFor returns the rate of a storage class.
func RateFor(c StorageClass) (Rate, error) {
	r, ok := rates[c]
	if !ok {
		return Rate{}, fmt.Errorf("%w: %q", ErrInvalidStorageClass, c)
	}
	return r, nil
}

// MonthlyCost returns the monthly USD cost of storing sizeBytes in class c.
// Negative sizes are treated as zero.
func MonthlyCost(c StorageClass, sizeBytes int64) (float64, error) {
	r, err := RateFor(c)
	if err != nil {
		return 0, err
	}
	size := max(sizeBytes, 0)
	return float64(size) / bytesPerGiB * r.UnitCost(), nil
}

// Savings returns how much cheaper per month sizeBytes is in class to than in
// class from. The result is negative when to is more expensive.
func Savings(from, to StorageClass, sizeBytes int64) (float64, error) {
	oldCost, err := MonthlyCost(from, sizeBytes)
	if err != nil {
		return 0, err
	}
	newCost, err := MonthlyCost(to, sizeBytes)
	if err != nil {
		return 0, err
	}
	return oldCost - newCost, nil
}

// SavingsPercent returns the whole-number percentage saved by storing data in
// class c instead of the standard class.
func SavingsPercent(c StorageClass) int {
	r, ok := rates[c]
	if !ok {
		return 0
	}
	hot := rates[ClassStandard].UnitCost()
	return int(roundHalfUp((1 - r.UnitCost()/hot) * 100))
}

func roundHalfUp(v float64) float64 {
	if v < 0 {
		return -roundHalfUp(-v)
	}
	return float64(int64(v + 0.5))
}
