package greenops

import "strings"

// categoryByMetric is the fixed classification table.
//
//nolint:gochecknoglobals // Read-only lookup table.
var categoryByMetric = map[string]Category{
	MetricStationaryCombustion:       CategoryScope1,
	MetricMobileCombustion:           CategoryScope1,
	MetricProcessEmissions:           CategoryScope1,
	MetricPurchasedElectricity:       CategoryScope2,
	MetricPurchasedHeat:              CategoryScope2,
	MetricPurchasedSteam:             CategoryScope2,
	MetricPurchasedCooling:           CategoryScope2,
	MetricWasteDisposal:              CategoryScope3,
	MetricBusinessTravel:             CategoryScope3,
	MetricEmployeeCommuting:          CategoryScope3,
	MetricPurchasedGoodsAndServices:  CategoryScope3,
	MetricPurchasedElectricityEnergy: CategoryEnergy,
	MetricWaterQuantities:            CategoryWater,
	MetricWaterQuality:               CategoryWater,
}

// Classify maps a metric or sub-category name to its emission domain.
// Surrounding whitespace is ignored; any name outside the table is CategoryUnknown.
func Classify(name string) Category {
	if c, ok := categoryByMetric[strings.TrimSpace(name)]; ok {
		return c
	}
	return CategoryUnknown
}
