package greenops

// Unit model flag values stored on invoices.
const (
	// PerUnitYes marks supplier metrics that are already expressed per unit.
	PerUnitYes = "YES"

	// PerUnitNo marks supplier metrics that cover the whole invoice quantity.
	PerUnitNo = "NO"
)

// Unit model defaults applied when an invoice leaves a field empty.
const (
	// DefaultEmissionsArePerUnit is used when the per-unit flag is absent.
	DefaultEmissionsArePerUnit = PerUnitNo

	// DefaultQuantityNeededPerUnit is used when the quantity is absent.
	DefaultQuantityNeededPerUnit = 1.0

	// DefaultUnitsBought is used when units bought is absent.
	DefaultUnitsBought = 1.0
)

// Metric names recognized by the classifier.
const (
	MetricStationaryCombustion       = "Stationary Combustion"
	MetricMobileCombustion           = "Mobile Combustion"
	MetricProcessEmissions           = "Process Emissions"
	MetricPurchasedElectricity       = "Purchased Electricity"
	MetricPurchasedHeat              = "Purchased Heat"
	MetricPurchasedSteam             = "Purchased Steam"
	MetricPurchasedCooling           = "Purchased Cooling"
	MetricWasteDisposal              = "Waste Disposal"
	MetricBusinessTravel             = "Business Travel"
	MetricEmployeeCommuting          = "Employee Commuting"
	MetricPurchasedGoodsAndServices  = "Purchased Goods and Services"
	MetricPurchasedElectricityEnergy = "Purchased Electricity (Energy)"
	MetricWaterQuantities            = "Water Quantities"
	MetricWaterQuality               = "Water Quality"
)

// Output units for derived records.
const (
	// UnitKg is the carbon quantity and CO2E unit.
	UnitKg = "kg"

	// UnitCubicMeters is the water quantity unit.
	UnitCubicMeters = "Cubic meters"

	// UnitKWh is the energy quantity unit.
	UnitKWh = "kWh"
)
