package engine

import (
	"time"

	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/supplier"
)

// Accumulate classifies and normalizes every supplier metric and sums them
// per domain. When the invoice's unit model cannot be evaluated every metric
// contributes zero and the model error is returned alongside zero totals.
func Accumulate(data *supplier.Data, model greenops.UnitModel) (greenops.Totals, error) {
	var totals greenops.Totals
	if data == nil || !data.HasMetrics() {
		return totals, nil
	}

	factor, err := greenops.ConversionFactor(model)
	if err != nil {
		return totals, err
	}

	for _, m := range data.Metrics() {
		category := greenops.Classify(m.Name)
		if category == greenops.CategoryUnknown {
			continue
		}
		v, scaleErr := greenops.Scale(m.Value, factor)
		if scaleErr != nil {
			continue
		}
		totals.Add(category, v)
	}
	return totals, nil
}

// Build derives up to three records (carbon, water, energy) for one invoice.
// A domain yields a record only when its total is positive.
func Build(inv InvoiceContext, data *supplier.Data, now time.Time) []EmissionRecord {
	records, _, _ := build(inv, data, now)
	return records
}

func build(inv InvoiceContext, data *supplier.Data, now time.Time) ([]EmissionRecord, greenops.Totals, error) {
	totals, err := Accumulate(data, inv.Invoice.UnitModel())
	if totals.IsZero() {
		return []EmissionRecord{}, totals, err
	}

	base := template(inv, data, now)
	records := make([]EmissionRecord, 0, 3)

	if totals.Carbon > 0 {
		r := base.Clone()
		r.EmissionCategory = CategoryCarbon
		r.EmissionSource = greenops.Classify(inv.Invoice.SubCategory).String()
		r.EmissionSubCategory = inv.Invoice.SubCategory
		r.Quantity = totals.Carbon
		r.QuantityUnit = greenops.UnitKg
		r.CO2E = totals.Carbon
		r.FuelType = firstNonNil(inv.Invoice.FuelType, strPtr(DefaultFuelType))
		records = append(records, r)
	}

	if totals.Water > 0 {
		r := base.Clone()
		r.EmissionCategory = CategoryWater
		r.EmissionSource = CategoryWater
		r.EmissionSubCategory = SubCategoryWater
		r.Quantity = totals.Water
		r.QuantityUnit = greenops.UnitCubicMeters
		records = append(records, r)
	}

	if totals.Energy > 0 {
		r := base.Clone()
		r.EmissionCategory = CategoryEnergy
		r.EmissionSource = CategoryEnergy
		r.EmissionSubCategory = SubCategoryEnergy
		r.Quantity = totals.Energy
		r.QuantityUnit = greenops.UnitKWh
		r.EmissionFactor = strPtr(EnergyEmissionFactor)
		records = append(records, r)
	}

	return records, totals, err
}

// template fills the fields shared by every record of an invoice.
func template(inv InvoiceContext, data *supplier.Data, now time.Time) EmissionRecord {
	i := inv.Invoice

	productName := inv.ProductName
	if productName == "" {
		productName = data.Name()
	}

	timestamp, ok := data.Timestamp()
	if !ok {
		timestamp = formatTime(now)
	}

	r := EmissionRecord{
		Name:                  data.Name(),
		OriginID:              data.ProductID(),
		ProductName:           productName,
		Description:           data.Description(),
		OrganizationUnit:      i.OrganizationalUnit,
		Facility:              i.Facility,
		Provider:              data.ManufacturerName(),
		CostUnit:              DefaultCostUnit,
		CO2EUnit:              greenops.UnitKg,
		Timestamp:             timestamp,
		ConsumptionStartDate:  dateOr(i.TransactionStartDate, now),
		ConsumptionEndDate:    dateOr(i.TransactionEndDate, now),
		TransactionStartDate:  dateOr(i.TransactionStartDate, now),
		TransactionEndDate:    dateOr(i.TransactionEndDate, now),
		EmissionFactor:        firstNonNil(i.EmissionFactor, data.EmissionFactor()),
		EmissionFactorLibrary: firstNonNil(i.EmissionFactorLibrary, data.EmissionFactorLibrary()),
		WaterTransactionType:  DefaultWaterTransactionType,
	}
	if i.TotalAmount != nil {
		r.Cost = *i.TotalAmount
	}
	if i.Currency != nil && *i.Currency != "" {
		r.CostUnit = *i.Currency
	}
	if i.WaterTransactionType != nil && *i.WaterTransactionType != "" {
		r.WaterTransactionType = *i.WaterTransactionType
	}
	return r
}
