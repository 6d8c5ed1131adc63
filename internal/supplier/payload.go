package supplier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Payload keys read by the accessors.
const (
	KeyName                  = "name"
	KeyProductID             = "product_id"
	KeyManufacturer          = "manufacturer"
	KeyMetrics               = "sustainability_metrics"
	KeyTimestamp             = "timestamp"
	KeyDescription           = "description"
	KeyEmissionFactor        = "emission_factor"
	KeyEmissionFactorLibrary = "emission_factor_library"
)

// Metric is one named raw value from the sustainability_metrics list.
type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Data is the decoded supplier document. It is immutable: accessors return
// defaults for absent fields and copies of anything mutable.
type Data struct {
	fields     map[string]json.RawMessage
	metrics    []Metric
	hasMetrics bool
}

// Parse decodes a supplier body. The body must be a JSON object; every key is
// optional.
func Parse(body []byte) (*Data, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformedResponse)
	}

	d := &Data{fields: fields}
	d.metrics, d.hasMetrics = decodeMetrics(fields[KeyMetrics])
	return d, nil
}

// Name returns the supplier item name, or "".
func (d *Data) Name() string {
	return d.text(KeyName)
}

// ProductID returns the supplier's product identifier, or "". Numeric IDs are
// returned in their literal form.
func (d *Data) ProductID() string {
	return d.text(KeyProductID)
}

// Description returns the item description, or "".
func (d *Data) Description() string {
	return d.text(KeyDescription)
}

// ManufacturerName returns manufacturer.name, or nil when absent.
func (d *Data) ManufacturerName() *string {
	raw, ok := d.fields[KeyManufacturer]
	if !ok {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil
	}
	return scalar(m[KeyName])
}

// Timestamp returns the supplier timestamp and whether one was present.
func (d *Data) Timestamp() (string, bool) {
	s := scalar(d.fields[KeyTimestamp])
	if s == nil || *s == "" {
		return "", false
	}
	return *s, true
}

// EmissionFactor returns the supplier's emission factor, or nil.
func (d *Data) EmissionFactor() *string {
	return scalar(d.fields[KeyEmissionFactor])
}

// EmissionFactorLibrary returns the supplier's emission factor library, or nil.
func (d *Data) EmissionFactorLibrary() *string {
	return scalar(d.fields[KeyEmissionFactorLibrary])
}

// HasMetrics reports whether the document carried a sustainability_metrics list.
func (d *Data) HasMetrics() bool {
	return d.hasMetrics
}

// Metrics returns a copy of the decoded metrics.
func (d *Data) Metrics() []Metric {
	out := make([]Metric, len(d.metrics))
	copy(out, d.metrics)
	return out
}

// Field returns a copy of the raw JSON value stored under key.
func (d *Data) Field(key string) (json.RawMessage, bool) {
	raw, ok := d.fields[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(raw), true
}

func (d *Data) text(key string) string {
	if s := scalar(d.fields[key]); s != nil {
		return *s
	}
	return ""
}

// scalar renders a JSON string or number as text. Null, objects, arrays and
// booleans yield nil.
func scalar(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return &s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil
		}
		s := n.String()
		return &s
	}
	return nil
}

// decodeMetrics accepts a list of {name, value} objects. Entries that are not
// objects are skipped; values that are not numeric count as 0.
func decodeMetrics(raw json.RawMessage) ([]Metric, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}

	metrics := make([]Metric, 0, len(items))
	for _, item := range items {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(item, &entry); err != nil || entry == nil {
			continue
		}
		m := Metric{}
		if name := scalar(entry["name"]); name != nil {
			m.Name = *name
		}
		if v := scalar(entry["value"]); v != nil {
			if f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64); err == nil {
				m.Value = f
			}
		}
		metrics = append(metrics, m)
	}
	return metrics, true
}
