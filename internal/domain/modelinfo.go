package domain

// ModelInfo is the published view of a model descriptor.
type ModelInfo struct {
	Code           string         `json:"code"`
	Family         string         `json:"family"`
	Classification Classification `json:"classification"`
	Lookup         string         `json:"lookup,omitempty"`
	KFactors       []KFactorEntry `json:"k_factors,omitempty"`
	SuppliesAir    bool           `json:"supplies_air"`
	UV             bool           `json:"uv"`
	CMW            bool           `json:"cmw"`
}

// KFactorEntry is one row of a model's coefficient table.
type KFactorEntry struct {
	Key     int     `json:"key"`
	KFactor float64 `json:"k_factor"`
}

// Info returns the published view of the descriptor. Lookup names the key of
// the coefficient table: "ksa" or "length_mm".
func (d ModelDescriptor) Info() ModelInfo {
	info := ModelInfo{
		Code:           d.Code,
		Family:         d.Family,
		Classification: d.Classification,
		SuppliesAir:    d.SuppliesAir,
		UV:             d.UV,
		CMW:            d.CMW,
	}
	var table map[int]float64
	switch c := d.Coefficients.(type) {
	case KSATable:
		info.Lookup, table = "ksa", c
	case LengthTable:
		info.Lookup, table = "length_mm", c
	}
	for _, k := range d.Keys() {
		info.KFactors = append(info.KFactors, KFactorEntry{Key: k, KFactor: table[k]})
	}
	return info
}

// ModelInfos returns the published view of every model in registry order.
func (r *Registry) ModelInfos() []ModelInfo {
	models := r.Models()
	out := make([]ModelInfo, 0, len(models))
	for _, d := range models {
		out = append(out, d.Info())
	}
	return out
}
