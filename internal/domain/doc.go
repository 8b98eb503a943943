// Package domain models kitchen extraction canopy commissioning data and turns
// field readings into the computed airflow results of a commissioning report.
//
// # Data Source
//
// Project snapshots are produced by the commissioning form used by office
// staff and onsite engineers. A snapshot is a flat JSON object keyed by the
// form's field names; it reaches this service either as a Kafka message, an
// HTTP request body, a file passed to canopyctl, or a portable share link
// (JSON, base64, then URL query escaping). See [EncodeLink].
//
// # Model Classification
//
// Every supported model code belongs to exactly one measurement regime,
// decided once when the registry is built (see [Registry]):
//
//	SectionBased                 KSA count → K-factor table, T.A.B pressure per section
//	LengthBased                  canopy length (mm) → K-factor table, one implicit unit
//	GrillAnemometer              grill "WxH" size → free area, anemometer per grill
//	SlotAnemometerSupplyExtract  slot length × width → free area, extract and supply velocity
//	SlotAnemometerExtractOnly    slot length × width → free area, extract velocity only
//
// Supply capability is signalled by the "F" (front/supply) marker in the model
// code and is never granted to extract-only models.
//
// # Formulas
//
// Orifice law (K-factor models):
//
//	Qv [m³/h] = Kf × √Pa
//	Qv [m³/s] = Qv [m³/h] / 3600
//
// Section-based supply air reuses the extract KSA K-factor; length-based supply
// air looks the plenum length up in the same length table.
//
// Velocity law (anemometer models):
//
//	A  [m²]   = W/1000 × H/1000 × free area fraction (0.75 unless configured)
//	Qv [m³/s] = A × v [m/s]
//	Qv [m³/h] = Qv [m³/s] × 3600
//
// # Degradation
//
// Unknown model codes, unparseable geometry and unparseable readings never
// abort a report. The affected section or canopy computes to zero and a
// [Warning] is attached to the report context. Only input that is not a
// project object at all fails with [ErrInvalidProject].
//
// # Rounding
//
// Section flowrates are rounded to 2 dp (m³/h) and 3 dp (m³/s), free area to
// 4 dp, canopy totals to 3 dp. Results summary rows are preformatted strings
// so the document renderer does no arithmetic.
package domain
