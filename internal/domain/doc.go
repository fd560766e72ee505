// Package domain models the trash-rake sensor feed and everything derived
// from it: typed records, classification, chart series, filtering, and the
// CSV export artifact.
//
// # Data Source
//
// The sensor node appends one row per reading to a Google Sheet, which is
// published as CSV. Each fetch returns the whole sheet. The first line is a
// header and is always discarded.
//
// # Row Format
//
// Five comma-separated columns in fixed order:
//
//	timestamp, connectivity, distance, level, status
//	"01-01-2024 10:00,CONNECTED,1200,HIGH,ALERT"
//
// Fields are never quoted by the source, so rows are split on every comma.
// A field that itself contains a comma shifts the remaining columns. This is
// accepted because the sheet is written only by the sensor node.
//
// Timestamp format:
//
//	DD-MM-YYYY HH:MM[:SS]  or  DD-MM-YYYY'T'HH:MM[:SS]
//	The date portion is also used as a sort key after reordering to
//	YYYY-MM-DD. Single-digit days and months are accepted.
//
// Distance:
//
//	Time-of-flight reading in microseconds. Higher values mean the obstruction
//	is closer to the sensor. Unparsable or missing values read as 0.
//
// # Dropped Rows
//
// A row is dropped when its timestamp is empty, contains a header marker
// ("DATE" or "THE", case-sensitive), or has a date portion that does not
// parse as a calendar date. The last check rejects header remnants that
// happen not to contain a marker.
//
// # Classification
//
//	Detection:   distance >= 1120 -> DETECTED, else NOT DETECTED
//	Level:       contains HIGH or "3" -> HIGH; contains NORMAL or "2" -> NORMAL; else LOW
//	Status:      contains ALERT or "3" -> ALERT; contains WARNING or "2" -> WARNING; else NORMAL
//	Depth risk:  distance >= 1120 -> HIGH; >= 800 -> WARNING; else STABLE
//
// LOW and NORMAL are the universal fallbacks for level and status, so an
// unrecognized value is indistinguishable from a genuine LOW/NORMAL reading.
package domain
