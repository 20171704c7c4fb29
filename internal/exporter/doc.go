// Package exporter renders license registry snapshots for download and
// batch distribution.
//
// This package contains two main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// file targets, and UTF-8 BOM for Excel compatibility.
//
// LicenseExporter: Converts registry records into the shared column
// layout and renders them as CSV (for the keygen CLI) or as an xlsx
// workbook (for the admin download endpoint).
//
// Example usage:
//
//	exp := exporter.NewLicenseExporter()
//
//	// Write minted keys to a CSV file for distribution
//	err := exp.ExportFile("licenses.csv", records)
//
//	// Render the registry as a workbook for an HTTP download
//	f, err := exp.ExportWorkbook(records)
//	defer f.Close()
package exporter
