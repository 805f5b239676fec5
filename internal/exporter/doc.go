// Package exporter writes dashboard views as downloadable files.
//
// Every view of a domain.ViewSet is first flattened into a Table by
// ViewTables. Tables are then written either as one CSV stream, with each
// table introduced by a "[name]" marker row, or as an Excel workbook with
// one sheet per table.
//
// Example usage:
//
//	tables := exporter.ViewTables(views)
//	if err := exporter.WriteXLSX(w, tables); err != nil {
//		return err
//	}
//
//	// Files land in the configured exports directory
//	writer := exporter.NewCSVWriter(paths)
//	path, err := writer.WriteFile("views-2024.csv", tables)
package exporter
