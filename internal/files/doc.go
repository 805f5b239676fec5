// Package files finds dataset files on disk.
//
// A dataset path may name a directory instead of a file. Discovery then
// lists the workbooks and CSV files inside it, skipping Office lock files,
// and Latest picks the most recently modified one. Each reload repeats the
// lookup so a newer export dropped into the directory is picked up.
package files
