package main

import (
	"os"

	"github.com/gocarina/gocsv"

	"dceaif/internal/models"
)

// writeDiagnostics persists the diagnostic table as CSV
func writeDiagnostics(path string, table []*models.DiagnosticRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.MarshalFile(&table, f)
}
