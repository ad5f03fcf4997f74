package main

import (
	"fmt"
	"os"
	"time"

	"minuta/internal/format"
	"minuta/internal/models"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeVersionList(versions []models.FieldVersion) error {
	for _, version := range versions {
		if err := writePlain("%s  %s  %s\n", version.ID, formatTime(version.CreatedAt), version.Preview); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
