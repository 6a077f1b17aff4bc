package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mamadbah2/couvoir/internal/domain/models"
)

// LoadSpeciesTable builds the species duration table from the optional
// override file, falling back to the shipped defaults. The table is loaded
// once at startup and injected; the engine never reads it from disk itself.
func LoadSpeciesTable(cfg SpeciesConfig) (*models.SpeciesTable, error) {
	entries := models.DefaultSpecies()

	if cfg.TablePath != "" {
		data, err := os.ReadFile(cfg.TablePath)
		if err != nil {
			return nil, fmt.Errorf("read species table %s: %w", cfg.TablePath, err)
		}

		var loaded []models.Species
		if err := json.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("parse species table %s: %w", cfg.TablePath, err)
		}
		entries = loaded
	}

	table, err := models.NewSpeciesTable(entries)
	if err != nil {
		return nil, fmt.Errorf("invalid species table: %w", err)
	}
	return table, nil
}
