package core

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ModDatabase maps modification names to mass shifts. It resolves the
// "Name@Site" notation used for fixed modifications and library annotations.
type ModDatabase struct {
	mods map[string]float64 // name -> mass shift
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]float64),
	}
}

// LoadFromCSV loads modifications from a CSV file (format: mod,massshift[,aa]).
// The first line is a header.
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Scan() // header

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		modName := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass value '%s': %w", lineNum, massStr, err)
		}

		db.mods[modName] = mass
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// GetMass returns the mass shift for a modification name
func (db *ModDatabase) GetMass(name string) (float64, bool) {
	mass, ok := db.mods[name]
	return mass, ok
}

// Add adds or updates a modification
func (db *ModDatabase) Add(name string, mass float64) {
	db.mods[name] = mass
}

// resolve accepts either a literal mass or a modification name.
func (db *ModDatabase) resolve(nameOrMass string) (float64, error) {
	if mass, err := strconv.ParseFloat(nameOrMass, 64); err == nil {
		return mass, nil
	}
	mass, ok := db.GetMass(nameOrMass)
	if !ok {
		return 0, fmt.Errorf("unknown modification '%s'", nameOrMass)
	}
	return mass, nil
}

// ParseFixMods parses fixed modifications such as
// "Carbamidomethyl@C", "57.021464@C" or "TMT6plex@n" into a residue map for
// MassConfig.FixMods. Masses on the same site add up.
func (db *ModDatabase) ParseFixMods(specs []string) (map[byte]float64, error) {
	fixMods := make(map[byte]float64)
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		nameOrMass, site, ok := strings.Cut(spec, "@")
		if !ok || len(strings.TrimSpace(site)) != 1 {
			return nil, &ValidationError{Field: "FixMods", Message: fmt.Sprintf("invalid fixed modification '%s', expected 'name@residue' or 'mass@residue'", spec)}
		}
		aa := strings.TrimSpace(site)[0]
		if !IsAA(aa) && aa != 'n' && aa != 'c' {
			return nil, &ValidationError{Field: "FixMods", Message: fmt.Sprintf("invalid residue '%c' in '%s'", aa, spec)}
		}
		mass, err := db.resolve(strings.TrimSpace(nameOrMass))
		if err != nil {
			return nil, &ValidationError{Field: "FixMods", Message: err.Error()}
		}
		fixMods[aa] += mass
	}
	return fixMods, nil
}

// ParseModString parses a modification string like "57.021464@2;15.994915@8" or "Carbamidomethyl@C2;Oxidation@M8"
// Returns a list of modifications
func (db *ModDatabase) ParseModString(modStr string, sequence string) ([]Modification, error) {
	if modStr == "" {
		return nil, nil
	}

	var mods []Modification
	for _, part := range strings.Split(modStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		nameOrMass, posStr, ok := strings.Cut(part, "@")
		if !ok || strings.Contains(posStr, "@") {
			return nil, fmt.Errorf("invalid modification format '%s', expected 'name@position' or 'mass@position'", part)
		}
		nameOrMass = strings.TrimSpace(nameOrMass)

		mass, err := db.resolve(nameOrMass)
		if err != nil {
			return nil, err
		}

		position, err := parsePosition(posStr, sequence)
		if err != nil {
			return nil, fmt.Errorf("invalid position '%s': %w", posStr, err)
		}

		mods = append(mods, Modification{
			Mass:     mass,
			Position: position,
			Name:     nameOrMass,
		})
	}

	return mods, nil
}

// parsePosition parses a 1-based position that may carry a residue letter.
// Examples: "2", "C2", "R-1" (N-terminal), "0" (N-terminal residue)
func parsePosition(posStr string, sequence string) (int, error) {
	posStr = strings.TrimSpace(posStr)

	if posStr == "-1" || strings.HasSuffix(posStr, "-1") {
		return -1, nil
	}

	posStr = strings.TrimLeft(posStr, "ACDEFGHIKLMNPQRSTVWYUO")

	pos, err := strconv.Atoi(posStr)
	if err != nil {
		return 0, fmt.Errorf("invalid position number: %w", err)
	}

	if pos > 0 {
		pos = pos - 1
	}
	if pos >= len(sequence) && sequence != "" {
		return 0, fmt.Errorf("position %d beyond sequence of length %d", pos+1, len(sequence))
	}

	return pos, nil
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()

	// Common modifications from unimod
	db.Add("Acetyl", 42.010565)
	db.Add("Amidated", -0.984016)
	db.Add("Biotin", 226.077598)
	db.Add("Carbamidomethyl", 57.021464)
	db.Add("Carbamyl", 43.005814)
	db.Add("Carboxymethyl", 58.005479)
	db.Add("Deamidated", 0.984016)
	db.Add("Dehydrated", -18.010565)
	db.Add("Propionamide", 71.037114)
	db.Add("Glu->pyro-Glu", -18.010565)
	db.Add("Gln->pyro-Glu", -17.026549)
	db.Add("Methyl", 14.01565)
	db.Add("Oxidation", 15.994915)
	db.Add("Dimethyl", 28.0313)
	db.Add("Trimethyl", 42.04695)
	db.Add("Methylthio", 45.987721)
	db.Add("Phospho", 79.966331)
	db.Add("Sulfo", 79.956815)
	db.Add("Hex", 162.052824)
	db.Add("HexNAc", 203.079373)
	db.Add("GlyGly", 114.042927)
	db.Add("Propionyl", 56.026215)
	db.Add("TMT6plex", 229.162932)
	db.Add("TMTpro", 304.207146)
	db.Add("iTRAQ4plex", 144.102063)
	db.Add("iTRAQ8plex", 304.205360)
	db.Add("DSS", 138.068080)
	db.Add("BS3", 138.068080)
	db.Add("DSSO", 158.003765)

	return db
}
