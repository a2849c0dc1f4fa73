package xref

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Politician is one entry of the politicians list.
type Politician struct {
	Vorname  string `json:"vorname"`
	Nachname string `json:"nachname"`
}

func (p Politician) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.Vorname) + " " + strings.TrimSpace(p.Nachname))
}

// LoadPoliticians reads a .csv export (header row, first and last name in the
// second and third column) or a JSON array of {vorname, nachname} objects.
func LoadPoliticians(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var list []Politician
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		list, err = readPoliticiansCSV(f)
	} else {
		err = json.NewDecoder(f).Decode(&list)
	}
	if err != nil {
		return nil, fmt.Errorf("read politicians %s: %w", path, err)
	}

	names := make([]string, 0, len(list))
	for _, p := range list {
		if n := p.FullName(); n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}

func readPoliticiansCSV(r io.Reader) ([]Politician, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var list []Politician
	header := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return list, nil
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}
		if len(row) < 3 {
			continue
		}
		list = append(list, Politician{Vorname: row[1], Nachname: row[2]})
	}
}

// LoadCompanies reads a JSON array of company names.
func LoadCompanies(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("read companies %s: %w", path, err)
	}
	return list, nil
}
