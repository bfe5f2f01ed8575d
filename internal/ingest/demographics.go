package ingest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/davestroud/publix/internal/model"
)

// Demographics files carry one row per city. Columns are matched by header
// name, case-insensitively; recognized headers are city, state, population,
// median_income and growth_rate. Extra columns are ignored.

// LoadDemographicsCSV parses a demographics CSV with a header row.
func LoadDemographicsCSV(r io.Reader) ([]model.DemographicProfile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: demographics csv is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read demographics header")
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var profiles []model.DemographicProfile
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read demographics row %d", line)
		}
		line++

		profile, ok := parseProfileRow(record, cols)
		if !ok {
			zap.L().Warn("skipping demographics row with missing city or state",
				zap.Int("line", line))
			continue
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// LoadDemographicsXLSX parses the first sheet of a demographics workbook.
// The first row is treated as the header.
func LoadDemographicsXLSX(path string) ([]model.DemographicProfile, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open demographics workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: demographics workbook has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("ingest: demographics sheet is empty")
	}

	header := rowToStrings(sheet.Rows[0])
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var profiles []model.DemographicProfile
	for i, row := range sheet.Rows[1:] {
		record := rowToStrings(row)
		profile, ok := parseProfileRow(record, cols)
		if !ok {
			zap.L().Warn("skipping demographics row with missing city or state",
				zap.Int("row", i+2))
			continue
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

// columnIndex maps recognized demographic fields to their column positions.
// A value of -1 means the column is absent.
type columnIndex struct {
	city         int
	state        int
	population   int
	medianIncome int
	growthRate   int
}

func mapColumns(header []string) (columnIndex, error) {
	cols := columnIndex{city: -1, state: -1, population: -1, medianIncome: -1, growthRate: -1}

	for i, name := range header {
		switch normalizeHeader(name) {
		case "city":
			cols.city = i
		case "state":
			cols.state = i
		case "population":
			cols.population = i
		case "median_income", "medianincome":
			cols.medianIncome = i
		case "growth_rate", "growthrate":
			cols.growthRate = i
		}
	}

	if cols.city < 0 || cols.state < 0 || cols.population < 0 {
		return cols, eris.Errorf("ingest: demographics header missing required columns (got %v)", header)
	}
	return cols, nil
}

func normalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "_")
}

func parseProfileRow(record []string, cols columnIndex) (model.DemographicProfile, bool) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	city := field(cols.city)
	state := field(cols.state)
	if city == "" || state == "" {
		return model.DemographicProfile{}, false
	}

	profile := model.DemographicProfile{
		City:  NormalizeCity(city),
		State: strings.ToUpper(state),
	}

	if pop, err := strconv.Atoi(stripThousands(field(cols.population))); err == nil {
		profile.Population = pop
	}
	if v, err := strconv.ParseFloat(stripThousands(field(cols.medianIncome)), 64); err == nil {
		profile.MedianIncome = &v
	}
	if v, err := strconv.ParseFloat(field(cols.growthRate), 64); err == nil {
		profile.GrowthRate = &v
	}

	return profile, true
}

func stripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
