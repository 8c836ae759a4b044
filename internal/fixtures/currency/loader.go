package currency

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/amirasaad/fxconvert/pkg/currency"
)

//go:embed meta.csv
var metaCSV string

const expectedColumns = 6

// LoadCurrencyMetaCSV loads currency metadata from a CSV file or embedded content.
// If path is empty, it uses the embedded CSV content.
func LoadCurrencyMetaCSV(path string) ([]currency.Currency, error) {
	var r io.Reader

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	} else {
		r = strings.NewReader(metaCSV)
	}

	return parseCurrencyMetaCSV(r)
}

// LoadCatalog builds a catalog from the CSV at path, or from the embedded
// fixture when path is empty.
func LoadCatalog(path string) (*currency.Catalog, error) {
	entries, err := LoadCurrencyMetaCSV(path)
	if err != nil {
		return nil, err
	}
	return currency.NewCatalog(entries), nil
}

// MustDefault returns the catalog built from the embedded fixture.
func MustDefault() *currency.Catalog {
	c, err := LoadCatalog("")
	if err != nil {
		panic(fmt.Sprintf("embedded currency fixture is invalid: %v", err))
	}
	return c
}

func parseCurrencyMetaCSV(r io.Reader) ([]currency.Currency, error) {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}

	var out []currency.Currency
	for i, rec := range records {
		if i == 0 {
			if len(rec) < expectedColumns {
				return nil, fmt.Errorf(
					"invalid CSV format: expected at least %d columns, got %d",
					expectedColumns,
					len(rec),
				)
			}
			continue // skip header
		}

		// Skip malformed rows
		if len(rec) < expectedColumns || len(rec[0]) != 3 {
			continue
		}

		decimals, err := strconv.Atoi(rec[4])
		if err != nil {
			decimals = currency.DefaultDecimals
		}
		out = append(out, currency.Currency{
			Code:     rec[0],
			Name:     rec[1],
			Symbol:   rec[2],
			Flag:     rec[3],
			Decimals: decimals,
			Region:   rec[5],
		})
	}
	return out, nil
}
