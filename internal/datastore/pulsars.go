package datastore

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/vast-survey/triage/internal/errors"
)

// ReplacePulsars swaps the pulsar mirror's contents for a fresh catalog
// export in one transaction and returns the number of rows loaded.
func (ds *DataStore) ReplacePulsars(ctx context.Context, pulsars []ATNFPulsar) (int, error) {
	err := ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ATNFPulsar{}).Error; err != nil {
			return err
		}
		if len(pulsars) == 0 {
			return nil
		}
		return tx.CreateInBatches(pulsars, 500).Error
	})
	if err != nil {
		return 0, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "replace_pulsars").
			Build()
	}
	return len(pulsars), nil
}

// ParsePulsarCSV reads an ATNF psrcat CSV export with a header line naming
// at least NAME, RAJD and DECJD columns (decimal degrees). DM, P0 and S400
// are optional; blank or asterisk cells become NULL.
func ParsePulsarCSV(r io.Reader) ([]ATNFPulsar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileParsing).
			Component("datastore").
			Context("operation", "parse_pulsar_csv").
			Build()
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"NAME", "RAJD", "DECJD"} {
		if _, ok := index[required]; !ok {
			return nil, errors.Newf("pulsar catalog CSV is missing column %s", required).
				Category(errors.CategoryFileParsing).
				Component("datastore").
				Build()
		}
	}

	var pulsars []ATNFPulsar
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryFileParsing).
				Component("datastore").
				Context("operation", "parse_pulsar_csv").
				Build()
		}

		name := strings.TrimSpace(record[index["NAME"]])
		if name == "" {
			continue
		}
		raj, errRA := strconv.ParseFloat(strings.TrimSpace(record[index["RAJD"]]), 64)
		decj, errDec := strconv.ParseFloat(strings.TrimSpace(record[index["DECJD"]]), 64)
		if errRA != nil || errDec != nil {
			// position is mandatory; skip rows the catalog could not solve
			continue
		}

		pulsars = append(pulsars, ATNFPulsar{
			Name: name,
			RAJ:  raj,
			DecJ: decj,
			DM:   optionalFloat(record, index, "DM"),
			P0:   optionalFloat(record, index, "P0"),
			S400: optionalFloat(record, index, "S400"),
		})
	}
	return pulsars, nil
}

func optionalFloat(record []string, index map[string]int, column string) *float64 {
	i, ok := index[column]
	if !ok || i >= len(record) {
		return nil
	}
	cell := strings.TrimSpace(record[i])
	if cell == "" || cell == "*" {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
