// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

// SubgroupStats is the derived, read-only record for one (gene,
// subgroup) pair: the non-missing signal values restricted to the
// subgroup's members, plus their summary statistics.
type SubgroupStats struct {
	Subgroup string
	Gene     string
	Values   []float64
	SummaryStats
}

// AggregateGeneSubgroupStats extracts one gene's signal values for each
// subgroup and summarizes them. Subgroup members without a column in
// the signal table are skipped silently: a subgroup is defined from the
// sample population, which may include samples lacking signal data. A
// gene absent from the table is a lookup miss, returned as a
// NotFoundError.
//
// If the caller wants subgroup means on a standardized scale, it
// z-scores the table (once per gene, across the full population) before
// calling; the transform is deliberately not applied per subgroup so
// the cross-subgroup relative scale is preserved.
func AggregateGeneSubgroupStats(gene string, sig *SignalTable, subgroups []Subgroup) ([]SubgroupStats, error) {
	row, ok := sig.Row(gene)
	if !ok {
		return nil, &NotFoundError{Key: gene, Table: "signal table"}
	}
	out := make([]SubgroupStats, 0, len(subgroups))
	for _, sg := range subgroups {
		var values []float64
		for _, sample := range sg.Samples {
			if i, ok := sig.SampleIndex(sample); ok {
				values = append(values, row[i])
			}
		}
		values = dropMissing(values)
		out = append(out, SubgroupStats{
			Subgroup:     sg.Name,
			Gene:         gene,
			Values:       values,
			SummaryStats: summarize(values),
		})
	}
	return out, nil
}
