// Copyright (C) The Txsets Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package txsets

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Dimension is a categorical variable paired with the ordered list of
// level values to consider. Levels not listed are excluded from
// partitioning even if they occur in the data.
type Dimension struct {
	Name   string
	Levels []string
}

// DimensionLevel is one (dimension, level) pair defining a subgroup.
type DimensionLevel struct {
	Dimension string
	Level     string
}

// Subgroup is the set of samples whose attributes exactly match one
// point in the Cartesian product of two dimensions' levels. Samples
// keeps the source table's row order.
type Subgroup struct {
	Name    string
	First   DimensionLevel
	Second  DimensionLevel
	Samples []string
}

// SubgroupName builds the deterministic subgroup name,
// "{dim1}:{level1};{dim2}:{level2}".
func SubgroupName(first, second DimensionLevel) string {
	return fmt.Sprintf("%s:%s;%s:%s", first.Dimension, first.Level, second.Dimension, second.Level)
}

// PartitionByTwoDimensions enumerates the Cartesian product of the two
// dimensions' levels (first dimension outer loop, which fixes the
// subgroup order and therefore downstream column order) and collects
// the matching sample identifiers for each pair. Subgroups with zero
// members are retained so callers can detect missing combinations;
// they are reported, not errors.
//
// Duplicate sample identifiers in tab are the caller's responsibility:
// they are not deduplicated here, and would inflate subgroup sizes.
func PartitionByTwoDimensions(tab *SampleTable, first, second Dimension) ([]Subgroup, error) {
	for _, dim := range []Dimension{first, second} {
		if dim.Name == "" {
			return nil, fmt.Errorf("partition: dimension with empty name")
		}
		if len(dim.Levels) == 0 {
			return nil, fmt.Errorf("partition: dimension %q has no levels", dim.Name)
		}
		if !tab.HasColumn(dim.Name) {
			return nil, fmt.Errorf("partition: sample table has no column %q", dim.Name)
		}
	}
	tab = tab.Copy()

	subgroups := make([]Subgroup, 0, len(first.Levels)*len(second.Levels))
	for _, level1 := range first.Levels {
		for _, level2 := range second.Levels {
			sg := Subgroup{
				First:  DimensionLevel{Dimension: first.Name, Level: level1},
				Second: DimensionLevel{Dimension: second.Name, Level: level2},
			}
			sg.Name = SubgroupName(sg.First, sg.Second)
			for _, row := range tab.Rows {
				if row.Attrs[first.Name] == level1 && row.Attrs[second.Name] == level2 {
					sg.Samples = append(sg.Samples, row.ID)
				}
			}
			if len(sg.Samples) == 0 {
				log.Warnf("partition: subgroup %q has no samples", sg.Name)
			}
			subgroups = append(subgroups, sg)
		}
	}
	return subgroups, nil
}
