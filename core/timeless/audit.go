package timeless

import (
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// AuditRow compares one notable's declared share with how often it was picked.
type AuditRow struct {
	Notable       Notable `json:"notable"`
	Weight        uint32  `json:"weight"`
	ExpectedShare float64 `json:"expected_share"`
	Observed      int     `json:"observed"`
	ObservedShare float64 `json:"observed_share"`
}

// AuditReport is the outcome of AuditWeights.
type AuditReport struct {
	Seed      uint32     `json:"seed"`
	Samples   int        `json:"samples"`
	Rows      []AuditRow `json:"rows"`
	ChiSquare float64    `json:"chi_square"`
	PValue    float64    `json:"p_value"`
}

// AuditWeights selects a notable for every node id under a fixed seed and
// measures the observed frequencies against the declared weights with a
// chi-square goodness of fit test.
func AuditWeights(s *Selector, seed uint32, nodeIDs []uint32) *AuditReport {
	report := &AuditReport{Seed: seed, Samples: len(nodeIDs)}
	if s.Empty() || len(nodeIDs) == 0 {
		report.PValue = 1
		return report
	}

	counts := make([]float64, s.Len())
	for _, id := range nodeIDs {
		counts[s.pick(id, seed)]++
	}

	expected := make([]float64, s.Len())
	report.Rows = make([]AuditRow, s.Len())
	for i, n := range s.notables {
		share := s.Share(i)
		expected[i] = share * float64(len(nodeIDs))
		report.Rows[i] = AuditRow{
			Notable:       n,
			Weight:        s.weights[i],
			ExpectedShare: share,
			Observed:      int(counts[i]),
			ObservedShare: counts[i] / float64(len(nodeIDs)),
		}
	}

	report.ChiSquare = stat.ChiSquare(counts, expected)
	if dof := float64(s.Len() - 1); dof > 0 {
		report.PValue = distuv.ChiSquared{K: dof}.Survival(report.ChiSquare)
	} else {
		report.PValue = 1
	}
	return report
}
