package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the business constants of the audit. Defaults reproduce the
// bank's current rule book; a YAML file may override any field.
type Rules struct {
	FacilityLoan      string `yaml:"facility_loan"`
	FacilityGuarantee string `yaml:"facility_guarantee"`
	FacilityLC        string `yaml:"facility_lc"`

	NoCollateralLabel string `yaml:"no_collateral_label"`
	BlankLabel        string `yaml:"blank_label"`
	NewCodeNote       string `yaml:"new_code_note"`

	DebtGroup2     []string `yaml:"debt_group_2"`
	BadDebtGroups  []string `yaml:"bad_debt_groups"`
	PerformingCode float64  `yaml:"performing_debt_group"`

	ApprovalCodes        []string `yaml:"approval_codes"`
	RestructuringSchemes []string `yaml:"restructuring_schemes"`
	CrossPledgeMarker    string   `yaml:"cross_pledge_marker"`

	SegmentIndividual string `yaml:"segment_individual"`
	SegmentCorporate  string `yaml:"segment_corporate"`
	TopN              int    `yaml:"top_n"`

	StaleTypes         []string `yaml:"stale_types"`
	ValuationCycleDays int      `yaml:"valuation_cycle_days"`
	StaleGraceDays     int      `yaml:"stale_grace_days"`

	RealEstateRegistryType string `yaml:"real_estate_registry_type"`

	DelayFromYear int `yaml:"delay_from_year"`
	DelayToYear   int `yaml:"delay_to_year"`
}

func DefaultRules() Rules {
	approval := make([]string, 0, 11)
	for i := 1; i <= 7; i++ {
		approval = append(approval, fmt.Sprintf("%02d", i))
	}
	for i := 28; i <= 31; i++ {
		approval = append(approval, fmt.Sprintf("%02d", i))
	}

	return Rules{
		FacilityLoan:      "Cho vay",
		FacilityGuarantee: "Bao lanh",
		FacilityLC:        "LC",

		NoCollateralLabel: "Không TS",
		BlankLabel:        "(blank)",
		NewCodeNote:       "MỚI",

		DebtGroup2:     []string{"2", "2.0"},
		BadDebtGroups:  []string{"3", "4", "5", "3.0", "4.0", "5.0"},
		PerformingCode: 1,

		ApprovalCodes: approval,
		RestructuringSchemes: []string{
			"ACOV1", "ACOV3", "ATT01", "ATT02", "ATT03", "ATT04",
			"BCOV1", "BCOV2", "BTT01", "BTT02", "BTT03",
			"CCOV2", "CCOV3", "CTT03", "RCOV3", "RTT03",
		},
		CrossPledgeMarker: "TCTD",

		SegmentIndividual: "ca nhan",
		SegmentCorporate:  "doanh nghiep",
		TopN:              10,

		StaleTypes:         []string{"BĐS", "MMTB", "PTVT"},
		ValuationCycleDays: 365,
		StaleGraceDays:     30,

		RealEstateRegistryType: "Bat dong san",

		DelayFromYear: 2023,
		DelayToYear:   2025,
	}
}

// LoadRules overlays the YAML file at path on the defaults. Fields absent
// from the file keep their default values.
func LoadRules(path string) (Rules, error) {
	r := DefaultRules()
	if path == "" {
		return r, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read rules: %w", err)
	}
	if err := yaml.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return r, r.Validate()
}

func (r Rules) Validate() error {
	if r.TopN < 0 {
		return fmt.Errorf("top_n must not be negative, got %d", r.TopN)
	}
	if r.DelayFromYear > r.DelayToYear {
		return fmt.Errorf("delay window %d-%d is empty", r.DelayFromYear, r.DelayToYear)
	}
	if r.BlankLabel == "" || r.NoCollateralLabel == "" {
		return fmt.Errorf("blank_label and no_collateral_label are required")
	}
	return nil
}

type stringSet map[string]struct{}

func setOf(items []string, norm func(string) string) stringSet {
	s := make(stringSet, len(items))
	for _, it := range items {
		if norm != nil {
			it = norm(it)
		}
		s[it] = struct{}{}
	}
	return s
}

func (s stringSet) has(k string) bool {
	_, ok := s[k]
	return ok
}
