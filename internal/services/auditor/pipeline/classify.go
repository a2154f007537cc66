package pipeline

import (
	"log"

	"loan_audit/internal/models"
	"loan_audit/internal/table"
)

// codeMap reads a two-column lookup, first mapping wins for a repeated code.
// ok is false when the table or one of its columns is missing.
func (r *run) codeMap(t *table.Table, name, keyCol, valCol string) (map[string]string, bool) {
	if t == nil {
		r.warn("lookup %q not supplied", name)
		return nil, false
	}
	if c := t.HasAll(keyCol, valCol); c != "" {
		r.warn("lookup %q has no column %q", name, c)
		return nil, false
	}
	m := make(map[string]string, len(t.Rows))
	for _, row := range t.Rows {
		k, v := code(row.Get(keyCol)), label(row.Get(valCol))
		if k == "" || v == "" {
			continue
		}
		if _, dup := m[k]; dup {
			continue
		}
		m[k] = v
	}
	return m, true
}

func (r *run) classifyCollateral() {
	types, ok := r.codeMap(r.in.CollateralTypes, TableCollateralTypes, colMapCollCode, colMapCollType)

	r.res.CollateralHeader = r.in.Collateral.Header
	rows := make([]models.LoanCollateralRow, 0, r.in.Collateral.Len())
	bad, unmapped := 0, 0
	for _, src := range r.in.Collateral.Rows {
		lc, coerced := r.collateralRow(src)
		bad += coerced

		switch {
		case lc.CollateralCode == "":
			lc.CollateralType = r.rules.NoCollateralLabel
		case ok:
			if cat, found := types[lc.CollateralCode]; found {
				lc.CollateralType = cat
			} else {
				lc.Note = r.rules.NewCodeNote
				unmapped++
			}
		}
		rows = append(rows, lc)
	}
	r.res.Collateral = rows

	if bad > 0 {
		r.warn("%d collateral ledger cells were not numeric and count as zero", bad)
	}
	if unmapped > 0 {
		r.warn("%d collateral rows carry a code with no collateral-type mapping", unmapped)
	}
	log.Printf("[AUDIT][CLASSIFY] collateral_rows=%d unmapped=%d", len(rows), unmapped)
	r.inspect("classify_collateral", r.res.CollateralSheet())
}

func (r *run) collateralRow(src table.Row) (models.LoanCollateralRow, int) {
	value, okV := parseAmount(src.Get(colCollValue))
	exposure, okE := parseAmount(src.Get(colCollExposure))
	bad := 0
	if !okV {
		bad++
	}
	if !okE {
		bad++
	}
	return models.LoanCollateralRow{
		Branch:          src.Get(colCollBranch),
		Customer:        models.NewCustomerID(src.Get(colCollCustomer)),
		CustomerName:    src.Get(colCollName),
		Segment:         src.Get(colCollSegment),
		DebtGroup:       src.Get(colCollDebtGroup),
		Facility:        label(src.Get(colCollFacility)),
		CollateralCode:  code(src.Get(colCollCode)),
		CollateralValue: value,
		Exposure:        exposure,
		ValuationDate:   parseDate(src.Get(colCollValuation)),
		SerialNumber:    code(src.Get(colCollSerial)),
		Source:          src,
	}, bad
}

// classifyPurpose maps loan-purpose codes to groups. Blank and unmapped codes
// both land in the blank group; only the unmapped ones get the new-code note.
func (r *run) classifyPurpose() {
	groups, ok := r.codeMap(r.in.PurposeGroups, TablePurposeGroups, colMapPurposeKey, colMapPurposeGrp)

	r.res.LoanTermsHeader = r.in.LoanTerms.Header
	rows := make([]models.LoanTermsRow, 0, r.in.LoanTerms.Len())
	bad := 0
	for _, src := range r.in.LoanTerms.Rows {
		exposure, okE := parseAmount(src.Get(colTermsExposure))
		if !okE {
			bad++
		}
		lt := models.LoanTermsRow{
			Branch:       src.Get(colTermsBranch),
			Customer:     models.NewCustomerID(src.Get(colTermsCustomer)),
			ApprovalCode: src.Get(colTermsApproval),
			SchemeCode:   code(src.Get(colTermsScheme)),
			PurposeCode:  code(src.Get(colTermsPurpose)),
			Exposure:     exposure,
			ContractRef:  code(src.Get(colTermsContract)),
			Source:       src,
		}
		if ok {
			if g, found := groups[lt.PurposeCode]; found {
				lt.PurposeGroup = g
			} else {
				lt.PurposeGroup = r.rules.BlankLabel
				if lt.PurposeCode != "" {
					lt.Note = r.rules.NewCodeNote
				}
			}
		}
		rows = append(rows, lt)
	}
	r.res.LoanTerms = rows

	if bad > 0 {
		r.warn("%d loan-terms exposure cells were not numeric and count as zero", bad)
	}

	r.res.PurposePivot = NewPivot()
	if !ok {
		r.warn("purpose pivot skipped: every customer gets a zero purpose-side exposure")
	} else {
		for _, lt := range rows {
			if lt.Customer.Empty() {
				continue
			}
			r.res.PurposePivot.Add(lt.Customer, lt.PurposeGroup, lt.Exposure)
		}
	}
	log.Printf("[AUDIT][PURPOSE] loan_terms_rows=%d customers=%d groups=%d",
		len(rows), r.res.PurposePivot.Len(), len(r.res.PurposePivot.Categories()))
	r.inspect("purpose_pivot", r.res.PurposePivotSheet())
}
