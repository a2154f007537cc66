package pipeline

import (
	"log"
	"strings"

	"loan_audit/internal/models"
)

// province returns the last comma-separated token of an address, folded.
func province(address string) string {
	parts := strings.Split(address, ",")
	return lower(parts[len(parts)-1])
}

// flagOffRegion matches real-estate collateral against the registry and marks
// customers whose collateral sits outside the audited province.
func (r *run) flagOffRegion() {
	reg := r.in.Registry
	switch {
	case reg == nil:
		r.warn("collateral registry not supplied; off-region flag left blank")
		return
	case r.p.AuditedRegion == "":
		r.warn("audited region not set; off-region flag left blank")
		return
	}
	if c := reg.HasAll(colRegSerial, colRegType, colRegAddress); c != "" {
		r.warn("collateral registry has no column %q; off-region flag left blank", c)
		return
	}
	r.res.RegistryHeader = reg.Header

	serials := make(map[string]bool)
	for _, lc := range r.res.Collateral {
		if lc.SerialNumber != "" {
			serials[lc.SerialNumber] = true
		}
	}

	realEstate := label(r.rules.RealEstateRegistryType)
	offSerials := make(map[string]bool)
	var matches []models.RealEstateCollateralRow
	for _, row := range reg.Rows {
		serial := code(row.Get(colRegSerial))
		if !serials[serial] || label(row.Get(colRegType)) != realEstate {
			continue
		}
		m := models.RealEstateCollateralRow{
			Serial:    serial,
			AssetType: row.Get(colRegType),
			Address:   row.Get(colRegAddress),
			Source:    row,
		}
		m.Province = province(m.Address)
		m.OffRegion = m.Province != "" && m.Province != r.p.AuditedRegion
		if m.OffRegion {
			offSerials[serial] = true
		}
		matches = append(matches, m)
	}
	r.res.RegionMatches = matches
	if len(matches) == 0 {
		r.warn("no real-estate collateral of this branch was found in the registry")
	}

	ids := make(map[models.CustomerID]bool)
	for _, lc := range r.res.Collateral {
		if offSerials[lc.SerialNumber] {
			ids[lc.Customer] = true
		}
	}
	n := r.customerSet(ids, func(f *models.Flags) { f.OffRegion = true })
	log.Printf("[AUDIT][FLAG] off_region=%d matched=%d", n, len(matches))
	r.inspect("off_region", r.res.RegionSheet())
}
