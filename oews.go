package labordash

import "strings"

// Dataset names.
const (
	DatasetNational  = "national"
	DatasetState     = "state"
	DatasetMSA       = "msa"
	DatasetNatSector = "natsector"
)

// Canonical column names of the OEWS tables.
const (
	ColOccCode      = "OCC_CODE"
	ColOccTitle     = "OCC_TITLE"
	ColOGroup       = "O_GROUP"
	ColTotEmp       = "TOT_EMP"
	ColJobs1000     = "JOBS_1000"
	ColLocQuotient  = "LOC_QUOTIENT"
	ColAMean        = "A_MEAN"
	ColAPct10       = "A_PCT10"
	ColAPct25       = "A_PCT25"
	ColAMedian      = "A_MEDIAN"
	ColAPct75       = "A_PCT75"
	ColAPct90       = "A_PCT90"
	ColHMedian      = "H_MEDIAN"
	ColAreaTitle    = "AREA_TITLE"
	ColAreaType     = "AREA_TYPE"
	ColNAICS        = "NAICS"
	ColNAICSTitle   = "NAICS_TITLE"
	ColPctTotal     = "PCT_TOTAL"
	ColSOCCanon     = "SOC_CANON"
	ColAnnualMedian = "A_MEDIAN_ANNUAL"
	ColIndustry     = "INDUSTRY"
)

// HoursPerYear converts an hourly wage to an annual one.
const HoursPerYear = 2080.0

func str(name string, required bool, aliases ...string) Column {
	return Column{Name: name, Kind: KindString, Required: required, Aliases: aliases}
}

func num(name string, aliases ...string) Column {
	return Column{Name: name, Kind: KindNumber, Aliases: aliases}
}

func wageColumns() []Column {
	return []Column{
		num(ColTotEmp),
		num(ColJobs1000),
		num(ColAMean),
		num(ColAPct10),
		num(ColAPct25),
		num(ColAMedian),
		num(ColAPct75),
		num(ColAPct90),
		num(ColHMedian),
	}
}

func NationalSchema() *Schema {
	cols := []Column{
		str(ColOccCode, true, "SOC_CODE"),
		str(ColOccTitle, true, "SOC_TITLE"),
		str(ColOGroup, false),
	}
	return NewSchema(DatasetNational, append(cols, wageColumns()...)...)
}

// AreaSchema is shared by the state and MSA tables.
func AreaSchema(name string) *Schema {
	cols := []Column{
		str(ColAreaTitle, true),
		str(ColAreaType, false),
		str(ColOccCode, true, "SOC_CODE"),
		str(ColOccTitle, false, "SOC_TITLE"),
		num(ColLocQuotient, "LOC_Q"),
	}
	return NewSchema(name, append(cols, wageColumns()...)...)
}

func NatSectorSchema() *Schema {
	return NewSchema(DatasetNatSector,
		str(ColOccCode, true, "SOC_CODE"),
		str(ColOccTitle, false, "SOC_TITLE"),
		str(ColNAICS, false),
		str(ColNAICSTitle, false, "INDUSTRY_TITLE"),
		num(ColTotEmp),
		num(ColPctTotal),
	)
}

// SchemaFor returns the canonical schema of a known dataset.
func SchemaFor(dataset string) (*Schema, error) {
	switch dataset {
	case DatasetNational:
		return NationalSchema(), nil
	case DatasetState, DatasetMSA:
		return AreaSchema(dataset), nil
	case DatasetNatSector:
		return NatSectorSchema(), nil
	default:
		return nil, ErrUnknownDataset
	}
}

func DatasetTitle(dataset string) string {
	switch dataset {
	case DatasetNational:
		return "National occupational employment and wages"
	case DatasetState:
		return "State occupational employment and wages"
	case DatasetMSA:
		return "Metropolitan area occupational employment and wages"
	case DatasetNatSector:
		return "National industry-specific occupational employment"
	default:
		return dataset
	}
}

// SOCCanonDeriver adds SOC_CANON, the canonical form of OCC_CODE used for
// filters and joins.
func SOCCanonDeriver() Deriver {
	return NewDeriver("soc_canon", func(t *Table) (*Table, error) {
		return AddColumn(t, str(ColSOCCanon, false), func(r Record) any {
			if code := r.Str(ColOccCode); code != "" {
				return CanonSOC(code)
			}
			return nil
		}), nil
	}, DeriverWithNeeds(ColOccCode), DeriverWithRequired(true))
}

// AnnualMedianDeriver adds A_MEDIAN_ANNUAL: A_MEDIAN when published,
// otherwise H_MEDIAN scaled to a year.
func AnnualMedianDeriver() Deriver {
	return NewDeriver("annual_median", func(t *Table) (*Table, error) {
		return AddColumn(t, num(ColAnnualMedian), func(r Record) any {
			if v, ok := r.Num(ColAMedian); ok {
				return v
			}
			if v, ok := r.Num(ColHMedian); ok {
				return v * HoursPerYear
			}
			return nil
		}), nil
	}, DeriverWithNeeds(ColAMedian, ColHMedian))
}

// GroupFilterDeriver keeps rows whose O_GROUP is one of groups. Tables that
// do not populate O_GROUP pass through unchanged.
func GroupFilterDeriver(groups ...string) Deriver {
	keep := make(map[string]bool, len(groups))
	for _, g := range groups {
		keep[g] = true
	}
	return NewDeriver("group_filter", func(t *Table) (*Table, error) {
		populated := false
		for _, r := range t.Records {
			if r.Str(ColOGroup) != "" {
				populated = true
				break
			}
		}
		if !populated {
			return t, nil
		}
		return t.Filter(func(r Record) bool {
			return keep[strings.ToLower(r.Str(ColOGroup))]
		}), nil
	}, DeriverWithNeeds(ColOGroup))
}

// IndustryLabelDeriver adds INDUSTRY: NAICS_TITLE without its "Sector: "
// prefix, or the NAICS code when no title is published.
func IndustryLabelDeriver() Deriver {
	return NewDeriver("industry_label", func(t *Table) (*Table, error) {
		return AddColumn(t, str(ColIndustry, false), func(r Record) any {
			label := strings.TrimSpace(strings.TrimPrefix(r.Str(ColNAICSTitle), "Sector: "))
			if label == "" {
				label = r.Str(ColNAICS)
			}
			if label == "" {
				return nil
			}
			return label
		}), nil
	}, DeriverWithNeeds(ColNAICSTitle, ColNAICS))
}

// NormalizerFor returns the normalizer for a known dataset.
func NormalizerFor(dataset string, opts ...NormalizerOption) Normalizer {
	derivers := []Deriver{SOCCanonDeriver()}
	switch dataset {
	case DatasetNational:
		derivers = append(derivers, AnnualMedianDeriver(), GroupFilterDeriver("detailed", "broad", "total"))
	case DatasetState, DatasetMSA:
		derivers = append(derivers, AnnualMedianDeriver())
	case DatasetNatSector:
		derivers = append(derivers, IndustryLabelDeriver())
	}

	all := make([]NormalizerOption, 0, len(derivers)+len(opts))
	for _, d := range derivers {
		all = append(all, NormalizerWithDeriver(d))
	}
	return NewSchemaNormalizer(append(all, opts...)...)
}
