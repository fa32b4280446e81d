package labordash

import (
	"strconv"
	"strings"
)

// ColSharePct is the percentage column of the industry mix view.
const ColSharePct = "SHARE_PCT"

// Number is a statistic that may be missing or suppressed.
type Number struct {
	Value float64
	Valid bool
}

func numberOf(r Record, col string) Number {
	v, ok := r.Num(col)
	return Number{Value: v, Valid: ok}
}

// Point is one labeled value of a series.
type Point struct {
	Label string
	Value Number
}

type GeoLevel string

const (
	LevelState GeoLevel = "state"
	LevelMSA   GeoLevel = "msa"
)

func ParseGeoLevel(s string) (GeoLevel, error) {
	switch GeoLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LevelState, "":
		return LevelState, nil
	case LevelMSA:
		return LevelMSA, nil
	default:
		return "", NewValidationError("level", "must be state or msa")
	}
}

// Dataset returns the area dataset holding this level.
func (l GeoLevel) Dataset() string {
	if l == LevelMSA {
		return DatasetMSA
	}
	return DatasetState
}

func (l GeoLevel) areaTypeCode() float64 {
	if l == LevelMSA {
		return 4
	}
	return 2
}

func (l GeoLevel) matchesLabel(label string) bool {
	label = strings.ToLower(label)
	if l == LevelState {
		return strings.Contains(label, "state")
	}
	for _, s := range []string{"metro", "micro", "nonmetro"} {
		if strings.Contains(label, s) {
			return true
		}
	}
	return false
}

// USMedianWage is the annual median of the all-occupations row, or the
// median of occupation medians when that row is absent.
func USMedianWage(national *Table) (float64, bool) {
	for _, r := range national.Records {
		if r.Str(ColSOCCanon) == AllOccupations {
			if v, ok := r.Num(ColAnnualMedian); ok {
				return v, true
			}
		}
	}
	return Percentile(occupations(national).Numbers(ColAnnualMedian), 50)
}

func occupations(national *Table) *Table {
	return national.Filter(func(r Record) bool {
		return r.Str(ColSOCCanon) != AllOccupations
	})
}

func bySOC(t *Table, soc string) *Table {
	code := CanonSOC(soc)
	return t.Filter(func(r Record) bool {
		return r.Str(ColSOCCanon) == code
	})
}

// TopOccupations lists the k largest occupations by national employment.
func TopOccupations(national *Table, k int) *Table {
	return occupations(national).
		SortByNumber(ColTotEmp, true, ColOccTitle).
		Head(k).
		Project([]string{ColOccCode, ColOccTitle, ColTotEmp, ColAnnualMedian, ColAMean},
			map[string]string{ColAnnualMedian: ColAMedian})
}

// OccupationList lists every occupation once, ordered by title.
func OccupationList(national *Table) *Table {
	seen := make(map[string]bool)
	unique := occupations(national).Filter(func(r Record) bool {
		key := r.Str(ColSOCCanon) + "\x00" + r.Str(ColOccTitle)
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})
	return unique.SortByString(ColOccTitle).Project([]string{ColOccCode, ColOccTitle}, nil)
}

// OccupationSnapshot summarizes one occupation nationally.
type OccupationSnapshot struct {
	Code         string
	Title        string
	Median       Number
	P10          Number
	P90          Number
	Mean         Number
	Employment   Number
	RelativeWage Number
}

// Field is one labeled line of a rendered snapshot.
type Field struct {
	Label string
	Value Number
	Unit  string
}

const (
	UnitDollars = "dollars"
	UnitCount   = "count"
	UnitRatio   = "ratio"
)

func (s OccupationSnapshot) Fields() []Field {
	return []Field{
		{Label: "Median annual wage (P50)", Value: s.Median, Unit: UnitDollars},
		{Label: "P10 annual wage", Value: s.P10, Unit: UnitDollars},
		{Label: "P90 annual wage", Value: s.P90, Unit: UnitDollars},
		{Label: "Mean annual wage", Value: s.Mean, Unit: UnitDollars},
		{Label: "Employment", Value: s.Employment, Unit: UnitCount},
		{Label: "Relative wage (vs U.S. median)", Value: s.RelativeWage, Unit: UnitRatio},
	}
}

// SnapshotFor reports false when the occupation is not in the table.
func SnapshotFor(national *Table, soc string) (OccupationSnapshot, bool) {
	rows := bySOC(national, soc)
	if rows.Empty() {
		return OccupationSnapshot{}, false
	}
	r := rows.Records[0]

	snap := OccupationSnapshot{
		Code:       r.Str(ColOccCode),
		Title:      r.Str(ColOccTitle),
		Median:     numberOf(r, ColAnnualMedian),
		P10:        numberOf(r, ColAPct10),
		P90:        numberOf(r, ColAPct90),
		Mean:       numberOf(r, ColAMean),
		Employment: numberOf(r, ColTotEmp),
	}
	if us, ok := USMedianWage(national); ok && us > 0 && snap.Median.Valid {
		snap.RelativeWage = Number{Value: snap.Median.Value / us, Valid: true}
	}
	return snap, true
}

// WageDistribution returns the P10, P25, P50, P75 and P90 annual wages of
// an occupation, or nil when it is not in the table.
func WageDistribution(national *Table, soc string) []Point {
	rows := bySOC(national, soc)
	if rows.Empty() {
		return nil
	}
	r := rows.Records[0]
	return []Point{
		{Label: "P10", Value: numberOf(r, ColAPct10)},
		{Label: "P25", Value: numberOf(r, ColAPct25)},
		{Label: "P50", Value: numberOf(r, ColAnnualMedian)},
		{Label: "P75", Value: numberOf(r, ColAPct75)},
		{Label: "P90", Value: numberOf(r, ColAPct90)},
	}
}

// atLevel keeps the areas of one geography level. AREA_TYPE is read as the
// published numeric code when any row carries one, as a label otherwise.
func atLevel(t *Table, level GeoLevel) *Table {
	numeric, labeled := false, false
	for _, r := range t.Records {
		s := r.Str(ColAreaType)
		if s == "" {
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			numeric = true
			break
		}
		labeled = true
	}

	switch {
	case numeric:
		want := level.areaTypeCode()
		return t.Filter(func(r Record) bool {
			v, err := strconv.ParseFloat(r.Str(ColAreaType), 64)
			return err == nil && v == want
		})
	case labeled:
		return t.Filter(func(r Record) bool {
			return level.matchesLabel(r.Str(ColAreaType))
		})
	default:
		return t
	}
}

func hasValue(col string) func(Record) bool {
	return func(r Record) bool {
		_, ok := r.Num(col)
		return ok
	}
}

// TopGeographies ranks the areas of a level by an occupation's annual
// median wage.
func TopGeographies(area *Table, soc string, level GeoLevel, n int) *Table {
	return atLevel(bySOC(area, soc), level).
		Filter(hasValue(ColAnnualMedian)).
		SortByNumber(ColAnnualMedian, true, ColAreaTitle).
		Head(n).
		Project([]string{ColAreaTitle, ColAnnualMedian, ColTotEmp, ColLocQuotient},
			map[string]string{ColAnnualMedian: ColAMedian})
}

// EmploymentConcentration ranks the areas of a level by location quotient.
// When the area table publishes no quotient for the occupation it is
// approximated as the area's jobs per 1000 over the national figure.
func EmploymentConcentration(area, national *Table, soc string, level GeoLevel, n int) *Table {
	sub := atLevel(bySOC(area, soc), level)

	if len(sub.Numbers(ColLocQuotient)) == 0 {
		if nat := bySOC(national, soc); !nat.Empty() {
			if base, ok := nat.Records[0].Num(ColJobs1000); ok && base > 0 {
				approx := NewTable(sub.Schema)
				for _, r := range sub.Records {
					row := r.clone()
					if jobs, ok := r.Num(ColJobs1000); ok {
						row[ColLocQuotient] = jobs / base
					}
					approx.Records = append(approx.Records, row)
				}
				sub = approx
			}
		}
	}

	return sub.
		Filter(hasValue(ColLocQuotient)).
		SortByNumber(ColLocQuotient, true, ColAreaTitle).
		Head(n).
		Project([]string{ColAreaTitle, ColLocQuotient, ColTotEmp, ColAnnualMedian},
			map[string]string{ColAnnualMedian: ColAMedian})
}

// IndustryMix returns the share of an occupation's employment by industry,
// largest first. Published PCT_TOTAL shares are used when present,
// otherwise shares of the summed TOT_EMP.
func IndustryMix(natsector *Table, soc string, n int) *Table {
	schema := NewSchema("industry_mix",
		Column{Name: ColIndustry, Kind: KindString},
		Column{Name: ColSharePct, Kind: KindNumber},
	)
	sub := bySOC(natsector, soc)
	mix := NewTable(schema)

	if len(sub.Numbers(ColPctTotal)) > 0 {
		for _, r := range sub.Filter(hasValue(ColPctTotal)).Records {
			if r.Str(ColIndustry) == "" {
				continue
			}
			mix.Records = append(mix.Records, Record{ColIndustry: r.Str(ColIndustry), ColSharePct: r[ColPctTotal]})
		}
	} else {
		groups := GroupSum(sub, ColIndustry, ColTotEmp)
		var total float64
		for _, v := range groups.Numbers(ColTotEmp) {
			total += v
		}
		if total > 0 {
			for _, r := range groups.Filter(hasValue(ColTotEmp)).Records {
				emp, _ := r.Num(ColTotEmp)
				mix.Records = append(mix.Records, Record{ColIndustry: r.Str(ColIndustry), ColSharePct: emp / total * 100})
			}
		}
	}

	return mix.SortByNumber(ColSharePct, true, ColIndustry).Head(n)
}

// GeographyWagePercentiles returns P10, P50 and P90 of the annual median
// wages an occupation pays across the areas of a level.
func GeographyWagePercentiles(area *Table, soc string, level GeoLevel) []Point {
	medians := atLevel(bySOC(area, soc), level).Numbers(ColAnnualMedian)
	out := make([]Point, 0, 3)
	for _, p := range []struct {
		label string
		pct   float64
	}{{"P10", 10}, {"P50", 50}, {"P90", 90}} {
		v, ok := Percentile(medians, p.pct)
		out = append(out, Point{Label: p.label, Value: Number{Value: v, Valid: ok}})
	}
	return out
}

// Industries lists the distinct industry labels of the sector table.
func Industries(natsector *Table) []string {
	return Distinct(natsector, ColIndustry)
}

// OccupationsInIndustry lists the largest occupations of one industry with
// their national annual median wage.
func OccupationsInIndustry(natsector, national *Table, industry string, n int) *Table {
	sub := natsector.Filter(func(r Record) bool {
		return strings.EqualFold(r.Str(ColIndustry), industry) && r.Str(ColSOCCanon) != AllOccupations
	})
	joined := Join(sub, national, ColSOCCanon, ColOccTitle, ColAnnualMedian)

	if joined.Schema.Has(ColOccTitle + "_right") {
		for _, r := range joined.Records {
			if r.Str(ColOccTitle) == "" {
				r[ColOccTitle] = r[ColOccTitle+"_right"]
			}
		}
	}

	return joined.
		SortByNumber(ColTotEmp, true, ColOccTitle).
		Head(n).
		Project([]string{ColOccCode, ColOccTitle, ColTotEmp, ColAnnualMedian},
			map[string]string{ColAnnualMedian: ColAMedian})
}
