package labordash

import "strings"

// ViewRequest carries the user's current selection.
type ViewRequest struct {
	Occupation string
	Level      GeoLevel
	Industry   string
	TopN       int
}

func (r *ViewRequest) Clone() *ViewRequest {
	c := *r
	return &c
}

// Normalize canonicalizes the occupation code and fills defaults.
func (r *ViewRequest) Normalize(defaultTopN int) {
	r.Occupation = CanonSOC(r.Occupation)
	r.Industry = strings.TrimSpace(r.Industry)
	if r.Level == "" {
		r.Level = LevelState
	}
	if r.TopN <= 0 {
		r.TopN = defaultTopN
	}
}

func (r *ViewRequest) ValidateOccupation() error {
	if r.Occupation == "" {
		return NewValidationError("occupation", "is required")
	}
	if !ValidSOC(r.Occupation) {
		return NewValidationError("occupation", "must be a SOC code like 15-1252")
	}
	if _, err := ParseGeoLevel(string(r.Level)); err != nil {
		return err
	}
	return nil
}
