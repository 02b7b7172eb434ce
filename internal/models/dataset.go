package models

import "fmt"

// Column names understood by Dataset.Field and the loaders.
const (
	FieldRequest   = "Request"
	FieldModel     = "Model"
	FieldOrigin    = "Origin"
	FieldDiagnosis = "Diagnosis"
	FieldCriterion = "Criterion"
	FieldReviewer  = "Reviewer"
	FieldScore     = "Score"
)

// Dataset is a long-format collection of ratings. Filtering returns new
// datasets that share nothing mutable with the receiver.
type Dataset struct {
	Ratings []Rating
}

func NewDataset(ratings []Rating) *Dataset {
	return &Dataset{Ratings: ratings}
}

func (d *Dataset) Len() int {
	return len(d.Ratings)
}

// Field returns the categorical value of the named column.
func (r Rating) Field(name string) (string, error) {
	switch name {
	case FieldRequest:
		return r.Request, nil
	case FieldModel:
		return r.Model, nil
	case FieldOrigin:
		return r.Origin, nil
	case FieldDiagnosis:
		return r.Diagnosis, nil
	case FieldCriterion:
		return r.Criterion, nil
	case FieldReviewer:
		return r.Reviewer, nil
	default:
		return "", fmt.Errorf("unknown column: %s", name)
	}
}

func (d *Dataset) Filter(keep func(Rating) bool) *Dataset {
	var out []Rating
	for _, r := range d.Ratings {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Dataset{Ratings: out}
}

// Where keeps the ratings whose column equals value.
func (d *Dataset) Where(column, value string) (*Dataset, error) {
	if _, err := (Rating{}).Field(column); err != nil {
		return nil, err
	}
	return d.Filter(func(r Rating) bool {
		v, _ := r.Field(column)
		return v == value
	}), nil
}

// Except keeps the ratings whose column differs from value.
func (d *Dataset) Except(column, value string) (*Dataset, error) {
	if _, err := (Rating{}).Field(column); err != nil {
		return nil, err
	}
	return d.Filter(func(r Rating) bool {
		v, _ := r.Field(column)
		return v != value
	}), nil
}

// Scores returns a fresh slice of the scores in dataset order.
func (d *Dataset) Scores() []float64 {
	out := make([]float64, len(d.Ratings))
	for i, r := range d.Ratings {
		out[i] = r.Score
	}
	return out
}

// Unique returns the distinct values of a column in order of first appearance.
func (d *Dataset) Unique(column string) ([]string, error) {
	if _, err := (Rating{}).Field(column); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Ratings {
		v, _ := r.Field(column)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out, nil
}
