package engine

import "fmt"

// Requirement names a column a view depends on. A zero Kind accepts any kind.
type Requirement struct {
	Name string
	Kind Kind
}

// Columns of the driver statistics sheet the dashboard reads.
var (
	NationalityCol = Requirement{Name: "Nationality", Kind: Text}
	RaceEntriesCol = Requirement{Name: "Race_Entries", Kind: Number}
	PodiumsCol     = Requirement{Name: "Podiums", Kind: Number}
	DecadeCol      = Requirement{Name: "Decade"}
)

// SchemaError reports a required column that is absent or has the wrong kind.
type SchemaError struct {
	Column string
	Want   Kind
	Got    Kind // zero when the column is missing
}

func (e *SchemaError) Error() string {
	if e.Got == 0 {
		return fmt.Sprintf("column %q not found", e.Column)
	}
	return fmt.Sprintf("column %q is %s, want %s", e.Column, e.Got, e.Want)
}

// Require checks that every requirement is satisfied, returning a *SchemaError
// for the first one that is not.
func (cs *ColumnStore) Require(reqs ...Requirement) error {
	for _, r := range reqs {
		c, ok := cs.Column(r.Name)
		if !ok {
			return &SchemaError{Column: r.Name, Want: r.Kind}
		}
		if r.Kind != 0 && c.Kind != r.Kind {
			return &SchemaError{Column: r.Name, Want: r.Kind, Got: c.Kind}
		}
	}
	return nil
}
