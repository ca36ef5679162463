package dashboard

import (
	"github.com/pkg/errors"

	"f1insights/internal/models"
)

// Section is the page selected in the menu. Home is the zero value and the
// initial state; selecting a section switches to it directly.
type Section int

const (
	Home Section = iota
	DataAnalysis
	EDA
	Visualizations
)

// Sections lists the menu in display order.
var Sections = []Section{Home, DataAnalysis, EDA, Visualizations}

var ErrUnknownSection = errors.New("unknown section")

var sectionInfo = map[Section]models.Section{
	Home:           {Slug: "home", Title: "Home"},
	DataAnalysis:   {Slug: "data-analysis", Title: "Data Analysis"},
	EDA:            {Slug: "eda", Title: "EDA"},
	Visualizations: {Slug: "visualizations", Title: "Visualizations"},
}

func (s Section) Slug() string   { return sectionInfo[s].Slug }
func (s Section) Title() string  { return sectionInfo[s].Title }
func (s Section) String() string { return s.Title() }

// NeedsData reports whether the section reads the table.
func (s Section) NeedsData() bool { return s != Home }

// ParseSection maps a menu slug to its section. An empty slug selects Home.
func ParseSection(slug string) (Section, error) {
	if slug == "" {
		return Home, nil
	}
	for _, s := range Sections {
		if s.Slug() == slug {
			return s, nil
		}
	}
	return Home, errors.Wrap(ErrUnknownSection, slug)
}

// Menu returns the menu entries in order.
func Menu() []models.Section {
	out := make([]models.Section, len(Sections))
	for i, s := range Sections {
		out[i] = sectionInfo[s]
	}
	return out
}
