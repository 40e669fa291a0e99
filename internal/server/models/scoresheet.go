package models

import "time"

type ScoresheetStatus string

const (
	ScoresheetDraft     ScoresheetStatus = "draft"
	ScoresheetValidated ScoresheetStatus = "validated"
)

// Maximum points per BJCP scoresheet section.
const (
	MaxAroma      = 12
	MaxAppearance = 3
	MaxFlavor     = 20
	MaxMouthfeel  = 5
	MaxOverall    = 10
	MaxTotal      = MaxAroma + MaxAppearance + MaxFlavor + MaxMouthfeel + MaxOverall
)

type Scoresheet struct {
	ID          string `json:"id"`
	JudgeID     string `json:"judgeId"`
	FlightID    string `json:"flightId"`
	EntryNumber string `json:"entryNumber"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`

	Aroma      int `json:"aroma"`
	Appearance int `json:"appearance"`
	Flavor     int `json:"flavor"`
	Mouthfeel  int `json:"mouthfeel"`
	Overall    int `json:"overall"`

	AromaComments      string `json:"aromaComments"`
	AppearanceComments string `json:"appearanceComments"`
	FlavorComments     string `json:"flavorComments"`
	MouthfeelComments  string `json:"mouthfeelComments"`
	OverallComments    string `json:"overallComments"`

	Status    ScoresheetStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (s *Scoresheet) Total() int {
	return s.Aroma + s.Appearance + s.Flavor + s.Mouthfeel + s.Overall
}
