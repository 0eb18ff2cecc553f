package handler

import (
	"casefile/internal/cases/models"
	casesservice "casefile/internal/cases/service"
	id "casefile/pkg/domain"
	dErrors "casefile/pkg/domain-errors"
	pstrings "casefile/pkg/platform/strings"
)

type createRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	FormationType  string   `json:"formation_type"`
	CrimeLevel     int      `json:"crime_level"`
	CrimeLevelName string   `json:"crime_level_name"`
	Complainants   []string `json:"complainants,omitempty"`
	Witnesses      []string `json:"witnesses,omitempty"`
}

func (r createRequest) toInput() (casesservice.CreateCaseInput, error) {
	complainants, err := parsePersonIDs(r.Complainants)
	if err != nil {
		return casesservice.CreateCaseInput{}, err
	}
	witnesses, err := parsePersonIDs(r.Witnesses)
	if err != nil {
		return casesservice.CreateCaseInput{}, err
	}
	return casesservice.CreateCaseInput{
		Title:         r.Title,
		Description:   r.Description,
		FormationType: models.FormationType(r.FormationType),
		CrimeLevel:    models.CrimeLevel{Level: r.CrimeLevel, Name: r.CrimeLevelName},
		Complainants:  complainants,
		Witnesses:     witnesses,
	}, nil
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

func parsePersonIDs(raw []string) ([]id.PersonID, error) {
	raw = pstrings.DedupeAndTrimLower(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]id.PersonID, 0, len(raw))
	for _, s := range raw {
		personID, err := id.ParsePersonID(s)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeBadRequest, "invalid person id")
		}
		out = append(out, personID)
	}
	return out, nil
}
