package models

import (
	casesmodels "casefile/internal/cases/models"
)

// WantedEntry is one row of the public wanted list: the suspect, the crime
// tier behind it and the score-derived reward at list time.
type WantedEntry struct {
	Suspect      *Suspect               `json:"suspect"`
	CrimeLevel   casesmodels.CrimeLevel `json:"crime_level"`
	DaysAtLarge  int64                  `json:"days_at_large"`
	DangerScore  int64                  `json:"danger_score"`
	RewardAmount int64                  `json:"reward_amount"`
}
