package types

import (
	"fmt"
)

// CurrentSettingsVersion is the current version of the settings struct.
// Increment this value when adding new fields that require default values.
const CurrentSettingsVersion = 3

// Settings represents the configuration stored in the database.
// These are dynamic settings that can be changed without redeploying.
type Settings struct {
	BudgetTarget

	// Cursor is the last known series position so a restart resumes near
	// where it left off.
	Cursor int `json:"cursor"`
	// Session is the accumulator as of the last write.
	Session SessionState `json:"session"`
}

// MigrateSettings migrates the settings to the current version.
// It returns the migrated settings, a boolean indicating if changes were made, and an error if migration failed.
func MigrateSettings(s Settings, currentVersion int) (Settings, bool, error) {
	if currentVersion >= CurrentSettingsVersion {
		return s, false, nil
	}

	migrated := false
	for version := currentVersion + 1; version <= CurrentSettingsVersion; version++ {
		switch version {
		case 1:
			// version 1: initial
			if s.MonthlyBudget == 0 {
				s.MonthlyBudget = DefaultMonthlyBudget
				migrated = true
			}
			if s.MonthlyWaterLimit == 0 {
				s.MonthlyWaterLimit = DefaultMonthlyWaterLimit
				migrated = true
			}
		case 2:
			// version 2: reference usage follows the limit
			if s.ReferenceUsage == 0 {
				s.ReferenceUsage = s.MonthlyWaterLimit / HoursPerBillingMonth
				migrated = true
			}
		case 3:
			// version 3: persisted cursor and session, nothing to default
		default:
			return s, false, fmt.Errorf("unknown settings version: %d", version)
		}
	}

	return s, migrated, nil
}
