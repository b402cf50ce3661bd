package model

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdvocateProfile is the public professional profile of an advocate.
type AdvocateProfile struct {
	ID     primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID string             `json:"user_id,omitempty" bson:"user_id,omitempty"`

	// Personal info
	FullName string     `json:"full_name" bson:"full_name"`
	Phone    string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Gender   string     `json:"gender,omitempty" bson:"gender,omitempty"`
	DOB      *time.Time `json:"dob,omitempty" bson:"dob,omitempty"`

	// Professional info
	BarCouncilID    string   `json:"bar_council_id" bson:"bar_council_id"`
	EnrollmentYear  int      `json:"enrollment_year,omitempty" bson:"enrollment_year,omitempty"`
	ExperienceYears int      `json:"experience_years" bson:"experience_years"`
	Languages       string   `json:"languages,omitempty" bson:"languages,omitempty"`
	Specializations []string `json:"specializations,omitempty" bson:"specializations,omitempty"`

	// Address
	AddressLine1 string `json:"address_line1,omitempty" bson:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty" bson:"address_line2,omitempty"`
	City         string `json:"city,omitempty" bson:"city,omitempty"`
	State        string `json:"state,omitempty" bson:"state,omitempty"`
	Pincode      string `json:"pincode,omitempty" bson:"pincode,omitempty"`

	// Track record
	ProfileImage string  `json:"profile_image,omitempty" bson:"profile_image,omitempty"`
	IsVerified   bool    `json:"is_verified" bson:"is_verified"`
	Rating       float64 `json:"rating" bson:"rating"`
	CasesCount   int     `json:"cases_count" bson:"cases_count"`
	WinsCount    int     `json:"wins_count" bson:"wins_count"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate validates an advocate profile.
func (a *AdvocateProfile) Validate() error {
	if a.FullName == "" {
		return errors.New("full_name is required")
	}
	if a.BarCouncilID == "" {
		return errors.New("bar_council_id is required")
	}
	if a.ExperienceYears < 0 {
		return errors.New("experience_years must not be negative")
	}
	return nil
}

// AdvocateSummary is the search-result projection of a profile.
type AdvocateSummary struct {
	ID              primitive.ObjectID `json:"id" bson:"_id"`
	FullName        string             `json:"full_name" bson:"full_name"`
	City            string             `json:"city,omitempty" bson:"city,omitempty"`
	State           string             `json:"state,omitempty" bson:"state,omitempty"`
	ExperienceYears int                `json:"experience_years" bson:"experience_years"`
	Rating          float64            `json:"rating" bson:"rating"`
	Specializations []string           `json:"specializations,omitempty" bson:"specializations,omitempty"`
}

// AdvocateSearchFilter narrows an advocate search. Zero values mean
// "no constraint".
type AdvocateSearchFilter struct {
	Query          string
	City           string
	Specialization string
	MinExperience  *int
	MaxExperience  *int
}
