package entity

import (
	"errors"
	"time"
)

type LeadStatus string

const (
	LeadStatusOpen       LeadStatus = "OPEN"
	LeadStatusQualified  LeadStatus = "QUALIFIED"
	LeadStatusInProgress LeadStatus = "IN_PROGRESS"
	LeadStatusConverted  LeadStatus = "CONVERTED"
	LeadStatusLost       LeadStatus = "LOST"
)

var (
	ErrLeadNotFound         = errors.New("lead not found")
	ErrLeadAlreadyConverted = errors.New("lead already converted")
)

// Lead is the local CRM lead. ID is the internal primary key; LeadID is the
// human-readable sequential identifier (L000001) shown in the UI.
type Lead struct {
	ID           string     `json:"id"`
	LeadID       string     `json:"leadId"`
	Company      string     `json:"company"`
	Website      string     `json:"website,omitempty"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phoneNumber,omitempty"`
	AddressLine1 string     `json:"addressLine1,omitempty"`
	AddressLine2 string     `json:"addressLine2,omitempty"`
	City         string     `json:"city,omitempty"`
	State        string     `json:"state,omitempty"`
	Country      string     `json:"country,omitempty"`
	PostalCode   string     `json:"postalCode,omitempty"`
	LeadStatus   LeadStatus `json:"leadStatus"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (l *Lead) IsConverted() bool {
	return l.LeadStatus == LeadStatusConverted
}
