package accounts

import "encoding/json"

// CreateAccountInput carries the account fields the saga derives from the
// lead's company and address data.
type CreateAccountInput struct {
	Name         string
	Website      string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Country      string
	ZipCode      string
}

// CreateContactInput carries the contact fields derived from the lead.
type CreateContactInput struct {
	AccountID   string
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}

// --- Wire payloads for the Accounts & Contacts service ---

type createAccountRequest struct {
	Name                string `json:"name"`
	Website             string `json:"website"`
	AccountStatus       string `json:"accountStatus"`
	BillingAddressLine1 string `json:"billingAddressLine1"`
	BillingAddressLine2 string `json:"billingAddressLine2"`
	BillingCity         string `json:"billingCity"`
	BillingState        string `json:"billingState"`
	BillingCountry      string `json:"billingCountry"`
	BillingZipCode      string `json:"billingZipCode"`
}

type createContactRequest struct {
	AccountID string `json:"accountId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	IsPrimary bool   `json:"isPrimary"`
}

// remoteID tolerates both string and numeric identifiers; the service
// returns numbers for contacts and strings for accounts.
type remoteID string

func (id *remoteID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = remoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = remoteID(n.String())
	return nil
}

type accountResponse struct {
	AccountID remoteID `json:"accountId"`
}

type contactResponse struct {
	ContactID remoteID `json:"contactId"`
}
