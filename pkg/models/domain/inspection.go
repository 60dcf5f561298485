package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDocument marks upload validation failures so transport
// layers can map them to a client error.
var ErrInvalidDocument = errors.New("invalid inspection document")

// Inspection statuses as they appear in the source document.
const (
	StatusInspected    = "I"
	StatusNotInspected = "NI"
	StatusNotPresent   = "NP"
)

// Envelope is the top-level upload document.
type Envelope struct {
	Inspection Inspection `json:"inspection"`
}

type Inspection struct {
	Address         Address       `json:"address"`
	ClientInfo      ClientInfo    `json:"clientInfo"`
	Inspector       Inspector     `json:"inspector"`
	Schedule        Schedule      `json:"schedule"`
	Agents          []AgentRef    `json:"agents"`
	BookingFormData BookingForm   `json:"bookingFormData"`
	Sections        []Section     `json:"sections"`
}

type Address struct {
	FullAddress string `json:"fullAddress"`
}

type ClientInfo struct {
	Name     string `json:"name"`
	UserType string `json:"userType"`
}

type Inspector struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Schedule struct {
	// Date is an epoch-millisecond timestamp.
	Date int64 `json:"date"`
}

type AgentRef struct {
	Agent Agent `json:"agent"`
}

type Agent struct {
	Name    string  `json:"name"`
	Company Company `json:"company"`
}

type Company struct {
	Name string `json:"name"`
}

type BookingForm struct {
	PropertyInfo PropertyInfo `json:"propertyInfo"`
}

type PropertyInfo struct {
	SquareFootage int `json:"squareFootage"`
}

// Section ordering is significant: headings are numbered by position.
type Section struct {
	Name      string     `json:"name"`
	LineItems []LineItem `json:"lineItems"`
	Media     []Media    `json:"media"`
}

type LineItem struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	InspectionStatus *string   `json:"inspectionStatus"`
	IsDeficient      bool      `json:"isDeficient"`
	Comments         []Comment `json:"comments"`
}

type Comment struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Value  string  `json:"value"`
	Photos []Photo `json:"photos"`
}

type Photo struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// Media is a section-level illustrative image.
type Media struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// ParseInspection decodes and validates an uploaded inspection document.
// Validation failures here are fatal to the run and reported before any
// fetch or layout work starts.
func ParseInspection(raw []byte) (*Inspection, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON document: %w: %w", ErrInvalidDocument, err)
	}
	if _, ok := probe["inspection"]; !ok {
		return nil, fmt.Errorf("missing required key %q: %w", "inspection", ErrInvalidDocument)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed inspection document: %w: %w", ErrInvalidDocument, err)
	}

	ins := env.Inspection
	if len(ins.Sections) == 0 {
		return nil, fmt.Errorf("inspection has no sections: %w", ErrInvalidDocument)
	}
	for i, s := range ins.Sections {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("section %d has an empty name: %w", i+1, ErrInvalidDocument)
		}
	}
	return &ins, nil
}

// PrimaryAgent returns the first listed agent, if any.
func (i *Inspection) PrimaryAgent() (Agent, bool) {
	if len(i.Agents) == 0 {
		return Agent{}, false
	}
	return i.Agents[0].Agent, true
}

// Deficiency is one (section, item) pair flagged as deficient.
type Deficiency struct {
	Section string
	Item    string
}

// Deficiencies returns every deficient line item in input order.
func (i *Inspection) Deficiencies() []Deficiency {
	var out []Deficiency
	for _, s := range i.Sections {
		for _, li := range s.LineItems {
			if li.IsDeficient {
				title := li.Title
				if title == "" {
					title = li.ID
				}
				out = append(out, Deficiency{Section: s.Name, Item: title})
			}
		}
	}
	return out
}

// ItemCount counts line items across all sections.
func (i *Inspection) ItemCount() int {
	n := 0
	for _, s := range i.Sections {
		n += len(s.LineItems)
	}
	return n
}
