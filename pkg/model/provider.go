package model

import "time"

type Member struct {
	ID         string `json:"id" bson:"id" validate:"required,min=1,max=64"`
	Name       string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	LocationID string `json:"location_id" bson:"location_id" validate:"omitempty,max=64"`
	Active     bool   `json:"active" bson:"active"`
}

// Service durations are whole minutes. A nil MemberIDs means every member may
// perform the service.
type Service struct {
	ID         string   `json:"id" bson:"id" validate:"required,min=1,max=64"`
	Name       string   `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Duration   int      `json:"duration" bson:"duration" validate:"required,min=1,max=1440"`
	BufferTime int      `json:"buffer_time" bson:"buffer_time" validate:"min=0,max=240"`
	MemberIDs  []string `json:"member_ids,omitempty" bson:"member_ids,omitempty" validate:"omitempty,dive,required"`
	Active     bool     `json:"active" bson:"active"`
}

type Provider struct {
	ID                string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name              string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Published         bool      `json:"published" bson:"published"`
	TimeZone          string    `json:"time_zone,omitempty" bson:"time_zone" validate:"omitempty,timezone"`
	DefaultMemberID   string    `json:"default_member_id,omitempty" bson:"default_member_id,omitempty" validate:"omitempty"`
	Members           []Member  `json:"members" bson:"members" validate:"max=50,unique=ID,dive"`
	Services          []Service `json:"services" bson:"services" validate:"max=100,unique=ID,dive"`
	NextAvailableDate *string   `json:"next_available_date,omitempty" bson:"next_available_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

func (p *Provider) Member(id string) (*Member, bool) {
	for i := range p.Members {
		if p.Members[i].ID == id {
			return &p.Members[i], true
		}
	}
	return nil, false
}

func (p *Provider) Service(id string) (*Service, bool) {
	for i := range p.Services {
		if p.Services[i].ID == id {
			return &p.Services[i], true
		}
	}
	return nil, false
}

// ActiveMemberIDs returns the ids of active members in declaration order.
func (p *Provider) ActiveMemberIDs() []string {
	ids := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		if m.Active {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// DefaultMember is DefaultMemberID when it names an active member, else the
// first active member.
func (p *Provider) DefaultMember() (*Member, bool) {
	if p.DefaultMemberID != "" {
		if m, ok := p.Member(p.DefaultMemberID); ok && m.Active {
			return m, true
		}
	}
	for i := range p.Members {
		if p.Members[i].Active {
			return &p.Members[i], true
		}
	}
	return nil, false
}

func (p *Provider) FirstActiveService() (*Service, bool) {
	for i := range p.Services {
		if p.Services[i].Active {
			return &p.Services[i], true
		}
	}
	return nil, false
}

// Location resolves the provider's time zone, falling back to UTC.
func (p *Provider) Location() *time.Location {
	if p.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
