package models

import (
	"strings"

	"github.com/google/uuid"
)

type Business struct {
	id        uuid.UUID
	ownerID   uuid.UUID
	name      BusinessName
	structure BusinessStructure
	industry  string
	address   *Address
	deleted   bool
}

func NewBusiness(id, ownerID uuid.UUID, name BusinessName, structure BusinessStructure, industry string, deleted bool) (*Business, error) {
	if id == uuid.Nil {
		return nil, NewValidationError("business_id", "must not be empty")
	}
	if ownerID == uuid.Nil {
		return nil, NewValidationError("business_owner_id", "must not be empty")
	}
	if deleted {
		return nil, NewValidationError("is_deleted", "a new business cannot be deleted")
	}
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return nil, NewValidationError("business_industry", "must not be blank")
	}
	return &Business{
		id:        id,
		ownerID:   ownerID,
		name:      name,
		structure: structure,
		industry:  industry,
	}, nil
}

// RestoreBusiness rebuilds a business read from storage, including one that
// has been soft-deleted.
func RestoreBusiness(id, ownerID uuid.UUID, name BusinessName, structure BusinessStructure, industry string, address *Address, deleted bool) *Business {
	return &Business{
		id:        id,
		ownerID:   ownerID,
		name:      name,
		structure: structure,
		industry:  industry,
		address:   address,
		deleted:   deleted,
	}
}

func (b *Business) ID() uuid.UUID                { return b.id }
func (b *Business) OwnerID() uuid.UUID           { return b.ownerID }
func (b *Business) Name() BusinessName           { return b.name }
func (b *Business) Structure() BusinessStructure { return b.structure }
func (b *Business) Industry() string             { return b.industry }
func (b *Business) Address() *Address            { return b.address }
func (b *Business) IsDeleted() bool              { return b.deleted }

func (b *Business) SetName(n BusinessName)           { b.name = n }
func (b *Business) SetStructure(s BusinessStructure) { b.structure = s }
func (b *Business) SetAddress(a *Address)            { b.address = a }

func (b *Business) SetIndustry(industry string) error {
	industry = strings.TrimSpace(industry)
	if industry == "" {
		return NewValidationError("business_industry", "must not be blank")
	}
	b.industry = industry
	return nil
}

func (b *Business) MarkDeleted() {
	b.deleted = true
}
