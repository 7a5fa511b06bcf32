package events

type EntityType string

const (
	EntityAdoption EntityType = "ADOPTION"
	EntityCustody  EntityType = "CUSTODY"
	EntityEscrow   EntityType = "ESCROW"
	EntityPet      EntityType = "PET"
	EntityUser     EntityType = "USER"
)

type EventType string

const (
	EventAdoptionRequested    EventType = "ADOPTION_REQUESTED"
	EventAdoptionUnderReview  EventType = "ADOPTION_UNDER_REVIEW"
	EventAdoptionApproved     EventType = "ADOPTION_APPROVED"
	EventAdoptionRejected     EventType = "ADOPTION_REJECTED"
	EventAdoptionCancelled    EventType = "ADOPTION_CANCELLED"
	EventAdoptionEscrowFunded EventType = "ADOPTION_ESCROW_FUNDED"
	EventAdoptionCompleted    EventType = "ADOPTION_COMPLETED"
	EventAdoptionRefunded     EventType = "ADOPTION_REFUNDED"

	EventCustodyStarted   EventType = "CUSTODY_STARTED"
	EventCustodyReturned  EventType = "CUSTODY_RETURNED"
	EventCustodyCancelled EventType = "CUSTODY_CANCELLED"
	EventCustodyViolation EventType = "CUSTODY_VIOLATION"

	EventEscrowCreated  EventType = "ESCROW_CREATED"
	EventEscrowReleased EventType = "ESCROW_RELEASED"
	EventEscrowRefunded EventType = "ESCROW_REFUNDED"

	EventPetStatusChanged  EventType = "PET_STATUS_CHANGED"
	EventTrustScoreUpdated EventType = "TRUST_SCORE_UPDATED"
)

func validEntityType(t EntityType) bool {
	switch t {
	case EntityAdoption, EntityCustody, EntityEscrow, EntityPet, EntityUser:
		return true
	default:
		return false
	}
}
