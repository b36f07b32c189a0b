// Package models defines core data structures used across EstatePipe
// components: listings, inbound utterances, outbound replies, and the
// field maps exchanged between the extractor, the flow engine, and the
// store.
package models

// Modality identifies how an inbound message reached us.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityVoice Modality = "voice"
)

// Utterance represents a single inbound message from a user, already
// normalized to text. Voice notes are transcribed before an Utterance
// is produced, so downstream consumers never see audio.
type Utterance struct {
	UserID   string   `json:"user_id"`
	Text     string   `json:"text"`
	Modality Modality `json:"modality"`
	Time     int64    `json:"time"`
}

// Choice is one entry of an interactive menu attached to a reply.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Reply is what the flow engine hands back for a single utterance.
// Messages are sent in order; Choices, when present, are rendered as a
// menu after the last message.
type Reply struct {
	Messages []string `json:"messages"`
	Choices  []Choice `json:"choices,omitempty"`
}

// Fields is a partial set of listing attributes keyed by canonical
// field name. A nil value marks a field the user asked to clear; it is
// distinct from the key being absent.
type Fields map[string]any

// Clone returns a shallow copy of f. Cloning a nil map yields an empty
// non-nil map so callers can assign into the result.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Filters is a set of search criteria keyed by canonical field name,
// plus the range keys min_price, max_price, min_area and max_area.
type Filters map[string]any

// Clone returns a shallow copy of f.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Canonical listing field names. The extractor, the deletion detector,
// and the store all key on these.
const (
	FieldTitle        = "title"
	FieldPropertyType = "property_type"
	FieldCity         = "city"
	FieldNeighborhood = "neighborhood"
	FieldAddress      = "address"
	FieldArea         = "area"
	FieldPrice        = "price"
	FieldRooms        = "rooms"
	FieldFloor        = "floor"
	FieldYearBuilt    = "year_built"
	FieldParking      = "parking"
	FieldElevator     = "elevator"
	FieldStorage      = "storage"
	FieldDescription  = "description"
)

// CanonicalFieldOrder is the display order for summaries and listing
// cards.
var CanonicalFieldOrder = []string{
	FieldTitle,
	FieldPropertyType,
	FieldCity,
	FieldNeighborhood,
	FieldAddress,
	FieldArea,
	FieldPrice,
	FieldRooms,
	FieldFloor,
	FieldYearBuilt,
	FieldParking,
	FieldElevator,
	FieldStorage,
	FieldDescription,
}

// RequiredFields must all be present and non-nil before a listing can
// be finalized.
var RequiredFields = []string{
	FieldTitle,
	FieldPropertyType,
	FieldCity,
	FieldArea,
	FieldPrice,
}

// BooleanFields are the yes/no amenities. Only these participate in
// negation-based deletion detection.
var BooleanFields = map[string]bool{
	FieldParking:  true,
	FieldElevator: true,
	FieldStorage:  true,
}

// KnownField reports whether name is a canonical listing field.
func KnownField(name string) bool {
	for _, f := range CanonicalFieldOrder {
		if f == name {
			return true
		}
	}
	return false
}

// Listing is a persisted property listing.
type Listing struct {
	ID           int64   `json:"id"`
	OwnerID      string  `json:"owner_id"`
	Title        string  `json:"title"`
	PropertyType string  `json:"property_type"`
	City         string  `json:"city"`
	Neighborhood string  `json:"neighborhood,omitempty"`
	Address      string  `json:"address,omitempty"`
	Area         float64 `json:"area"`
	Price        float64 `json:"price"`
	Rooms        int     `json:"rooms,omitempty"`
	Floor        int     `json:"floor,omitempty"`
	YearBuilt    int     `json:"year_built,omitempty"`
	Parking      bool    `json:"parking"`
	Elevator     bool    `json:"elevator"`
	Storage      bool    `json:"storage"`
	Description  string  `json:"description,omitempty"`
	CreatedAt    int64   `json:"created_at"`
	UpdatedAt    int64   `json:"updated_at"`
}

// ListingStats is an aggregate view over all stored listings.
type ListingStats struct {
	Total    int64   `json:"total"`
	AvgPrice float64 `json:"avg_price"`
	AvgArea  float64 `json:"avg_area"`
}

// StatusType is the delivery state reported by a messaging backend.
type StatusType string

const (
	StatusSent      StatusType = "sent"
	StatusDelivered StatusType = "delivered"
	StatusRead      StatusType = "read"
	StatusFailed    StatusType = "failed"
)

// Receipt is a delivery receipt emitted by a messaging service.
type Receipt struct {
	To     string     `json:"to"`
	Status StatusType `json:"status"`
	Time   int64      `json:"time"`
}

// APIResponse is the envelope for HTTP endpoint payloads.
type APIResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Success wraps data in a success envelope.
func Success(data any) APIResponse {
	return APIResponse{Status: "ok", Data: data}
}

// Error wraps an error message in a failure envelope.
func Error(msg string) APIResponse {
	return APIResponse{Status: "error", Error: msg}
}
