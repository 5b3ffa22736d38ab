// Package item defines the item record the ingestion pipeline stores, its
// dynamodb representation, and builders and generators for test data.
package item

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/cespare/xxhash/v2"

	testapi "github.com/blitzfilter/test-api"
)

// State is the listing state of an item.
type State string

const (
	StateListed    State = "LISTED"
	StateAvailable State = "AVAILABLE"
	StateReserved  State = "RESERVED"
	StateSold      State = "SOLD"
	StateRemoved   State = "REMOVED"
)

// States returns every known State.
func States() []State {
	return []State{StateListed, StateAvailable, StateReserved, StateSold, StateRemoved}
}

// Valid reports whether s is a known State.
func (s State) Valid() bool {
	for _, known := range States() {
		if s == known {
			return true
		}
	}
	return false
}

// Model is an item as observed at one point in time. Only ItemID is required;
// SourceID and EventID are required before the item can be stored in the items
// table because its party index is keyed by them.
type Model struct {
	ItemID        string     `json:"item_id"`
	Created       *time.Time `json:"created,omitempty"`
	SourceID      string     `json:"source_id,omitempty"`
	EventID       string     `json:"event_id,omitempty"`
	State         State      `json:"state,omitempty"`
	Price         *float64   `json:"price,omitempty"`
	Category      string     `json:"category,omitempty"`
	NameEn        string     `json:"name_en,omitempty"`
	DescriptionEn string     `json:"description_en,omitempty"`
	NameDe        string     `json:"name_de,omitempty"`
	DescriptionDe string     `json:"description_de,omitempty"`
	URL           string     `json:"url,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	Hash          string     `json:"hash,omitempty"`
}

// Record is the items table representation of a Model.
type Record struct {
	PK            string   `dynamodbav:"pk"`
	SK            string   `dynamodbav:"sk"`
	ItemID        string   `dynamodbav:"item_id"`
	PartyID       string   `dynamodbav:"party_id,omitempty"`
	EventID       string   `dynamodbav:"event_id,omitempty"`
	Created       string   `dynamodbav:"created,omitempty"`
	State         State    `dynamodbav:"state,omitempty"`
	Price         *float64 `dynamodbav:"price,omitempty"`
	Category      string   `dynamodbav:"category,omitempty"`
	NameEn        string   `dynamodbav:"name_en,omitempty"`
	DescriptionEn string   `dynamodbav:"description_en,omitempty"`
	NameDe        string   `dynamodbav:"name_de,omitempty"`
	DescriptionDe string   `dynamodbav:"description_de,omitempty"`
	URL           string   `dynamodbav:"url,omitempty"`
	ImageURL      string   `dynamodbav:"image_url,omitempty"`
	Hash          string   `dynamodbav:"hash,omitempty"`
}

const (
	keyPrefixItem  = "item#"
	keyPrefixEvent = "event#"
)

// PartitionKey returns the items table partition key of the item.
func (m Model) PartitionKey() string {
	return keyPrefixItem + m.ItemID
}

// SortKey returns the items table sort key: the event id, or the creation time
// when the item has no event id.
func (m Model) SortKey() string {
	if m.EventID != "" {
		return keyPrefixEvent + m.EventID
	}
	return keyPrefixEvent + m.createdString()
}

func (m Model) createdString() string {
	if m.Created == nil {
		return ""
	}
	return m.Created.UTC().Format(time.RFC3339)
}

// Validate checks the attributes the items table requires.
func (m Model) Validate() error {
	switch {
	case m.ItemID == "":
		return fmt.Errorf("%w: missing item id", testapi.ErrInvalidRecord)
	case m.SourceID == "":
		return fmt.Errorf("%w: item %s: missing source id", testapi.ErrInvalidRecord, m.ItemID)
	case m.EventID == "":
		return fmt.Errorf("%w: item %s: missing event id", testapi.ErrInvalidRecord, m.ItemID)
	case m.State != "" && !m.State.Valid():
		return fmt.Errorf("%w: item %s: unknown state %q", testapi.ErrInvalidRecord, m.ItemID, m.State)
	}
	return nil
}

// Record converts the item into its items table representation.
func (m Model) Record() Record {
	return Record{
		PK:            m.PartitionKey(),
		SK:            m.SortKey(),
		ItemID:        m.ItemID,
		PartyID:       m.SourceID,
		EventID:       m.EventID,
		Created:       m.createdString(),
		State:         m.State,
		Price:         m.Price,
		Category:      m.Category,
		NameEn:        m.NameEn,
		DescriptionEn: m.DescriptionEn,
		NameDe:        m.NameDe,
		DescriptionDe: m.DescriptionDe,
		URL:           m.URL,
		ImageURL:      m.ImageURL,
		Hash:          m.Hash,
	}
}

// MarshalRecord validates the item and marshals it into a dynamodb record.
func (m Model) MarshalRecord() (testapi.Record, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	record, err := attributevalue.MarshalMap(m.Record())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item %s: %w", m.ItemID, err)
	}
	return record, nil
}

// MarshalRecords marshals every item, stopping at the first invalid one.
func MarshalRecords(models []Model) ([]testapi.Record, error) {
	records := make([]testapi.Record, 0, len(models))
	for i, m := range models {
		record, err := m.MarshalRecord()
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// UnmarshalRecord converts an items table record back into a Model.
func UnmarshalRecord(record testapi.Record) (Model, error) {
	var r Record
	if err := attributevalue.UnmarshalMap(record, &r); err != nil {
		return Model{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	m := Model{
		ItemID:        r.ItemID,
		SourceID:      r.PartyID,
		EventID:       r.EventID,
		State:         r.State,
		Price:         r.Price,
		Category:      r.Category,
		NameEn:        r.NameEn,
		DescriptionEn: r.DescriptionEn,
		NameDe:        r.NameDe,
		DescriptionDe: r.DescriptionDe,
		URL:           r.URL,
		ImageURL:      r.ImageURL,
		Hash:          r.Hash,
	}
	if r.Created != "" {
		created, err := time.Parse(time.RFC3339, r.Created)
		if err != nil {
			return Model{}, fmt.Errorf("item %s: invalid created timestamp: %w", r.ItemID, err)
		}
		m.Created = &created
	}
	return m, nil
}

// hashSeparator delimits fields so that adjacent values cannot run together.
const hashSeparator = 0x1f

// ComputeHash returns the content hash of the item: xxhash64 over every field
// except Hash, rendered as 16 lowercase hex digits.
func (m Model) ComputeHash() string {
	var price string
	if m.Price != nil {
		price = strconv.FormatFloat(*m.Price, 'f', -1, 64)
	}

	d := xxhash.New()
	for _, field := range []string{
		m.ItemID,
		m.createdString(),
		m.SourceID,
		m.EventID,
		string(m.State),
		price,
		m.Category,
		m.NameEn,
		m.DescriptionEn,
		m.NameDe,
		m.DescriptionDe,
		m.URL,
		m.ImageURL,
	} {
		_, _ = d.WriteString(field)
		_, _ = d.Write([]byte{hashSeparator})
	}
	return fmt.Sprintf("%016x", d.Sum64())
}

// WithHash returns a copy of the item with Hash set to its content hash.
func (m Model) WithHash() Model {
	m.Hash = m.ComputeHash()
	return m
}
