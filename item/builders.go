package item

import (
	"time"
)

// Option is a functional option for configuring items during building.
type Option func(*Model)

// New creates an item with the given options applied. Unless overridden, the
// event id is derived from the item id and creation time, and the hash is
// computed from the final content.
//
//	m := item.New(
//		item.WithID("https://example.com#1"),
//		item.WithSource("https://example.com"),
//		item.WithCreated(ts),
//		item.WithPrice(19.99),
//	)
func New(opts ...Option) Model {
	var m Model
	for _, opt := range opts {
		opt(&m)
	}
	if m.EventID == "" && m.ItemID != "" && m.Created != nil {
		m.EventID = m.ItemID + "#" + m.createdString()
	}
	if m.Hash == "" {
		m.Hash = m.ComputeHash()
	}
	return m
}

// WithID sets the item id.
func WithID(id string) Option {
	return func(m *Model) {
		m.ItemID = id
	}
}

// WithSource sets the originating party and, when unset, the item URL.
func WithSource(sourceID string) Option {
	return func(m *Model) {
		m.SourceID = sourceID
		if m.URL == "" {
			m.URL = sourceID
		}
	}
}

// WithEventID sets the event id explicitly.
func WithEventID(eventID string) Option {
	return func(m *Model) {
		m.EventID = eventID
	}
}

// WithCreated sets the creation time, truncated to seconds.
func WithCreated(t time.Time) Option {
	return func(m *Model) {
		created := t.UTC().Truncate(time.Second)
		m.Created = &created
	}
}

// WithState sets the listing state.
func WithState(s State) Option {
	return func(m *Model) {
		m.State = s
	}
}

// WithPrice sets the price.
func WithPrice(price float64) Option {
	return func(m *Model) {
		m.Price = &price
	}
}

// WithCategory sets the category path.
func WithCategory(category string) Option {
	return func(m *Model) {
		m.Category = category
	}
}

// WithName sets the English and German names.
func WithName(en, de string) Option {
	return func(m *Model) {
		m.NameEn = en
		m.NameDe = de
	}
}

// WithDescription sets the English and German descriptions.
func WithDescription(en, de string) Option {
	return func(m *Model) {
		m.DescriptionEn = en
		m.DescriptionDe = de
	}
}

// WithURL sets the item URL.
func WithURL(url string) Option {
	return func(m *Model) {
		m.URL = url
	}
}

// WithImageURL sets the image URL.
func WithImageURL(url string) Option {
	return func(m *Model) {
		m.ImageURL = url
	}
}

// WithHash sets the hash explicitly instead of computing it.
func WithHash(hash string) Option {
	return func(m *Model) {
		m.Hash = hash
	}
}
