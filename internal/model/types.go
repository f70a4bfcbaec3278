// Package model defines domain types used by the service.
package model

// EventProductDeleted is the event type emitted after a product is removed
// from every table.
const EventProductDeleted = "ProductDeleted"

// ProductRef identifies the product an event refers to.
type ProductRef struct {
	ProductID string `json:"productId"`
}

// Event is the message handed to the broker.
type Event struct {
	EventType string     `json:"eventType"`
	Data      ProductRef `json:"data"`
}

// NewDeletionEvent builds the event published for a deleted product.
func NewDeletionEvent(productID string) Event {
	return Event{EventType: EventProductDeleted, Data: ProductRef{ProductID: productID}}
}

// Credentials is the AWS credential bundle delivered by the secrets function.
type Credentials struct {
	AccessKeyID     string `json:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `json:"AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `json:"AWS_SESSION_TOKEN,omitempty"`
}
