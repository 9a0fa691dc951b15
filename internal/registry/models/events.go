package models

import id "assetd/pkg/domain"

// EventType names a registry notification on the wire and in logs.
type EventType string

const (
	EventCreated     EventType = "asset_created"
	EventTransferred EventType = "asset_transferred"
)

// Event is a notification emitted after a successful commit.
type Event interface {
	Type() EventType
	// Key groups related events; publishers partition on it.
	Key() id.Identity
}

// Created is emitted once per successful create.
type Created struct {
	Identity id.Identity
	Owner    id.AccountID
}

func (Created) Type() EventType    { return EventCreated }
func (e Created) Key() id.Identity { return e.Identity }

// Transferred is emitted once per successful transfer.
type Transferred struct {
	From     id.AccountID
	To       id.AccountID
	Identity id.Identity
}

func (Transferred) Type() EventType    { return EventTransferred }
func (e Transferred) Key() id.Identity { return e.Identity }
