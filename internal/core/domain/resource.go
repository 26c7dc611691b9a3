package domain

import (
	"errors"
	"time"
)

var ErrResourceNotFound = errors.New("resource not found")

// ResourceKind identifies a thin resource collection. Each kind maps to a
// capability resource token, so a route guarding "documents:view" serves the
// KindDocuments collection.
type ResourceKind string

const (
	KindTeams         ResourceKind = "teams"
	KindDocuments     ResourceKind = "documents"
	KindFiles         ResourceKind = "files"
	KindFolders       ResourceKind = "folders"
	KindCalendar      ResourceKind = "calendar"
	KindMessages      ResourceKind = "messages"
	KindNotifications ResourceKind = "notifications"
	KindWidgets       ResourceKind = "widgets"
)

// ResourceKinds lists every thin collection served by the resource handler.
var ResourceKinds = []ResourceKind{
	KindTeams,
	KindDocuments,
	KindFiles,
	KindFolders,
	KindCalendar,
	KindMessages,
	KindNotifications,
	KindWidgets,
}

// ResourceItem is the shared shape behind the thin collaborators (teams,
// documents, files, folders, calendar events, messages, notifications,
// dashboard widgets). They carry no algorithmic content; they exist to
// consume the engine's allow/deny decision and the verified identity.
type ResourceItem struct {
	ID        string         `json:"id"`
	Kind      ResourceKind   `json:"kind"`
	OwnerID   string         `json:"owner_id"`
	Title     string         `json:"title"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
