package domain

// Bus topics. Payload types are noted per topic.
const (
	TopicContextChanged  = "context:changed"  // ContextState
	TopicContextCleared  = "context:cleared"  // nil
	TopicChannelSelected = "channel:selected" // string channel id

	TopicDocumentCreated = "document:created" // int64 id
	TopicDocumentUpdated = "document:updated" // int64 id
	TopicDocumentDeleted = "document:deleted" // int64 id

	TopicProjectCreated = "project:created" // int64 id
	TopicProjectUpdated = "project:updated" // int64 id
	TopicProjectDeleted = "project:deleted" // int64 id

	TopicFileAdded   = "file:added"   // FileChange
	TopicFileRemoved = "file:removed" // FileChange

	TopicEntityVerified = "entity:verified" // Verification

	TopicAlert = "ui:alert" // Alert
)

// FileChange is the payload of file:added and file:removed.
type FileChange struct {
	ProjectID int64
	FileID    int64
	Filename  string
}

// AlertLevel selects how an alert is presented.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertSuccess
	AlertWarn
	AlertError
)

// Alert is a non-blocking user-visible message.
type Alert struct {
	Level AlertLevel
	Text  string
}
