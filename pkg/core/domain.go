package core

import "time"

// Role identifies who produced a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AttachmentKind classifies an attachment by its file extension.
type AttachmentKind string

const (
	KindImage    AttachmentKind = "image"
	KindDocument AttachmentKind = "document"
	KindAudio    AttachmentKind = "audio"
	KindVideo    AttachmentKind = "video"
	KindUnknown  AttachmentKind = "unknown"
)

// AttachmentRef points at a file referenced by a conversation entry.
// It is created during normalization and never mutated after resolution.
type AttachmentRef struct {
	Name string // original filename or relative path from the export
	Kind AttachmentKind
}

// Entry is a single turn of a conversation.
type Entry struct {
	Role        Role
	Markup      string // raw markup as exported; rendered by pkg/markup
	Timestamp   time.Time
	Attachments []AttachmentRef
}

// Conversation is an ordered run of entries that belong together.
// Invariants: at least one entry, entries sorted by timestamp ascending,
// CreatedAt equals the first entry's timestamp.
type Conversation struct {
	Entries   []Entry
	SourceURL string
	CreatedAt time.Time
}

// NoteMeta is the frontmatter of an emitted note.
// Tags always start with the provenance base tag and contain no duplicates.
type NoteMeta struct {
	Title   string
	Created time.Time
	Source  string
	Tags    []string
}

// Note is a fully assembled output note, ready for the writer.
type Note struct {
	Meta NoteMeta
	Body string
}

// Stats aggregates the outcome of a conversion run.
type Stats struct {
	RecordsRead        int `json:"records_read"`
	RecordsSkipped     int `json:"records_skipped"`
	Conversations      int `json:"conversations"`
	NotesWritten       int `json:"notes_written"`
	Failures           int `json:"failures"`
	AttachmentsCopied  int `json:"attachments_copied"`
	AttachmentsMissing int `json:"attachments_missing"`
}
