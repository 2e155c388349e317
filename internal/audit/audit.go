// Package audit provides the append-only, content-hashed event stream.
// Entries are written only after the primary mutation commits; a failed
// write is logged and never propagated to the caller.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/attendance-backend/pkg/database"
	"github.com/attendly/attendance-backend/pkg/logger"
	"github.com/attendly/attendance-backend/pkg/signature"
)

// Audit action names
const (
	ActionCheckIn             = "check-in"
	ActionCheckOut            = "check-out"
	ActionDeviceRegistered    = "device-registered"
	ActionDeviceReset         = "device-reset"
	ActionAttendanceModified  = "attendance-modified"
	ActionEmployeeCreated     = "employee-created"
	ActionHolidayCreated      = "holiday-created"
	ActionHolidayDeleted      = "holiday-deleted"
	ActionOfficeLocationAdded = "office-location-added"
	ActionPayrollGenerated    = "payroll-generated"
	ActionPayrollUnlocked     = "payroll-unlocked"
	ActionPayrollDeleted      = "payroll-deleted"
)

// Event is one applied state mutation.
type Event struct {
	ID                string         `db:"id" json:"id"`
	ActorID           string         `db:"actor_id" json:"actorId"`
	Action            string         `db:"action" json:"action"`
	TargetID          string         `db:"target_id" json:"targetId"`
	TargetType        string         `db:"target_type" json:"targetType"`
	Payload           map[string]any `db:"-" json:"payload"`
	PayloadJSON       []byte         `db:"payload" json:"-"`
	Signature         *string        `db:"signature" json:"signature,omitempty"`
	SignatureVerified bool           `db:"signature_verified" json:"signatureVerified"`
	Hash              string         `db:"hash" json:"hash"`
	DeviceInfo        *string        `db:"device_info" json:"deviceInfo,omitempty"`
	IPAddress         *string        `db:"ip_address" json:"ipAddress,omitempty"`
	Timestamp         time.Time      `db:"timestamp" json:"timestamp"`
}

// Recorder is the audit capability handlers depend on.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Repository appends audit events to the store
type Repository struct {
	db *database.DB
}

// NewRepository creates a new audit repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Append inserts an audit event. There is no update or delete path.
func (r *Repository) Append(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO audit_events (
			id, actor_id, action, target_id, target_type,
			payload, signature, signature_verified, hash,
			device_info, ip_address, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.ActorID, event.Action, event.TargetID, event.TargetType,
		event.PayloadJSON, event.Signature, event.SignatureVerified, event.Hash,
		event.DeviceInfo, event.IPAddress, event.Timestamp,
	)
	return err
}

// Appender is the persistence seam for Writer.
type Appender interface {
	Append(ctx context.Context, event *Event) error
}

// Writer fills in identity, timestamp and content hash, then appends.
type Writer struct {
	repo Appender
	log  *logger.Logger
	now  func() time.Time
}

// NewWriter creates an audit writer
func NewWriter(repo Appender, log *logger.Logger) *Writer {
	return &Writer{
		repo: repo,
		log:  log.WithComponent("audit"),
		now:  time.Now,
	}
}

// Record completes and appends the event. Failures are logged, never
// returned; audit is best-effort tamper evidence, not a gate.
func (w *Writer) Record(ctx context.Context, event Event) {
	event.ID = uuid.New().String()
	event.Timestamp = w.now().UTC()

	event.Hash = signature.ContentHash(map[string]any{
		"actorId":   event.ActorID,
		"action":    event.Action,
		"targetId":  event.TargetID,
		"payload":   event.Payload,
		"timestamp": event.Timestamp,
	})

	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		payloadJSON = []byte("{}")
	}
	event.PayloadJSON = payloadJSON

	if err := w.repo.Append(ctx, &event); err != nil {
		w.log.Error().
			Err(err).
			Str("action", event.Action).
			Str("actor_id", event.ActorID).
			Msg("failed to append audit event")
	}
}
