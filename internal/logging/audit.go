package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType names one auth-trail event. Events are written as JSON lines
// to <logs>/<date>_audit.log so a failed sign-in can be reconstructed.
type AuditEventType string

const (
	AuditFlowStart    AuditEventType = "flow_start"
	AuditFlowResume   AuditEventType = "flow_resume"
	AuditFlowStep     AuditEventType = "flow_step"
	AuditFlowComplete AuditEventType = "flow_complete"
	AuditFlowAbandon  AuditEventType = "flow_abandon"

	AuditOTPResend AuditEventType = "otp_resend"
	AuditOTPVerify AuditEventType = "otp_verify"

	AuditPasswordReset AuditEventType = "password_reset"

	AuditSessionSaved   AuditEventType = "session_saved"
	AuditSessionCleared AuditEventType = "session_cleared"

	AuditRequestFailed AuditEventType = "request_failed"
)

// AuditEvent is one structured audit entry.
type AuditEvent struct {
	Timestamp  time.Time
	EventType  AuditEventType
	Flow       string
	Step       string
	Identity   string // masked before writing
	RequestID  string
	Success    bool
	Status     int
	DurationMs int64
	Error      string
	Message    string
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e AuditEvent) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("event", string(e.EventType))
	if e.Flow != "" {
		enc.AddString("flow", e.Flow)
	}
	if e.Step != "" {
		enc.AddString("step", e.Step)
	}
	if e.Identity != "" {
		enc.AddString("identity", MaskEmail(e.Identity))
	}
	if e.RequestID != "" {
		enc.AddString("req", e.RequestID)
	}
	enc.AddBool("success", e.Success)
	if e.Status != 0 {
		enc.AddInt("status", e.Status)
	}
	if e.DurationMs != 0 {
		enc.AddInt64("dur_ms", e.DurationMs)
	}
	if e.Error != "" {
		enc.AddString("error", e.Error)
	}
	return nil
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

var (
	auditMu   sync.Mutex
	auditZap  *zap.Logger
	auditSink interface{ Close() error }
)

// AuditLogger writes audit events scoped to one flow.
type AuditLogger struct {
	flow string
}

// InitAudit opens the audit file. It is a no-op outside debug mode.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditZap != nil {
		return nil
	}

	file, err := openLogFile("audit")
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	enc := zapcore.NewJSONEncoder(encoderConfig())
	auditZap = zap.New(zapcore.NewCore(enc, zapcore.AddSync(file), zapcore.DebugLevel))
	auditSink = file
	return nil
}

// CloseAudit closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()
	closeAudit()
}

func closeAudit() {
	if auditZap != nil {
		_ = auditZap.Sync()
		auditZap = nil
	}
	if auditSink != nil {
		auditSink.Close()
		auditSink = nil
	}
}

// Audit returns an unscoped audit logger.
func Audit() *AuditLogger {
	return &AuditLogger{}
}

// AuditWithFlow returns an audit logger that stamps every event with flow.
func AuditWithFlow(flow string) *AuditLogger {
	return &AuditLogger{flow: flow}
}

// Log writes an audit event.
func (a *AuditLogger) Log(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditZap == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Flow == "" {
		event.Flow = a.flow
	}
	msg := event.Message
	if msg == "" {
		msg = string(event.EventType)
	}
	auditZap.Info(msg, zap.Time("at", event.Timestamp), zap.Inline(event))
}

// FlowStart records the start (or resume) of a flow.
func (a *AuditLogger) FlowStart(step, identity string, resumed bool) {
	typ := AuditFlowStart
	if resumed {
		typ = AuditFlowResume
	}
	a.Log(AuditEvent{EventType: typ, Step: step, Identity: identity, Success: true})
}

// Step records a step change.
func (a *AuditLogger) Step(from, to, identity string) {
	a.Log(AuditEvent{
		EventType: AuditFlowStep,
		Step:      to,
		Identity:  identity,
		Success:   true,
		Message:   fmt.Sprintf("%s -> %s", from, to),
	})
}

// Complete records a flow reaching its destination.
func (a *AuditLogger) Complete(destination, identity string) {
	a.Log(AuditEvent{
		EventType: AuditFlowComplete,
		Identity:  identity,
		Success:   true,
		Message:   "destination " + destination,
	})
}

// Abandon records the user leaving a flow.
func (a *AuditLogger) Abandon(step, identity string) {
	a.Log(AuditEvent{EventType: AuditFlowAbandon, Step: step, Identity: identity})
}

// Request records the result of one API call made by the flow.
func (a *AuditLogger) Request(typ AuditEventType, status int, err error, dur time.Duration) {
	ev := AuditEvent{
		EventType:  typ,
		Status:     status,
		Success:    err == nil && status >= 200 && status < 300,
		DurationMs: dur.Milliseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	a.Log(ev)
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}
	local, domain := email[:at], email[at:]
	return local[:1] + strings.Repeat("*", len(local)-1) + domain
}
