package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wisefido-cardiac/internal/models"
)

// Schema alarm_events 表结构（服务启动时 EnsureSchema 创建）
const Schema = `
CREATE TABLE IF NOT EXISTS alarm_events (
	event_id       UUID PRIMARY KEY,
	tenant_id      UUID NOT NULL,
	device_id      VARCHAR(64) NOT NULL,
	event_type     VARCHAR(32) NOT NULL,
	category       VARCHAR(16) NOT NULL,
	alarm_level    VARCHAR(16) NOT NULL,
	alarm_status   VARCHAR(16) NOT NULL DEFAULT 'active',
	triggered_at   TIMESTAMPTZ NOT NULL,
	hand_time      TIMESTAMPTZ,
	trigger_data   JSONB NOT NULL DEFAULT '{}',
	notified_users JSONB NOT NULL DEFAULT '[]',
	metadata       JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_alarm_events_device_type
	ON alarm_events (tenant_id, device_id, event_type, triggered_at DESC);
`

const selectColumns = `
			event_id,
			tenant_id,
			device_id,
			event_type,
			category,
			alarm_level,
			alarm_status,
			triggered_at,
			hand_time,
			trigger_data,
			notified_users,
			metadata,
			created_at,
			updated_at`

// AlarmEventsRepository 报警事件仓库
type AlarmEventsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAlarmEventsRepository 创建报警事件仓库
func NewAlarmEventsRepository(db *sql.DB, logger *zap.Logger) *AlarmEventsRepository {
	return &AlarmEventsRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema 创建表和索引（幂等）
func (r *AlarmEventsRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to ensure alarm_events schema: %w", err)
	}
	return nil
}

// CreateAlarmEvent 创建报警事件（需验证 tenant_id）
func (r *AlarmEventsRepository) CreateAlarmEvent(ctx context.Context, tenantID string, event *models.AlarmEvent) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if event == nil {
		return fmt.Errorf("event is required")
	}
	if event.TenantID != tenantID {
		return fmt.Errorf("event.tenant_id must match tenant_id parameter")
	}

	query := `
		INSERT INTO alarm_events (` + selectColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		event.EventID,
		event.TenantID,
		event.DeviceID,
		event.EventType,
		event.Category,
		event.AlarmLevel,
		event.AlarmStatus,
		event.TriggeredAt,
		event.HandTime,
		jsonOrDefault(event.TriggerData, "{}"),
		jsonOrDefault(event.NotifiedUsers, "[]"),
		jsonOrDefault(event.Metadata, "{}"),
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alarm event: %w", err)
	}

	r.logger.Debug("Alarm event created",
		zap.String("event_id", event.EventID),
		zap.String("device_id", event.DeviceID),
		zap.String("event_type", event.EventType),
	)
	return nil
}

// GetRecentAlarmEvent 获取 within 时间内相同设备、相同类型的活动报警（用于去重）
// 没有找到时返回 nil, nil
func (r *AlarmEventsRepository) GetRecentAlarmEvent(ctx context.Context, tenantID, deviceID, eventType string, within time.Duration) (*models.AlarmEvent, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if deviceID == "" {
		return nil, fmt.Errorf("device_id is required")
	}
	if eventType == "" {
		return nil, fmt.Errorf("event_type is required")
	}

	thresholdTime := time.Now().Add(-within)

	query := `
		SELECT ` + selectColumns + `
		FROM alarm_events
		WHERE tenant_id = $1
		  AND device_id = $2
		  AND event_type = $3
		  AND triggered_at > $4
		  AND alarm_status = 'active'
		ORDER BY triggered_at DESC
		LIMIT 1
	`

	event, err := scanAlarmEvent(r.db.QueryRowContext(ctx, query, tenantID, deviceID, eventType, thresholdTime))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query recent alarm event: %w", err)
	}
	return event, nil
}

// ListAlarmEventsByDevice 按触发时间倒序列出设备的报警事件
func (r *AlarmEventsRepository) ListAlarmEventsByDevice(ctx context.Context, tenantID, deviceID string, limit int) ([]*models.AlarmEvent, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + selectColumns + `
		FROM alarm_events
		WHERE tenant_id = $1
		  AND device_id = $2
		ORDER BY triggered_at DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alarm events: %w", err)
	}
	defer rows.Close()

	var events []*models.AlarmEvent
	for rows.Next() {
		event, err := scanAlarmEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alarm event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alarm events: %w", err)
	}
	return events, nil
}

// AcknowledgeAlarmEvent 确认报警（更新状态为 acknowledged，设置 hand_time）
func (r *AlarmEventsRepository) AcknowledgeAlarmEvent(ctx context.Context, tenantID, eventID string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}
	if eventID == "" {
		return fmt.Errorf("event_id is required")
	}

	query := `
		UPDATE alarm_events
		SET alarm_status = 'acknowledged',
		    hand_time = $3,
		    updated_at = $3
		WHERE event_id = $1
		  AND tenant_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, eventID, tenantID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to acknowledge alarm event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alarm event not found: event_id=%s, tenant_id=%s", eventID, tenantID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlarmEvent(row rowScanner) (*models.AlarmEvent, error) {
	var event models.AlarmEvent
	var handTime sql.NullTime
	var triggerData, notifiedUsers, metadata []byte

	err := row.Scan(
		&event.EventID,
		&event.TenantID,
		&event.DeviceID,
		&event.EventType,
		&event.Category,
		&event.AlarmLevel,
		&event.AlarmStatus,
		&event.TriggeredAt,
		&handTime,
		&triggerData,
		&notifiedUsers,
		&metadata,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if handTime.Valid {
		event.HandTime = &handTime.Time
	}
	event.TriggerData = jsonOrDefault(string(triggerData), "{}")
	event.NotifiedUsers = jsonOrDefault(string(notifiedUsers), "[]")
	event.Metadata = jsonOrDefault(string(metadata), "{}")
	return &event, nil
}

func jsonOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
