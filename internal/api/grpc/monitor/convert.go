package monitor

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/zone-intrusion/internal/domain/detection"
	"github.com/oshokin/zone-intrusion/internal/domain/verdict"
)

// Struct field names of a verdict message.
const (
	fieldSessionID   = "session_id"
	fieldFrame       = "frame"
	fieldTimestamp   = "timestamp"
	fieldZones       = "zones"
	fieldName        = "name"
	fieldAlarmActive = "alarm_active"
	fieldIntrusion   = "intrusion"
	fieldIntruders   = "intruders"
)

// Snapshot is a decoded verdict message.
type Snapshot struct {
	// SessionID identifies the monitoring session.
	SessionID string
	// Frame is the frame index, or -1 before the first frame.
	Frame int
	// Timestamp is when the frame was processed.
	Timestamp time.Time
	// AlarmActive reports whether any zone alarm is active.
	AlarmActive bool
	// Zones holds per-zone results in zone order.
	Zones []ZoneSnapshot
}

// ZoneSnapshot is the decoded result of one zone.
type ZoneSnapshot struct {
	// Name is the zone name.
	Name string
	// AlarmActive is the zone alarm output.
	AlarmActive bool
	// Intrusion reports whether any detection was inside the zone.
	Intrusion bool
	// Intruders lists intruding identities, tracked first.
	Intruders []detection.TrackID
}

// ToProto converts a frame verdict to its wire form.
func ToProto(frame *verdict.Frame) *structpb.Struct {
	zones := make([]*structpb.Value, 0, len(frame.Zones))

	for i := range frame.Zones {
		z := &frame.Zones[i]

		intruders := make([]*structpb.Value, 0, z.Intruders.Len())
		for _, id := range z.Intruders.Sorted() {
			intruders = append(intruders, trackIDValue(id))
		}

		zones = append(zones, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				fieldName:        structpb.NewStringValue(z.Zone.Name()),
				fieldAlarmActive: structpb.NewBoolValue(z.AlarmActive),
				fieldIntrusion:   structpb.NewBoolValue(z.Intrusion()),
				fieldIntruders:   structpb.NewListValue(&structpb.ListValue{Values: intruders}),
			},
		}))
	}

	timestamp := ""
	if !frame.At.IsZero() {
		timestamp = frame.At.UTC().Format(time.RFC3339Nano)
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldSessionID:   structpb.NewStringValue(frame.SessionID),
			fieldFrame:       structpb.NewNumberValue(float64(frame.Index)),
			fieldTimestamp:   structpb.NewStringValue(timestamp),
			fieldZones:       structpb.NewListValue(&structpb.ListValue{Values: zones}),
			fieldAlarmActive: structpb.NewBoolValue(frame.AlarmActive()),
		},
	}
}

// FromProto decodes a verdict message. Missing fields keep their zero values.
func FromProto(msg *structpb.Struct) *Snapshot {
	fields := msg.GetFields()

	snapshot := &Snapshot{
		SessionID:   fields[fieldSessionID].GetStringValue(),
		Frame:       -1,
		AlarmActive: fields[fieldAlarmActive].GetBoolValue(),
	}

	if v, ok := fields[fieldFrame]; ok {
		snapshot.Frame = int(v.GetNumberValue())
	}

	if ts := fields[fieldTimestamp].GetStringValue(); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			snapshot.Timestamp = parsed
		}
	}

	for _, v := range fields[fieldZones].GetListValue().GetValues() {
		zf := v.GetStructValue().GetFields()

		z := ZoneSnapshot{
			Name:        zf[fieldName].GetStringValue(),
			AlarmActive: zf[fieldAlarmActive].GetBoolValue(),
			Intrusion:   zf[fieldIntrusion].GetBoolValue(),
		}

		for _, id := range zf[fieldIntruders].GetListValue().GetValues() {
			if _, isNull := id.GetKind().(*structpb.Value_NullValue); isNull {
				z.Intruders = append(z.Intruders, detection.Untracked)
				continue
			}

			z.Intruders = append(z.Intruders, detection.Tracked(int64(id.GetNumberValue())))
		}

		snapshot.Zones = append(snapshot.Zones, z)
	}

	return snapshot
}

// emptySnapshot is returned before the first frame is processed.
func emptySnapshot(sessionID string) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldSessionID:   structpb.NewStringValue(sessionID),
			fieldFrame:       structpb.NewNumberValue(-1),
			fieldTimestamp:   structpb.NewStringValue(""),
			fieldZones:       structpb.NewListValue(&structpb.ListValue{}),
			fieldAlarmActive: structpb.NewBoolValue(false),
		},
	}
}

// trackIDValue encodes a tracker identity, null when untracked.
func trackIDValue(id detection.TrackID) *structpb.Value {
	if !id.Valid {
		return structpb.NewNullValue()
	}

	return structpb.NewNumberValue(float64(id.ID))
}
