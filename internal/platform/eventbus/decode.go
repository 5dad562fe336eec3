package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownTopic  = errors.New("unknown topic")
	ErrReadOnlyTopic = errors.New("topic is published by the registry only")
	ErrInvalidModal  = errors.New("unknown modal")
)

// TopicNames lists every topic in declaration order.
func TopicNames() []string {
	return []string{
		OpenModal.name,
		PrescriptionSaved.name,
		ServiceRecorded.name,
		PatientsChanged.name,
		SelectionChanged.name,
		StorageDegraded.name,
	}
}

// KnownTopic reports whether name is a declared topic.
func KnownTopic(name string) bool {
	for _, n := range TopicNames() {
		if n == name {
			return true
		}
	}
	return false
}

// PublishJSON decodes data as the payload of the named topic and publishes
// it. Only topics produced by the view layer are accepted; registry
// notifications return ErrReadOnlyTopic.
func PublishJSON(b *Bus, name string, data []byte) (Message, error) {
	switch name {
	case OpenModal.name:
		msg, err := decodeModal(data)
		if err != nil {
			return nil, err
		}
		Publish(b, OpenModal, msg)
		return msg, nil
	case PrescriptionSaved.name:
		var msg PrescriptionSavedEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		Publish(b, PrescriptionSaved, &msg)
		return &msg, nil
	case ServiceRecorded.name:
		var msg ServiceRecordedEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		if msg.Duration < 0 {
			return nil, fmt.Errorf("decode %s: negative duration", name)
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = time.Now()
		}
		Publish(b, ServiceRecorded, &msg)
		return &msg, nil
	case PatientsChanged.name, SelectionChanged.name, StorageDegraded.name:
		return nil, ErrReadOnlyTopic
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, name)
	}
}

func decodeModal(data []byte) (*ModalRequest, error) {
	var raw struct {
		Modal   ModalKind       `json:"modal"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", OpenModal.name, err)
	}
	if !raw.Modal.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModal, raw.Modal)
	}

	msg := &ModalRequest{Modal: raw.Modal}
	if len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		return msg, nil
	}

	var payload any
	switch raw.Modal {
	case ModalAppointment:
		payload = &AppointmentDetail{}
	case ModalImage:
		payload = &ImageDetail{}
	case ModalLabExam:
		payload = &LabExamDetail{}
	default:
		// The remaining modals open empty forms.
		return msg, nil
	}
	if err := json.Unmarshal(raw.Payload, payload); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", raw.Modal, err)
	}
	msg.Payload = payload
	return msg, nil
}
