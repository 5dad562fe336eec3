package websocket

import (
	"encoding/json"
	"time"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/eventbus"
)

// Bridge forwards every message published on bus to the hub. Storage
// degradation notices go to every client; everything else goes to the
// topic's subscribers. The returned func detaches the bridge.
func Bridge(bus *eventbus.Bus, hub *Hub, now func() time.Time) eventbus.Unsubscribe {
	return bus.Tap(func(topic string, msg eventbus.Message) {
		data, err := json.Marshal(msg)
		if err != nil {
			hub.logger.Error().Err(err).Str("topic", topic).Msg("failed to encode bus message")
			return
		}
		evt := Event{Type: EventTypeMessage, Topic: topic, Timestamp: now(), Data: data}
		if topic == eventbus.StorageDegraded.Name() {
			hub.BroadcastAll(evt)
			return
		}
		hub.Broadcast(topic, evt)
	})
}
