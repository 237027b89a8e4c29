package ws

import (
	"reflect"
)

var typeRegistry = map[string]reflect.Type{}

func init() {
	// Register all event types
	RegisterType(&EventNewMessage{})
	RegisterType(&EventNewGroupMessage{})
	RegisterType(&EventMessageDelivered{})
	RegisterType(&EventMessageRead{})
	RegisterType(&EventGroupSeenUpdate{})
	RegisterType(&EventMessagePinned{})
	RegisterType(&EventGroupMessagePinned{})
	RegisterType(&EventUnreadCounts{})
	RegisterType(&EventLastActivity{})
	RegisterType(&EventGroupActivity{})
	RegisterType(&EventChatPinUpdated{})
	RegisterType(&EventUserConnected{})
	RegisterType(&EventUserDisconnected{})
	RegisterType(&EventSendAck{})
	RegisterType(&EventGroupCreated{})
	RegisterType(&EventNotification{})
	RegisterType(&EventBatch{})
}

func RegisterType(evt Event) {
	typeRegistry[evt.GetType()] = reflect.TypeOf(evt).Elem()
}

// GetTypeRegistry returns the type registry for testing
func GetTypeRegistry() map[string]reflect.Type {
	return typeRegistry
}
