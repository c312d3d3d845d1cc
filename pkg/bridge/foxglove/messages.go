package foxglove

import "encoding/binary"

const (
	OpServerInfo  = "serverInfo"
	OpAdvertise   = "advertise"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
	OpStatus      = "status"

	BinaryOpMessageData = 0x01

	messageDataHeaderSize = 1 + 4 + 8
)

// Status levels of the server "status" op.
const (
	StatusInfo    = 0
	StatusWarning = 1
	StatusError   = 2
)

type ServerInfoMsg struct {
	Op                 string            `json:"op"`
	Name               string            `json:"name"`
	Capabilities       []string          `json:"capabilities"`
	SupportedEncodings []string          `json:"supportedEncodings,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
	SessionID          string            `json:"sessionId,omitempty"`
}

type Channel struct {
	ID             uint64 `json:"id"`
	Topic          string `json:"topic"`
	Encoding       string `json:"encoding"`
	SchemaName     string `json:"schemaName"`
	SchemaEncoding string `json:"schemaEncoding,omitempty"`
	Schema         string `json:"schema,omitempty"`
}

type AdvertiseMsg struct {
	Op       string    `json:"op"`
	Channels []Channel `json:"channels"`
}

type Subscription struct {
	ID        uint32 `json:"id"`
	ChannelID uint64 `json:"channelId"`
}

type SubscribeMsg struct {
	Op            string         `json:"op"`
	Subscriptions []Subscription `json:"subscriptions"`
}

type UnsubscribeMsg struct {
	Op              string   `json:"op"`
	SubscriptionIDs []uint32 `json:"subscriptionIds"`
}

// StatusMsg reports a server-side condition to one client, such as a
// subscription to a channel that was never advertised.
type StatusMsg struct {
	Op      string `json:"op"`
	Level   int    `json:"level"`
	Message string `json:"message"`
}

func EncodeMessageData(subscriptionID uint32, logTime uint64, payload []byte) []byte {
	out := make([]byte, messageDataHeaderSize+len(payload))
	out[0] = BinaryOpMessageData
	binary.LittleEndian.PutUint32(out[1:5], subscriptionID)
	binary.LittleEndian.PutUint64(out[5:13], logTime)
	copy(out[13:], payload)
	return out
}

// DecodeMessageData splits a messageData frame. ok is false for any other
// binary opcode or a truncated frame.
func DecodeMessageData(frame []byte) (subscriptionID uint32, logTime uint64, payload []byte, ok bool) {
	if len(frame) < messageDataHeaderSize || frame[0] != BinaryOpMessageData {
		return 0, 0, nil, false
	}
	return binary.LittleEndian.Uint32(frame[1:5]), binary.LittleEndian.Uint64(frame[5:13]), frame[13:], true
}
