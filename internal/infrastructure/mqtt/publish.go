package mqtt

import (
	"fmt"
	"strings"
)

const (
	// maxPayloadSize bounds one message. MODI frames are far smaller.
	maxPayloadSize = 1 << 20

	// maxTopicLength is the MQTT limit on a topic name in bytes.
	maxTopicLength = 65535
)

// Publish sends payload to topic and waits for the broker acknowledgement
// required by qos.
//
// Parameters:
//   - topic: Concrete topic name; wildcards are rejected
//   - payload: Message body, at most 1 MiB
//   - qos: 0, 1 or 2
//   - retained: Whether the broker keeps the message for new subscribers
//
// Returns:
//   - error: ErrNotConnected, ErrInvalidTopic, ErrInvalidQoS or ErrPublishFailed
//
//	err := client.Publish(mqtt.Topics{}.Command(7), frame, 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := validateTopicName(topic); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: %s: timeout after %v", ErrPublishFailed, topic, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

// validateTopicName checks a topic that is published to. Wildcards are
// only valid in subscription filters.
func validateTopicName(topic string) error {
	if topic == "" || len(topic) > maxTopicLength {
		return fmt.Errorf("%w: length %d", ErrInvalidTopic, len(topic))
	}
	if strings.ContainsAny(topic, "+#\x00") {
		return fmt.Errorf("%w: %q contains a wildcard", ErrInvalidTopic, topic)
	}
	return nil
}

// validateTopicFilter checks a subscription filter: + must fill a whole
// level and # must be the last level.
func validateTopicFilter(filter string) error {
	if filter == "" || len(filter) > maxTopicLength || strings.ContainsRune(filter, 0) {
		return fmt.Errorf("%w: filter %q", ErrInvalidTopic, filter)
	}
	levels := strings.Split(filter, "/")
	for i, level := range levels {
		if strings.ContainsAny(level, "+#") && len(level) > 1 {
			return fmt.Errorf("%w: wildcard inside level %q", ErrInvalidTopic, level)
		}
		if level == "#" && i != len(levels)-1 {
			return fmt.Errorf("%w: # must be the last level in %q", ErrInvalidTopic, filter)
		}
	}
	return nil
}
