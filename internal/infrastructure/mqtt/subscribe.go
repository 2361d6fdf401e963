package mqtt

import (
	"fmt"
	"slices"
)

// Subscribe registers handler for messages matching filter.
//
// Filters may use the + and # wildcards. Subscriptions are tracked and
// restored after a reconnect; subscribing to a filter again replaces its
// handler.
//
//	err := client.Subscribe(mqtt.Topics{}.AllTelemetry(), 1, inbound.HandleTelemetry)
func (c *Client) Subscribe(filter string, qos byte, handler MessageHandler) error {
	if err := validateTopicFilter(filter); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	c.subscriptions[filter] = subscription{topic: filter, qos: qos, handler: handler}
	c.subMu.Unlock()

	token := c.client.Subscribe(filter, qos, c.wrapHandler(handler))
	if !token.WaitTimeout(defaultPublishTimeout) {
		c.forget(filter)
		return fmt.Errorf("%w: %s: timeout after %v", ErrSubscribeFailed, filter, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		c.forget(filter)
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, filter, err)
	}
	return nil
}

func (c *Client) forget(filter string) {
	c.subMu.Lock()
	delete(c.subscriptions, filter)
	c.subMu.Unlock()
}

// Subscriptions returns the tracked filters, sorted.
func (c *Client) Subscriptions() []string {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	filters := make([]string, 0, len(c.subscriptions))
	for f := range c.subscriptions {
		filters = append(filters, f)
	}
	slices.Sort(filters)
	return filters
}
