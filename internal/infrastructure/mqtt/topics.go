package mqtt

import (
	"fmt"
	"strconv"
	"strings"
)

// Topic prefixes for the MODI bus.
//
// Module topics use the flat scheme modi/{category}/{module_id}, where
// module_id is the decimal bus address.
const (
	// TopicPrefix is the base for all module topics.
	TopicPrefix = "modi"

	// TopicPrefixCore is the base for topics owned by this service.
	TopicPrefixCore = "modi/core"
)

// Topic categories.
const (
	CategoryCommand   = "command"
	CategoryTelemetry = "telemetry"
	CategoryModule    = "module"
)

// Topics provides builders for MODI MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Command(7) // "modi/command/7"
type Topics struct{}

// Command returns the topic commands for a module are published on.
//
// Example: modi/command/7
func (Topics) Command(id uint16) string {
	return fmt.Sprintf("%s/%s/%d", TopicPrefix, CategoryCommand, id)
}

// Telemetry returns the topic a module reports property values on.
//
// Example: modi/telemetry/7
func (Topics) Telemetry(id uint16) string {
	return fmt.Sprintf("%s/%s/%d", TopicPrefix, CategoryTelemetry, id)
}

// Module returns the topic a module announces and withdraws itself on.
//
// Example: modi/module/7
func (Topics) Module(id uint16) string {
	return fmt.Sprintf("%s/%s/%d", TopicPrefix, CategoryModule, id)
}

// CoreStatus returns the retained online/offline status topic.
//
// Example: modi/core/status
func (Topics) CoreStatus() string {
	return TopicPrefixCore + "/status"
}

// AllTelemetry matches telemetry from every module.
//
// Pattern: modi/telemetry/+
func (Topics) AllTelemetry() string {
	return fmt.Sprintf("%s/%s/+", TopicPrefix, CategoryTelemetry)
}

// AllModules matches announcements from every module.
//
// Pattern: modi/module/+
func (Topics) AllModules() string {
	return fmt.Sprintf("%s/%s/+", TopicPrefix, CategoryModule)
}

// AllCommands matches commands to every module.
//
// Pattern: modi/command/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/%s/+", TopicPrefix, CategoryCommand)
}

// ParseModuleTopic splits a module topic into its category and module ID.
func ParseModuleTopic(topic string) (category string, id uint16, err error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefix {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	}

	n, err := strconv.ParseUint(parts[2], 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("%w: module id in %q", ErrInvalidTopic, topic)
	}
	return parts[1], uint16(n), nil
}
