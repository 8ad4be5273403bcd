package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configuration leaves the prefix empty.
const DefaultTopicPrefix = "novaprops"

// Topics builds the controller's MQTT topic names under one prefix:
//
//	{prefix}/probe/{kind}       actuation events (not retained)
//	{prefix}/system/status      online/offline (retained)
//	{prefix}/command/frame      incoming frames to apply
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix. Surrounding slashes are trimmed.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	return t.root()
}

func (t Topics) root() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// ProbeEvent returns the topic for an actuation event kind.
//
// Example: novaprops/probe/dc
func (t Topics) ProbeEvent(kind string) string {
	return fmt.Sprintf("%s/probe/%s", t.root(), kind)
}

// SystemStatus returns the retained status topic.
//
// Example: novaprops/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.root())
}

// FrameCommand returns the topic on which frames are accepted.
//
// Example: novaprops/command/frame
func (t Topics) FrameCommand() string {
	return fmt.Sprintf("%s/command/frame", t.root())
}
