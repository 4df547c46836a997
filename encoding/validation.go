package encoding

import (
	"strings"
)

// Input rules shared by the builders: packet identifiers, PUBLISH topic
// names, and SUBSCRIBE/UNSUBSCRIBE topic filters.

// isTopicRune reports whether r may appear in a topic name or filter level.
// MQTT 3.1.1 section 1.5.3 forbids U+0000 and the UTF-16 surrogate range.
func isTopicRune(r rune) bool {
	if r == 0 {
		return false
	}
	return r < 0xD800 || r > 0xDFFF
}

// ValidatePacketID checks a packet identifier against the zero rule of the
// packet it appears in.
func ValidatePacketID(packetID uint16, requireNonZero bool) error {
	if packetID == 0 && requireNonZero {
		return ErrInvalidPacketIDZero
	}
	return nil
}

// ValidateTopicName validates a PUBLISH topic name in a single pass: it must
// be nonempty, carry no wildcard characters, and contain only legal runes.
func ValidateTopicName(topic string) error {
	if topic == "" {
		return ErrInvalidTopicName
	}

	for _, r := range topic {
		if r == '#' || r == '+' {
			return ErrInvalidPublishTopicName
		}
		if !isTopicRune(r) {
			return ErrInvalidTopicName
		}
	}

	return nil
}

// ValidateTopicFilter validates a subscription topic filter, walking the
// filter level by level: '#' only as the final level and alone, '+' only
// alone in its level.
func ValidateTopicFilter(filter string) error {
	if filter == "" {
		return ErrEmptyTopicFilter
	}

	rest := filter
	for {
		level, tail, moreLevels := strings.Cut(rest, "/")

		switch level {
		case "#":
			if moreLevels {
				return ErrInvalidTopicFilter
			}
		case "+":
			// Single-level wildcard may appear at any level
		default:
			for _, r := range level {
				if r == '#' || r == '+' {
					return ErrInvalidTopicFilter
				}
				if !isTopicRune(r) {
					return ErrInvalidTopicFilter
				}
			}
		}

		if !moreLevels {
			return nil
		}
		rest = tail
	}
}
