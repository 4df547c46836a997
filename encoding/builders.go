package encoding

// Builders for outbound MQTT 3.1.1 control packets. Each builder validates
// its inputs, computes the remaining length, and returns the complete wire
// bytes for the packet.

// subscribeFlags / unsubscribeFlags are the reserved flag nibbles (0b0010)
// required by MQTT 3.1.1 sections 3.8.1 and 3.10.1
const (
	subscribeFlags   byte = 0x02
	unsubscribeFlags byte = 0x02
)

// SubscriptionSpec is a single topic filter / requested QoS pair in a
// SUBSCRIBE packet.
type SubscriptionSpec struct {
	TopicFilter string
	QoS         QoS
}

// Validate checks the filter syntax and QoS level
func (s *SubscriptionSpec) Validate() error {
	if err := ValidateTopicFilter(s.TopicFilter); err != nil {
		return err
	}
	if !s.QoS.IsValid() {
		return NewValidationError(ErrInvalidQoS, "requested QoS must be 0, 1, or 2")
	}
	return nil
}

// encodedLength is this spec's contribution to the SUBSCRIBE remaining
// length: length prefix, filter bytes, QoS byte.
func (s *SubscriptionSpec) encodedLength() int {
	return 2 + len(s.TopicFilter) + 1
}

// Subscribe builds a SUBSCRIBE packet for the given subscriptions.
// The packet id must be strictly between 0 and 65535.
func Subscribe(packetID uint16, specs []SubscriptionSpec) ([]byte, error) {
	if packetID == 0 || packetID == 65535 {
		return nil, ErrInvalidPacketID
	}
	if len(specs) == 0 {
		return nil, ErrEmptySubscriptionList
	}

	remainingLength := 2 // packet id
	for i := range specs {
		if err := specs[i].Validate(); err != nil {
			return nil, err
		}
		if len(specs[i].TopicFilter) > maxStringLength {
			return nil, ErrStringTooLong
		}
		remainingLength += specs[i].encodedLength()
	}

	fh := FixedHeader{
		Type:            SUBSCRIBE,
		Flags:           subscribeFlags,
		RemainingLength: uint32(remainingLength),
	}

	buf := make([]byte, 1+SizeRemainingLength(fh.RemainingLength)+remainingLength)
	offset, err := fh.encodeTo(buf)
	if err != nil {
		return nil, err
	}

	n, err := writeTwoByteIntToBytes(buf[offset:], packetID)
	if err != nil {
		return nil, err
	}
	offset += n

	for i := range specs {
		if n, err = writeUTF8StringToBytes(buf[offset:], specs[i].TopicFilter); err != nil {
			return nil, err
		}
		offset += n

		if n, err = writeByteToBytes(buf[offset:], byte(specs[i].QoS)); err != nil {
			return nil, err
		}
		offset += n
	}

	return buf, nil
}

// Unsubscribe builds an UNSUBSCRIBE packet for the given topic filters.
// The packet id must be nonzero and at least one topic is required.
func Unsubscribe(packetID uint16, topics []string) ([]byte, error) {
	if err := ValidatePacketID(packetID, true); err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, ErrEmptyUnsubscribeList
	}

	remainingLength := 2 // packet id
	for _, topic := range topics {
		if err := ValidateTopicFilter(topic); err != nil {
			return nil, err
		}
		if len(topic) > maxStringLength {
			return nil, ErrStringTooLong
		}
		remainingLength += 2 + len(topic)
	}

	fh := FixedHeader{
		Type:            UNSUBSCRIBE,
		Flags:           unsubscribeFlags,
		RemainingLength: uint32(remainingLength),
	}

	buf := make([]byte, 1+SizeRemainingLength(fh.RemainingLength)+remainingLength)
	offset, err := fh.encodeTo(buf)
	if err != nil {
		return nil, err
	}

	n, err := writeTwoByteIntToBytes(buf[offset:], packetID)
	if err != nil {
		return nil, err
	}
	offset += n

	for _, topic := range topics {
		if n, err = writeUTF8StringToBytes(buf[offset:], topic); err != nil {
			return nil, err
		}
		offset += n
	}

	return buf, nil
}

// Publish builds a PUBLISH packet.
//
// A zero packet id means absent: QoS 0 publishes must not carry a packet id
// and must not set DUP, QoS 1 and 2 publishes require a nonzero one. The
// payload is carried verbatim and may be empty.
func Publish(topic string, dup bool, qos QoS, retain bool, payload []byte, packetID uint16) ([]byte, error) {
	if !qos.IsValid() {
		return nil, NewValidationError(ErrInvalidQoS, "QoS must be 0, 1, or 2")
	}
	if err := ValidateTopicName(topic); err != nil {
		return nil, err
	}

	if qos == QoS0 {
		if dup {
			return nil, ErrDupWithoutQoS
		}
		if packetID != 0 {
			return nil, ErrUnexpectedPacketID
		}
	} else if packetID == 0 {
		return nil, ErrMissingPacketID
	}

	encodedTopic, err := EncodeString(topic)
	if err != nil {
		return nil, err
	}

	remainingLength := len(encodedTopic) + len(payload)
	if qos > QoS0 {
		remainingLength += 2
	}
	if remainingLength > int(MaxRemainingLength) {
		return nil, ErrRemainingLengthTooLarge
	}

	fh := FixedHeader{
		Type:            PUBLISH,
		RemainingLength: uint32(remainingLength),
		DUP:             dup,
		QoS:             qos,
		Retain:          retain,
	}

	// Construct the PUBLISH flag nibble
	if dup {
		fh.Flags |= 0x08
	}
	fh.Flags |= byte(qos) << 1
	if retain {
		fh.Flags |= 0x01
	}

	buf := make([]byte, 1+SizeRemainingLength(fh.RemainingLength)+remainingLength)
	offset, err := fh.encodeTo(buf)
	if err != nil {
		return nil, err
	}

	offset += copy(buf[offset:], encodedTopic)

	if qos > QoS0 {
		n, err := writeTwoByteIntToBytes(buf[offset:], packetID)
		if err != nil {
			return nil, err
		}
		offset += n
	}

	copy(buf[offset:], payload)

	return buf, nil
}

// Pingreq builds a PINGREQ packet
func Pingreq() []byte {
	return []byte{byte(PINGREQ) << 4, 0x00}
}

// Disconnect builds a DISCONNECT packet
func Disconnect() []byte {
	return []byte{byte(DISCONNECT) << 4, 0x00}
}
