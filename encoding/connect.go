package encoding

// Connect flag bits per MQTT 3.1.1 section 3.1.2.3
const (
	connectFlagCleanSession byte = 0x02
	connectFlagWill         byte = 0x04
	connectFlagWillRetain   byte = 0x20
	connectFlagPassword     byte = 0x40
	connectFlagUsername     byte = 0x80
)

// connectVariableHeaderLength is the fixed size of the CONNECT variable
// header: protocol name (6), protocol level (1), connect flags (1), keepalive (2)
const connectVariableHeaderLength = 10

// ConnectSpec holds the optional connection parameters of a CONNECT packet.
// The zero value requests a clean session with no will and no credentials.
//
// An empty field is absent: will topic and will message must be set together,
// a password requires a username, and a nonzero will QoS requires a will.
type ConnectSpec struct {
	Username    string
	Password    string
	WillTopic   string
	WillMessage string
	WillQoS     QoS
}

// Validate checks the cross-field invariants of the spec
func (s *ConnectSpec) Validate() error {
	if s.WillTopic != "" && s.WillMessage == "" {
		return ErrWillTopicWithoutMessage
	}
	if s.WillMessage != "" && s.WillTopic == "" {
		return ErrWillMessageWithoutTopic
	}
	if s.Password != "" && s.Username == "" {
		return ErrPasswordWithoutUsername
	}
	if !s.WillQoS.IsValid() {
		return ErrInvalidWillQoS
	}
	if s.WillQoS != QoS0 && s.WillTopic == "" {
		return ErrWillQoSWithoutWill
	}
	return nil
}

// Flags returns the connect flags byte for this spec.
// Clean session is always requested; will retain is not modeled and stays 0.
func (s *ConnectSpec) Flags() byte {
	flags := connectFlagCleanSession

	if s.WillTopic != "" {
		flags |= connectFlagWill
		flags |= byte(s.WillQoS) << 3
	}

	if s.Username != "" {
		flags |= connectFlagUsername
	}

	if s.Password != "" {
		flags |= connectFlagPassword
	}

	return flags
}

// RemainingLength returns the payload bytes this spec contributes to the
// CONNECT remaining length: a two byte length prefix plus the UTF-8 byte
// count for each present field, with the will contributing both topic and
// message.
func (s *ConnectSpec) RemainingLength() int {
	remLen := 0
	if s.Username != "" {
		remLen += 2 + len(s.Username)
	}

	if s.Password != "" {
		remLen += 2 + len(s.Password)
	}

	if s.WillTopic != "" {
		remLen += 4
		remLen += len(s.WillTopic)
		remLen += len(s.WillMessage)
	}

	return remLen
}

// payload encodes the spec's contribution to the CONNECT payload in the
// order MQTT 3.1.1 section 3.1.3 requires: will topic, will message,
// username, password, each length-prefixed.
func (s *ConnectSpec) payload() ([]byte, error) {
	buf := make([]byte, 0, s.RemainingLength())

	if s.WillTopic != "" {
		topic, err := EncodeString(s.WillTopic)
		if err != nil {
			return nil, err
		}
		message, err := EncodeString(s.WillMessage)
		if err != nil {
			return nil, err
		}
		buf = append(buf, topic...)
		buf = append(buf, message...)
	}

	if s.Username != "" {
		username, err := EncodeString(s.Username)
		if err != nil {
			return nil, err
		}
		buf = append(buf, username...)
	}

	if s.Password != "" {
		password, err := EncodeString(s.Password)
		if err != nil {
			return nil, err
		}
		buf = append(buf, password...)
	}

	return buf, nil
}

// Connect builds a CONNECT packet for the given client id.
//
// The keepalive is in seconds; pass DefaultKeepAlive for the conventional 60s.
// A nil spec requests a clean session with no will and no credentials.
func Connect(clientID string, keepalive uint16, spec *ConnectSpec) ([]byte, error) {
	encodedClientID, err := EncodeString(clientID)
	if err != nil {
		return nil, err
	}

	connectFlags := connectFlagCleanSession
	var specPayload []byte
	if spec != nil {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		connectFlags = spec.Flags()
		specPayload, err = spec.payload()
		if err != nil {
			return nil, err
		}
	}

	remainingLength := uint32(connectVariableHeaderLength + len(encodedClientID) + len(specPayload))

	fh := FixedHeader{
		Type:            CONNECT,
		RemainingLength: remainingLength,
	}

	buf := make([]byte, 1+SizeRemainingLength(remainingLength)+int(remainingLength))
	offset, err := fh.encodeTo(buf)
	if err != nil {
		return nil, err
	}

	// Variable header: protocol name, protocol level, connect flags, keepalive
	n, err := writeUTF8StringToBytes(buf[offset:], ProtocolName)
	if err != nil {
		return nil, err
	}
	offset += n

	if n, err = writeByteToBytes(buf[offset:], ProtocolLevel); err != nil {
		return nil, err
	}
	offset += n

	if n, err = writeByteToBytes(buf[offset:], connectFlags); err != nil {
		return nil, err
	}
	offset += n

	if n, err = writeTwoByteIntToBytes(buf[offset:], keepalive); err != nil {
		return nil, err
	}
	offset += n

	// Payload: client id first, then the spec fields in section 3.1.3 order
	offset += copy(buf[offset:], encodedClientID)
	copy(buf[offset:], specPayload)

	return buf, nil
}
