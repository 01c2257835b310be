package bgp

import "fmt"

// ErrorKind is the closed set of error categories the decoders can produce.
// Callers that need to branch on error type should use errors.As against
// *ParseError and switch on Kind, not string-match Error().
type ErrorKind int

const (
	// TruncatedMessage means fewer bytes remained than a field declared.
	TruncatedMessage ErrorKind = iota
	// MarkerMismatch means a BGP message marker was not all 0xFF.
	MarkerMismatch
	// UnknownMrtType means an MRT common header type code was not recognized.
	UnknownMrtType
	// UnknownBgpMessageType means a BGP message type byte was not OPEN/UPDATE/NOTIFICATION/KEEPALIVE.
	UnknownBgpMessageType
	// MalformedAttribute means one path attribute's body could not be decoded.
	MalformedAttribute
	// DuplicateAttribute means the same attribute type code appeared twice in one UPDATE.
	DuplicateAttribute
	// InvalidPrefix means a prefix length or byte count was invalid.
	InvalidPrefix
	// InvalidPeerIndex means a TableDumpV2 RIB entry referenced an out-of-range peer ordinal.
	InvalidPeerIndex
	// InvalidBmpVersion means a BMP common header declared an unsupported version.
	InvalidBmpVersion
	// UnknownTlvType means a TLV type code was not recognized in its context.
	UnknownTlvType
	// UnknownTlvValue means a TLV type was recognized but its value was malformed.
	UnknownTlvValue
	// CorruptedBgpMessage means the BGP message framing itself (length, marker) was invalid.
	CorruptedBgpMessage
	// IoError wraps an error from the injected byte reader.
	IoError
	// DeprecatedAttribute is informational: an attribute code that RFCs have deprecated was seen.
	DeprecatedAttribute
)

func (k ErrorKind) String() string {
	switch k {
	case TruncatedMessage:
		return "TruncatedMessage"
	case MarkerMismatch:
		return "MarkerMismatch"
	case UnknownMrtType:
		return "UnknownMrtType"
	case UnknownBgpMessageType:
		return "UnknownBgpMessageType"
	case MalformedAttribute:
		return "MalformedAttribute"
	case DuplicateAttribute:
		return "DuplicateAttribute"
	case InvalidPrefix:
		return "InvalidPrefix"
	case InvalidPeerIndex:
		return "InvalidPeerIndex"
	case InvalidBmpVersion:
		return "InvalidBmpVersion"
	case UnknownTlvType:
		return "UnknownTlvType"
	case UnknownTlvValue:
		return "UnknownTlvValue"
	case CorruptedBgpMessage:
		return "CorruptedBgpMessage"
	case IoError:
		return "IoError"
	case DeprecatedAttribute:
		return "DeprecatedAttribute"
	default:
		return "Unknown"
	}
}

// ParseError is the error type every decoder in this module returns. It
// carries enough context (type code, offending bytes) for a caller to log
// or recover without crashing.
type ParseError struct {
	Kind    ErrorKind
	Context string // e.g. attribute type code, TLV context name
	Code    int    // numeric code relevant to Kind (attr type, tlv type...)
	Raw     []byte // offending bytes, when available
	Cause   error
}

func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Context != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Context)
	}
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Cause }

func newErr(kind ErrorKind, context string, cause error) *ParseError {
	return &ParseError{Kind: kind, Context: context, Cause: cause}
}

func newErrCode(kind ErrorKind, context string, code int, cause error) *ParseError {
	return &ParseError{Kind: kind, Context: context, Code: code, Cause: cause}
}
