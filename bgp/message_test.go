package bgp

import (
	"encoding/binary"
	"net/netip"
	"testing"
)

func buildHeader(typ uint8, bodyLen int) []byte {
	out := append([]byte{}, allOnesMarker...)
	out = binary.BigEndian.AppendUint16(out, uint16(HeaderSize+bodyLen))
	out = append(out, typ)
	return out
}

func TestDecodeMessageOpenClassicParams(t *testing.T) {
	cap4 := []byte{CapFourOctetASN, 4, 0, 1, 0x5F, 0xB0} // ASN 90032
	params := append([]byte{2, byte(len(cap4))}, cap4...)
	body := []byte{4, 0, 1, 0, 90, 10, 0, 0, 1, byte(len(params))}
	body = append(body, params...)

	data := append(buildHeader(MsgOpen, len(body)), body...)
	msg, err := DecodeMessage(data, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	open, ok := msg.(OpenMessage)
	if !ok {
		t.Fatalf("expected OpenMessage, got %T", msg)
	}
	if open.FourOctetASN() != 90032 {
		t.Fatalf("expected ASN 90032, got %d", open.FourOctetASN())
	}
}

func TestDecodeMessageOpenExtendedParams(t *testing.T) {
	cap4 := []byte{CapFourOctetASN, 4, 0, 1, 0x5F, 0xB0}
	capsBlock := append([]byte{2}, binary.BigEndian.AppendUint16(nil, uint16(len(cap4)))...)
	capsBlock = append(capsBlock, cap4...)

	var params []byte
	params = append(params, 255)                                          // Non-Ext OP Type (RFC 9072 sentinel)
	params = binary.BigEndian.AppendUint16(params, uint16(len(capsBlock))) // extended param length
	params = append(params, capsBlock...)

	body := []byte{4, 0, 1, 0, 90, 10, 0, 0, 1, 255} // Non-Ext OP Length 255
	body = append(body, params...)

	data := append(buildHeader(MsgOpen, len(body)), body...)
	msg, err := DecodeMessage(data, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	open, ok := msg.(OpenMessage)
	if !ok {
		t.Fatalf("expected OpenMessage, got %T", msg)
	}
	if open.FourOctetASN() != 90032 {
		t.Fatalf("expected ASN 90032, got %d", open.FourOctetASN())
	}
}

func TestDecodeMessageOpenExtendedRejectsWrongTypeByte(t *testing.T) {
	body := []byte{4, 0, 1, 0, 90, 10, 0, 0, 1, 255, 0, 1, 0}
	data := append(buildHeader(MsgOpen, len(body)), body...)
	if _, err := DecodeMessage(data, false, nil); err == nil {
		t.Fatalf("expected error for a non-255 Non-Ext OP Type byte")
	}
}

func TestDecodeMessageUpdateOverStandardLimitRejectedByDefault(t *testing.T) {
	body := make([]byte, MaxMessageSize)
	data := append(buildHeader(MsgUpdate, len(body)), body...)
	if _, err := DecodeMessage(data, false, nil); err == nil {
		t.Fatalf("expected length rejected without a negotiated Extended Message capability")
	}

	data2 := append(buildHeader(MsgUpdate, len(body)), body...)
	if _, err := DecodeMessage(data2, false, &DecodeOptions{ExtendedMessage: true}); err != nil {
		t.Fatalf("unexpected error with ExtendedMessage negotiated: %v", err)
	}
}

func TestDecodeMessageKeepalive(t *testing.T) {
	data := buildHeader(MsgKeepalive, 0)
	msg, err := DecodeMessage(data, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := msg.(KeepaliveMessage); !ok {
		t.Fatalf("expected KeepaliveMessage, got %T", msg)
	}
}

func TestDecodeMessageMarkerMismatch(t *testing.T) {
	data := buildHeader(MsgKeepalive, 0)
	data[0] = 0
	if _, err := DecodeMessage(data, false, nil); err == nil {
		t.Fatalf("expected MarkerMismatch error")
	}
}

func TestEncodeOpenRoundTrip(t *testing.T) {
	open := OpenMessage{
		Version: 4, ASN: 64512, HoldTime: 90,
		BGPID:        netip.MustParseAddr("10.0.0.1"),
		Capabilities: []Capability{{Code: CapFourOctetASN, Value: []byte{0, 1, 0x5F, 0xB0}}},
	}
	data := Encode(open)
	msg, err := DecodeMessage(data, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := msg.(OpenMessage)
	if !ok || got.FourOctetASN() != 90032 {
		t.Fatalf("round trip mismatch: %+v", msg)
	}
}
