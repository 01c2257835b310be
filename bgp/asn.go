package bgp

import "fmt"

// ASTrans is the reserved 2-byte placeholder value (RFC 6793) a 2-byte-ASN
// speaker uses in AS_PATH when the real ASN needs 4 bytes and is carried
// separately in AS4_PATH.
const ASTrans uint32 = 23456

// ASN is an autonomous system number together with the width it was read
// at. Two ASNs compare equal if their numeric value matches regardless of
// width — width only matters for re-encoding.
type ASN struct {
	Value uint32
	Wide  bool // true = 4-byte, false = 2-byte
}

// NewASN2 builds a 2-byte-width ASN.
func NewASN2(v uint16) ASN { return ASN{Value: uint32(v), Wide: false} }

// NewASN4 builds a 4-byte-width ASN.
func NewASN4(v uint32) ASN { return ASN{Value: v, Wide: true} }

// Equal compares by numeric value only, ignoring width.
func (a ASN) Equal(b ASN) bool { return a.Value == b.Value }

func (a ASN) String() string { return fmt.Sprintf("%d", a.Value) }

// EncodedLen returns 2 or 4, the number of bytes the encoder writes for a.
func (a ASN) EncodedLen() int {
	if a.Wide {
		return 4
	}
	return 2
}
