package discovery

import (
	"strconv"
	"strings"
)

// TXT record keys.
const (
	TXTKeyVersion = "ver"
	TXTKeyID      = "id"
)

// TXT holds the attributes a BSCP server publishes in its TXT record.
type TXT struct {
	// Version is the protocol version accepted by the server.
	Version uint16

	// ID is an optional server identifier.
	ID string
}

// Encode returns the TXT record strings.
func (t TXT) Encode() []string {
	records := []string{TXTKeyVersion + "=" + strconv.Itoa(int(t.Version))}
	if t.ID != "" {
		records = append(records, TXTKeyID+"="+t.ID)
	}
	return records
}

// ParseTXT parses TXT record strings into a key-value map.
// Records without '=' are stored with an empty value. Keys are lowercased.
func ParseTXT(records []string) map[string]string {
	result := make(map[string]string, len(records))
	for _, record := range records {
		key, value, _ := strings.Cut(record, "=")
		if key == "" {
			continue
		}
		result[strings.ToLower(key)] = value
	}
	return result
}

// DecodeTXT extracts the BSCP attributes from a parsed TXT map. A missing or
// malformed version decodes as zero.
func DecodeTXT(text map[string]string) TXT {
	var t TXT
	if v, err := strconv.ParseUint(text[TXTKeyVersion], 10, 16); err == nil {
		t.Version = uint16(v)
	}
	t.ID = text[TXTKeyID]
	return t
}
