package history

import (
	"github.com/convertkit/unitconv/internal/output"
)

// Document is the serialized form of an exported history.
type Document struct {
	Count   int      `json:"count"`
	Records []Record `json:"records"`
}

// NewDocument wraps records for serialization.
func NewDocument(records []Record) Document {
	if records == nil {
		records = []Record{}
	}

	return Document{Count: len(records), Records: records}
}

// Items lists the records for line-oriented formats such as jsonl.
func (d Document) Items() []any {
	items := make([]any, len(d.Records))
	for i, r := range d.Records {
		items[i] = r
	}

	return items
}

// Export serializes records in one of the formats of output.DefaultRegistry.
func Export(records []Record, format string) ([]byte, error) {
	return output.DefaultRegistry().Encode(format, NewDocument(records))
}
