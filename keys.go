package testapi

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyNames identifies the primary key attributes of a table. Range is empty for
// tables keyed by partition only.
type KeyNames struct {
	Hash  string
	Range string
}

// DefaultKeyNames are the key attributes every harness table uses.
var DefaultKeyNames = KeyNames{Hash: AttributeNamePK, Range: AttributeNameSK}

// KeyNamesOf reads the key attribute names out of a key schema. Missing
// elements fall back to DefaultKeyNames' hash attribute.
func KeyNamesOf(schema []types.KeySchemaElement) KeyNames {
	var names KeyNames
	for _, el := range schema {
		switch el.KeyType {
		case types.KeyTypeHash:
			names.Hash = aws.ToString(el.AttributeName)
		case types.KeyTypeRange:
			names.Range = aws.ToString(el.AttributeName)
		}
	}
	if names.Hash == "" {
		names.Hash = DefaultKeyNames.Hash
	}
	return names
}

// Attributes returns the non-empty key attribute names.
func (k KeyNames) Attributes() []string {
	if k.Range == "" {
		return []string{k.Hash}
	}
	return []string{k.Hash, k.Range}
}

// Key extracts the primary key of record. Attributes absent from the record
// are absent from the key.
func (k KeyNames) Key(record Record) Record {
	key := make(Record, 2)
	for _, name := range k.Attributes() {
		if v, ok := record[name]; ok {
			key[name] = v
		}
	}
	return key
}

// PrimaryKey extracts the pk and, when present, the sk attribute of record.
func PrimaryKey(record Record) Record {
	return DefaultKeyNames.Key(record)
}
