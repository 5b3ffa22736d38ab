package testapi

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestKeyNamesOf(t *testing.T) {
	got := KeyNamesOf([]types.KeySchemaElement{
		{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
		{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
	})
	if want := (KeyNames{Hash: "id", Range: "sk"}); got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if got := KeyNamesOf(nil); got != (KeyNames{Hash: AttributeNamePK}) {
		t.Errorf("expected fallback to pk, got %+v", got)
	}
}

func TestKeyNames_Attributes(t *testing.T) {
	if got := (KeyNames{Hash: "pk"}).Attributes(); len(got) != 1 || got[0] != "pk" {
		t.Errorf("expected [pk], got %v", got)
	}
	if got := DefaultKeyNames.Attributes(); len(got) != 2 || got[1] != "sk" {
		t.Errorf("expected [pk sk], got %v", got)
	}
}

func TestPrimaryKey(t *testing.T) {
	full := Record{
		"pk":       &types.AttributeValueMemberS{Value: "item#1"},
		"sk":       &types.AttributeValueMemberS{Value: "event#1"},
		"party_id": &types.AttributeValueMemberS{Value: "https://shop.com"},
		"hash":     &types.AttributeValueMemberS{Value: "00ff"},
	}

	key := PrimaryKey(full)
	if len(key) != 2 {
		t.Fatalf("expected pk and sk only, got %v", key)
	}
	if key["pk"] != full["pk"] || key["sk"] != full["sk"] {
		t.Error("expected key attributes to be carried over")
	}

	partitionOnly := PrimaryKey(Record{"pk": full["pk"]})
	if len(partitionOnly) != 1 {
		t.Errorf("expected pk only, got %v", partitionOnly)
	}
}
