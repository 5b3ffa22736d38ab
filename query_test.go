package testapi

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestQueryByParty(t *testing.T) {
	t.Run("basic query", func(t *testing.T) {
		input, err := (&QueryByParty{PartyID: "https://shop.com", Limit: 10}).MarshalQuery()
		if err != nil {
			t.Fatalf("failed to marshal query: %v", err)
		}

		if got := aws.ToString(input.TableName); got != TableItems {
			t.Errorf("expected table %s, got %s", TableItems, got)
		}
		if got := aws.ToString(input.IndexName); got != IndexItemsByParty {
			t.Errorf("expected index %s, got %s", IndexItemsByParty, got)
		}
		if aws.ToInt32(input.Limit) != 10 {
			t.Errorf("expected limit 10, got %d", aws.ToInt32(input.Limit))
		}
		if !aws.ToBool(input.ScanIndexForward) {
			t.Error("expected ascending query")
		}
		if input.ExclusiveStartKey != nil {
			t.Error("expected no start key")
		}

		var found bool
		for _, v := range input.ExpressionAttributeValues {
			if s, ok := v.(*types.AttributeValueMemberS); ok && s.Value == "https://shop.com" {
				found = true
			}
		}
		if !found {
			t.Error("expected party id among expression values")
		}
	})

	t.Run("event prefix and paging", func(t *testing.T) {
		start := Record{"pk": &types.AttributeValueMemberS{Value: "item#1"}}
		input, err := (&QueryByParty{
			PartyID:        "https://shop.com",
			EventIDPrefix:  "https://shop.com#1",
			StartKey:       start,
			SortDescending: true,
		}).MarshalQuery()
		if err != nil {
			t.Fatalf("failed to marshal query: %v", err)
		}

		if len(input.ExpressionAttributeNames) != 2 {
			t.Errorf("expected party and event attribute names, got %v", input.ExpressionAttributeNames)
		}
		if aws.ToBool(input.ScanIndexForward) {
			t.Error("expected descending query")
		}
		if input.Limit != nil {
			t.Error("expected no limit")
		}
		if input.ExclusiveStartKey["pk"] != start["pk"] {
			t.Error("expected start key to be carried over")
		}
	})

	t.Run("missing party", func(t *testing.T) {
		if _, err := (&QueryByParty{}).MarshalQuery(); err == nil {
			t.Error("expected error")
		}
	})
}

func TestQueryInverted(t *testing.T) {
	input, err := (&QueryInverted{SortKey: "filter#price", Limit: 5}).MarshalQuery()
	if err != nil {
		t.Fatalf("failed to marshal query: %v", err)
	}
	if got := aws.ToString(input.TableName); got != TableFilters {
		t.Errorf("expected table %s, got %s", TableFilters, got)
	}
	if got := aws.ToString(input.IndexName); got != IndexFiltersInverted {
		t.Errorf("expected index %s, got %s", IndexFiltersInverted, got)
	}
	if aws.ToInt32(input.Limit) != 5 {
		t.Errorf("expected limit 5, got %d", aws.ToInt32(input.Limit))
	}

	if _, err := (&QueryInverted{}).MarshalQuery(); err == nil {
		t.Error("expected error for missing sort key")
	}
}

func TestKeyProjection(t *testing.T) {
	expr, err := KeyProjection(DefaultKeyNames)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.Projection() == nil {
		t.Fatal("expected projection")
	}

	var names []string
	for _, name := range expr.Names() {
		names = append(names, name)
	}
	if len(names) != 2 {
		t.Errorf("expected pk and sk, got %v", names)
	}

	expr, err = KeyProjection(KeyNames{Hash: "pk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expr.Names()) != 1 {
		t.Errorf("expected pk only, got %v", expr.Names())
	}
}
