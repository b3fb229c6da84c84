/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entityevents/registry"
)

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros renders every template of indexMap from the attributes of entity.
// Unknown or non-scalar attributes render as the empty string.
func expandMacros(indexMap map[string]string, entity any) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for fieldName, template := range indexMap {
		res[fieldName] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			val, ok := av[strings.Trim(macro, "{}")]
			if !ok {
				return ""
			}
			switch tv := val.(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				return ""
			}
		})
	}
	return res, nil
}

// expandStringKey replaces every macro of the key templates with key.
func expandStringKey(indexMap map[string]string, key string) map[string]string {
	expanded := make(map[string]string, 2)
	for _, field := range []string{registry.PartitionKey, registry.SortKey} {
		expanded[field] = macroPattern.ReplaceAllLiteralString(indexMap[field], key)
	}
	return expanded
}

// buildKeyFromExpanded builds a DynamoDB key from the expanded index map.
// It requires non-empty values for PK and SK.
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk := expanded[registry.PartitionKey]
	sk := expanded[registry.SortKey]
	if pk == "" || sk == "" {
		return nil, fmt.Errorf("expanded index map missing valid PK or SK")
	}

	return map[string]types.AttributeValue{
		registry.PartitionKey: &types.AttributeValueMemberS{Value: pk},
		registry.SortKey:      &types.AttributeValueMemberS{Value: sk},
	}, nil
}
