package core

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ExtractJSONPayload recovers the JSON payload from a raw model
// response that may wrap it in prose or a markdown fence. If the
// remaining text is not bracketed like a JSON array or object, an
// empty array is returned; the payload is never "repaired".
func ExtractJSONPayload(content string) string {
	if i := strings.Index(content, "```json"); i >= 0 {
		content = content[i+len("```json"):]
		if j := strings.Index(content, "```"); j >= 0 {
			content = content[:j]
		}
	} else if i := strings.Index(content, "```"); i >= 0 {
		content = content[i+len("```"):]
		if j := strings.Index(content, "```"); j >= 0 {
			content = content[:j]
		}
	}

	trimmed := strings.TrimSpace(content)
	if (strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) ||
		(strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) {
		return content
	}
	return "[]"
}

// ParseCandidateItems decodes the model response into candidate items.
// Accepts either the {"products_list": [...]} envelope the prompt asks
// for or a bare array. A malformed element is dropped, not fatal; a
// malformed payload yields an empty list.
func ParseCandidateItems(response string) []CandidateItem {
	payload := ExtractJSONPayload(response)

	var rawItems []json.RawMessage

	var envelope struct {
		ProductsList []json.RawMessage `json:"products_list"`
	}
	if err := json.Unmarshal([]byte(payload), &envelope); err == nil && envelope.ProductsList != nil {
		rawItems = envelope.ProductsList
	} else if err := json.Unmarshal([]byte(payload), &rawItems); err != nil {
		return nil
	}

	items := make([]CandidateItem, 0, len(rawItems))
	for _, raw := range rawItems {
		var item CandidateItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// NormalizeItems converts candidate items from the extraction model
// into canonical receipt items. Every field is treated as hostile: a
// missing or nonsensical field degrades to its default, and a candidate
// without a product name is dropped without aborting the rest.
func NormalizeItems(candidates []CandidateItem) []ReceiptItem {
	items := make([]ReceiptItem, 0, len(candidates))
	for _, c := range candidates {
		name := strings.TrimSpace(c.ProductName)
		if name == "" {
			continue
		}

		item := ReceiptItem{
			RawName:     name,
			Quantity:    coerceQuantity(c.Quantity),
			GeneralName: c.GeneralName,
			FoodType:    c.FoodType,
		}

		if c.Weight != "" {
			if isBareUnit(c.Weight) {
				// The model returned a unit with no magnitude; the real
				// value is usually printed inside the product name.
				if w, ok := ExtractWeightFromName(name); ok {
					item.WeightOrVolume = w
				} else {
					item.WeightOrVolume = c.Weight
				}
			} else {
				item.WeightOrVolume = c.Weight
			}
		}

		items = append(items, item)
	}
	return items
}

// coerceQuantity accepts the quantity however the model typed it.
// Anything unusable becomes 1.
func coerceQuantity(v interface{}) int {
	switch q := v.(type) {
	case float64:
		if q >= 0 {
			return int(q)
		}
	case int:
		if q >= 0 {
			return q
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(q), 64); err == nil && f >= 0 {
			return int(f)
		}
	case json.Number:
		if f, err := q.Float64(); err == nil && f >= 0 {
			return int(f)
		}
	}
	return 1
}
