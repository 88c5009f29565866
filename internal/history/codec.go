package history

import (
	"encoding/json"
	"fmt"

	"github.com/raysh454/crumb/internal/model"
)

// encodedSnapshot holds the JSON columns of a persisted snapshot. nil and
// empty values encode differently so they round-trip unchanged.
type encodedSnapshot struct {
	Categories []byte
	Inventory  []byte
	Analysis   []byte
}

func encodeSnapshot(s *model.ScanSnapshot) (encodedSnapshot, error) {
	var enc encodedSnapshot
	var err error
	if enc.Categories, err = json.Marshal(s.Categories); err != nil {
		return enc, fmt.Errorf("marshal categories: %w", err)
	}
	if enc.Inventory, err = json.Marshal(s.Inventory); err != nil {
		return enc, fmt.Errorf("marshal inventory: %w", err)
	}
	if enc.Analysis, err = json.Marshal(s.Analysis); err != nil {
		return enc, fmt.Errorf("marshal analysis: %w", err)
	}
	return enc, nil
}

func decodeInto(s *model.ScanSnapshot, enc encodedSnapshot) error {
	if len(enc.Categories) > 0 {
		if err := json.Unmarshal(enc.Categories, &s.Categories); err != nil {
			return fmt.Errorf("unmarshal categories: %w", err)
		}
	}
	if len(enc.Inventory) > 0 {
		if err := json.Unmarshal(enc.Inventory, &s.Inventory); err != nil {
			return fmt.Errorf("unmarshal inventory: %w", err)
		}
	}
	if len(enc.Analysis) > 0 {
		if err := json.Unmarshal(enc.Analysis, &s.Analysis); err != nil {
			return fmt.Errorf("unmarshal analysis: %w", err)
		}
	}
	return nil
}

// cloneSnapshot deep-copies s so stored values cannot be mutated by callers.
func cloneSnapshot(s *model.ScanSnapshot) *model.ScanSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.Categories != nil {
		out.Categories = make(map[model.Category]int, len(s.Categories))
		for k, v := range s.Categories {
			out.Categories[k] = v
		}
	}
	if s.Inventory != nil {
		out.Inventory = append([]string{}, s.Inventory...)
	}
	if s.Analysis != nil {
		a := cloneAnalysis(*s.Analysis)
		out.Analysis = &a
	}
	return &out
}

func cloneAnalysis(a model.PrivacyAnalysis) model.PrivacyAnalysis {
	out := a
	if a.Breakdown != nil {
		out.Breakdown = make(map[model.Category]int, len(a.Breakdown))
		for k, v := range a.Breakdown {
			out.Breakdown[k] = v
		}
	}
	if a.Recommendations != nil {
		out.Recommendations = append([]model.Recommendation{}, a.Recommendations...)
	}
	if a.Deductions != nil {
		out.Deductions = append([]model.Deduction{}, a.Deductions...)
	}
	if a.HighRiskItems != nil {
		out.HighRiskItems = make([]model.HighRiskItem, len(a.HighRiskItems))
		for i, item := range a.HighRiskItems {
			if item.Cookies != nil {
				item.Cookies = append([]string{}, item.Cookies...)
			}
			out.HighRiskItems[i] = item
		}
	}
	return out
}
