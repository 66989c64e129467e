// Package diff computes structured deltas between a tool's expected
// state (the canonical render) and its observed on-disk state.
package diff

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/agentsync/agentsync/internal/model"
)

// entry pairs an item key with its comparable projection.
type entry struct {
	key   string
	value any
}

// Compute returns the drift items for one tool, restricted to the given
// capability set. Item order is deterministic: categories in declaration
// order, expected keys in their (sorted) canonical order, then
// extra-only keys in observed order. Keys present in both states with
// structurally equal values emit nothing.
func Compute(expected, observed model.ObservedState, caps []model.Category) []model.SyncItem {
	capSet := make(map[model.Category]bool, len(caps))
	for _, c := range caps {
		capSet[c] = true
	}

	var items []model.SyncItem
	for _, cat := range model.Categories {
		if !capSet[cat] {
			continue
		}
		exp := entries(cat, expected)
		obs := entries(cat, observed)
		if exp == nil && obs == nil {
			continue
		}
		items = append(items, diffCategory(expected.Tool, cat, exp, obs)...)
	}
	return items
}

// ExpectedCount returns the number of expected items in the categories
// the tool supports, which the reconciler uses to derive synced counts.
func ExpectedCount(expected model.ObservedState, caps []model.Category) int {
	n := 0
	for _, cat := range caps {
		n += len(entries(cat, expected))
	}
	return n
}

// entries projects one category of an observed state into key/value
// pairs, preserving slice order. A nil category stays nil.
func entries(cat model.Category, st model.ObservedState) []entry {
	switch cat {
	case model.CategoryServer:
		if st.Servers == nil {
			return nil
		}
		out := make([]entry, 0, len(st.Servers))
		for _, s := range st.Servers {
			out = append(out, entry{key: s.Name, value: s.Comparable()})
		}
		return out
	case model.CategorySkill:
		if st.Skills == nil {
			return nil
		}
		out := make([]entry, 0, len(st.Skills))
		for _, s := range st.Skills {
			out = append(out, entry{key: s.Name, value: s.Comparable()})
		}
		return out
	case model.CategoryCommand:
		if st.Commands == nil {
			return nil
		}
		out := make([]entry, 0, len(st.Commands))
		for _, c := range st.Commands {
			out = append(out, entry{key: c.Key(), value: c.Comparable()})
		}
		return out
	case model.CategoryAgent:
		if st.Agents == nil {
			return nil
		}
		out := make([]entry, 0, len(st.Agents))
		for _, a := range st.Agents {
			out = append(out, entry{key: a.Name, value: a.Comparable()})
		}
		return out
	}
	return nil
}

func diffCategory(tool string, cat model.Category, exp, obs []entry) []model.SyncItem {
	obsByKey := make(map[string]any, len(obs))
	for _, e := range obs {
		obsByKey[e.key] = e.value
	}
	expKeys := make(map[string]bool, len(exp))

	var items []model.SyncItem
	for _, e := range exp {
		expKeys[e.key] = true
		ov, ok := obsByKey[e.key]
		if !ok {
			items = append(items, model.SyncItem{
				Tool:     tool,
				Category: cat,
				Key:      e.key,
				Kind:     model.DriftMissing,
				Expected: e.value,
				Detail:   fmt.Sprintf("%s %q not configured for %s", cat, e.key, tool),
			})
			continue
		}
		if !reflect.DeepEqual(e.value, ov) {
			items = append(items, model.SyncItem{
				Tool:     tool,
				Category: cat,
				Key:      e.key,
				Kind:     model.DriftMismatch,
				Expected: e.value,
				Observed: ov,
				Detail:   mismatchDetail(e.value, ov),
			})
		}
	}

	for _, e := range obs {
		if expKeys[e.key] {
			continue
		}
		detail := fmt.Sprintf("%s %q not in canonical state", cat, e.key)
		if near := nearestKey(e.key, exp); near != "" {
			detail += fmt.Sprintf(" (closest canonical name: %q)", near)
		}
		items = append(items, model.SyncItem{
			Tool:     tool,
			Category: cat,
			Key:      e.key,
			Kind:     model.DriftExtra,
			Observed: e.value,
			Detail:   detail,
		})
	}
	return items
}

// mismatchDetail names the fields whose values differ, via the JSON
// projection of both comparable values.
func mismatchDetail(expected, observed any) string {
	em := toJSONMap(expected)
	om := toJSONMap(observed)
	if em == nil || om == nil {
		return "value differs"
	}
	fieldSet := make(map[string]bool, len(em)+len(om))
	for k := range em {
		fieldSet[k] = true
	}
	for k := range om {
		fieldSet[k] = true
	}
	var changed []string
	for k := range fieldSet {
		if !reflect.DeepEqual(em[k], om[k]) {
			changed = append(changed, k)
		}
	}
	if len(changed) == 0 {
		return "value differs"
	}
	sort.Strings(changed)
	return "differs in " + strings.Join(changed, ", ")
}

func toJSONMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
